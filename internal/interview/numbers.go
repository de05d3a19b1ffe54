package interview

import (
	"strconv"
	"strings"
	"unicode"
)

type wordKind int

const (
	kindNone wordKind = iota
	kindUnit          // zero..nineteen
	kindTens          // twenty..ninety
	kindHundred
	kindThousand
	kindPoint
)

var unitWords = map[string]int64{
	"zero": 0, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6,
	"seven": 7, "eight": 8, "nine": 9, "ten": 10, "eleven": 11, "twelve": 12,
	"thirteen": 13, "fourteen": 14, "fifteen": 15, "sixteen": 16, "seventeen": 17,
	"eighteen": 18, "nineteen": 19,
}

var tensWords = map[string]int64{
	"twenty": 20, "thirty": 30, "forty": 40, "fifty": 50,
	"sixty": 60, "seventy": 70, "eighty": 80, "ninety": 90,
}

func classifyWord(w string) (wordKind, int64) {
	if v, ok := unitWords[w]; ok {
		return kindUnit, v
	}
	if v, ok := tensWords[w]; ok {
		return kindTens, v
	}
	switch w {
	case "hundred":
		return kindHundred, 100
	case "thousand":
		return kindThousand, 1000
	case "point":
		return kindPoint, 0
	}
	return kindNone, 0
}

// spokenNumber accumulates one spelled-out number.
type spokenNumber struct {
	active   bool
	total    int64
	current  int64
	decimals strings.Builder
	inPoint  bool
	last     wordKind
}

// accepts reports whether word kind k continues the number being built.
func (n *spokenNumber) accepts(k wordKind, v int64) bool {
	if !n.active {
		return k != kindPoint && k != kindNone
	}
	if n.inPoint {
		return k == kindUnit && v < 10
	}
	switch k {
	case kindUnit:
		return n.last != kindUnit && !(n.last == kindTens && v >= 10)
	case kindTens:
		return n.last != kindUnit && n.last != kindTens
	case kindHundred:
		return n.last == kindUnit || n.last == kindTens
	case kindThousand:
		return n.last != kindThousand
	case kindPoint:
		return true
	}
	return false
}

func (n *spokenNumber) add(k wordKind, v int64) {
	n.active = true
	switch {
	case n.inPoint:
		n.decimals.WriteString(strconv.FormatInt(v, 10))
	case k == kindUnit, k == kindTens:
		n.current += v
	case k == kindHundred:
		if n.current == 0 {
			n.current = 1
		}
		n.current *= 100
	case k == kindThousand:
		if n.current == 0 {
			n.current = 1
		}
		n.total += n.current * 1000
		n.current = 0
	case k == kindPoint:
		n.inPoint = true
	}
	n.last = k
}

func (n *spokenNumber) String() string {
	s := strconv.FormatInt(n.total+n.current, 10)
	if n.decimals.Len() > 0 {
		s += "." + n.decimals.String()
	}
	return s
}

// SpokenNumbersToDigits rewrites spelled-out numbers as digits, e.g.
// "eight lakhs expecting twelve point five" becomes "8 lakhs expecting 12.5".
// Other words and punctuation are kept.
func SpokenNumbersToDigits(text string) string {
	var out []string
	num := &spokenNumber{}

	flush := func() {
		if num.active {
			out = append(out, num.String())
			num = &spokenNumber{}
		}
	}

	for _, word := range strings.Fields(text) {
		core := strings.TrimRightFunc(word, unicode.IsPunct)
		trail := word[len(core):]
		parts := strings.Split(strings.ToLower(core), "-")

		numeric := core != ""
		for _, p := range parts {
			if k, _ := classifyWord(p); k == kindNone {
				numeric = false
				break
			}
		}
		// "one hundred and twenty"
		if !numeric && strings.EqualFold(core, "and") && trail == "" && num.active &&
			(num.last == kindHundred || num.last == kindThousand) {
			continue
		}
		if !numeric {
			flush()
			out = append(out, word)
			continue
		}

		for _, p := range parts {
			k, v := classifyWord(p)
			if !num.accepts(k, v) {
				flush()
				if !num.accepts(k, v) {
					// a stray "point" with nothing before it
					out = append(out, p)
					continue
				}
			}
			num.add(k, v)
		}
		if trail != "" {
			flush()
			out[len(out)-1] += trail
		}
	}
	flush()
	return strings.Join(out, " ")
}
