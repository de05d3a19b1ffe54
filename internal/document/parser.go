// Package document stores uploaded job descriptions and extracts their text.
package document

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"code.sajari.com/docconv"
	"github.com/google/uuid"
)

// ErrUnsupported is returned for file types the parser cannot read.
var ErrUnsupported = errors.New("unsupported file type")

// Stored is an upload saved to disk.
type Stored struct {
	Filename string
	Path     string
	FileType string
	Size     int64
}

type Parser struct {
	uploadsDir string
}

func NewParser(uploadsDir string) *Parser {
	return &Parser{uploadsDir: uploadsDir}
}

// Supported reports whether filename has an extension the parser can read.
func Supported(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf", ".docx", ".doc", ".rtf", ".odt", ".txt", ".md":
		return true
	}
	return false
}

// Save copies reader into the uploads directory under a unique name.
func (p *Parser) Save(filename string, reader io.Reader) (*Stored, error) {
	if !Supported(filename) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(filename))
	}
	if err := os.MkdirAll(p.uploadsDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create uploads dir: %w", err)
	}

	base := filepath.Base(filename)
	path := filepath.Join(p.uploadsDir, uuid.NewString()+"_"+base)
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	size, err := io.Copy(file, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to save file: %w", err)
	}
	return &Stored{
		Filename: base,
		Path:     path,
		FileType: strings.ToLower(filepath.Ext(base)),
		Size:     size,
	}, nil
}

// ExtractText returns the plain text of a stored document.
func (p *Parser) ExtractText(s *Stored) (string, error) {
	switch s.FileType {
	case ".pdf", ".docx", ".doc", ".rtf", ".odt":
		res, err := docconv.ConvertPath(s.Path)
		if err != nil {
			return "", fmt.Errorf("failed to parse document: %w", err)
		}
		return strings.TrimSpace(res.Body), nil
	case ".txt", ".md":
		content, err := os.ReadFile(s.Path)
		if err != nil {
			return "", fmt.Errorf("failed to read text file: %w", err)
		}
		return strings.TrimSpace(string(content)), nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupported, s.FileType)
}

var skillKeywords = []string{
	"Go", "Golang", "Python", "Java", "JavaScript", "TypeScript",
	"React", "Vue", "Angular", "Node.js", "Docker", "Kubernetes",
	"PostgreSQL", "MySQL", "MongoDB", "Redis", "AWS", "Azure", "GCP",
	"GraphQL", "REST", "Microservices", "Git", "CI/CD",
	"Machine Learning", "Data Science", "DevOps", "SQL", "Excel",
	"Sales", "Recruiting", "Communication",
}

var skillPatterns = func() []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(skillKeywords))
	for i, skill := range skillKeywords {
		patterns[i] = regexp.MustCompile(`(?i)(?:^|[^\w.])` + regexp.QuoteMeta(skill) + `(?:$|[^\w/])`)
	}
	return patterns
}()

// ExtractRequirements lists the known skills a job description mentions, in
// keyword order.
func ExtractRequirements(text string) []string {
	var found []string
	for i, re := range skillPatterns {
		if re.MatchString(text) {
			found = append(found, skillKeywords[i])
		}
	}
	return found
}
