package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"voice-agent/internal/interview"
	"voice-agent/internal/speech/console"
)

func newRunCommand(opts *options) *cobra.Command {
	var candidateID, jobID int64

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Interview a candidate for a job",
		Long: "Run the interview in the terminal. Type each answer and press enter;\n" +
			"an empty line asks again, and end of input (Ctrl-D) cancels the interview.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := opts.config()
			if err != nil {
				return err
			}
			script, err := cfg.Script()
			if err != nil {
				return err
			}
			log, err := opts.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			client := opts.client()
			candidate, err := client.GetCandidate(ctx, candidateID)
			if err != nil {
				return fmt.Errorf("candidate %d: %w", candidateID, err)
			}
			job, err := client.GetJob(ctx, jobID)
			if err != nil {
				return fmt.Errorf("job %d: %w", jobID, err)
			}

			term := console.New(cmd.InOrStdin(), cmd.OutOrStdout())
			stalls := make(chan struct{}, 1)
			engine := interview.NewEngine(term, term, client, interview.Options{
				Script:      script,
				CompanyName: cfg.CompanyName,
				Pause:       cfg.Interview.Pause,
				ListenPoll:  cfg.Interview.ListenPoll,
				Logger:      log,
				Observer: func(s interview.Snapshot) {
					if s.Stalled {
						select {
						case stalls <- struct{}{}:
						default:
						}
					}
				},
			})
			if err := engine.Select(candidate, job); err != nil {
				return err
			}

			finished := make(chan struct{})
			defer close(finished)
			go func() {
				for {
					select {
					case <-finished:
						return
					case <-stalls:
						select {
						case <-term.Done():
							engine.Cancel()
						default:
							_ = engine.Retry()
						}
					}
				}
			}()

			out, err := engine.Run(ctx)
			return report(cmd.OutOrStdout(), out, err)
		},
	}

	cmd.Flags().Int64Var(&candidateID, "candidate", 0, "Candidate ID")
	cmd.Flags().Int64Var(&jobID, "job", 0, "Job ID")
	_ = cmd.MarkFlagRequired("candidate")
	_ = cmd.MarkFlagRequired("job")
	return cmd
}

func report(w io.Writer, out *interview.Outcome, err error) error {
	var saveErr *interview.SaveError
	switch {
	case errors.Is(err, interview.ErrCancelled):
		fmt.Fprintln(w, "\nInterview cancelled, nothing was saved.")
		return nil
	case out == nil:
		return err
	case errors.As(err, &saveErr):
		fmt.Fprintf(w, "\nInterview finished but not fully saved: %v\n", saveErr)
	default:
		fmt.Fprintln(w, "\nInterview saved.")
	}

	fmt.Fprintf(w, "Conversation: %d\n", out.Report.ConversationID)
	if out.Report.Booked && out.Report.AppointmentID != 0 {
		date, _ := out.Answers.AppointmentDateTime()
		fmt.Fprintf(w, "Appointment: %d at %s\n", out.Report.AppointmentID, date)
	} else if !out.Report.Booked {
		fmt.Fprintln(w, "No appointment booked.")
	}
	return err
}
