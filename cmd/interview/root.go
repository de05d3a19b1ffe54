package main

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"voice-agent/internal/config"
	"voice-agent/internal/observe"
	apiclient "voice-agent/pkg/http"
)

const defaultAPIURL = "http://localhost:8080"

type options struct {
	apiURL     string
	configPath string
	logLevel   string
	timeout    time.Duration
}

func (o *options) client() *apiclient.Client {
	return apiclient.NewClient(o.apiURL, o.timeout)
}

func (o *options) config() (*config.Config, error) {
	return config.Load(o.configPath)
}

// logger writes to stderr so it never interleaves with the conversation.
func (o *options) logger(w io.Writer) (*slog.Logger, error) {
	level, err := observe.ParseLevel(o.logLevel)
	if err != nil {
		return nil, err
	}
	return observe.NewLogger(level, "text", w)
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "interview",
		Short:         "Run voice interviews from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	apiURL := os.Getenv("VOICE_AGENT_API")
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	rootCmd.PersistentFlags().StringVar(&opts.apiURL, "api", apiURL, "Base URL of the voice agent API")
	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "API request timeout")

	rootCmd.AddCommand(newRunCommand(opts))
	rootCmd.AddCommand(newCandidatesCommand(opts))

	return rootCmd
}
