package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teemow/workmate/internal/config"
	"github.com/teemow/workmate/internal/transcript"
)

func newTranscriptsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transcripts [session-id]",
		Short: "Print archived chat transcripts",
		Long: `Print the archived transcript of a chat session. Without a session id,
list the archived sessions, most recent first.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			logger := slog.New(slog.DiscardHandler)
			store, err := transcript.Open(cfg.Transcript.DSN, logger)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			out := cmd.OutOrStdout()
			if len(args) == 0 {
				ids, err := store.Sessions(cmd.Context())
				if err != nil {
					return err
				}
				for _, id := range ids {
					fmt.Fprintln(out, id)
				}
				return nil
			}

			entries, err := store.List(cmd.Context(), args[0])
			if errors.Is(err, transcript.ErrNotFound) {
				return fmt.Errorf("no transcript for session %s", args[0])
			}
			if err != nil {
				return err
			}
			writeTranscript(out, entries)
			return nil
		},
	}

	config.RegisterFlags(cmd.Flags())
	return cmd
}

func writeTranscript(w io.Writer, entries []transcript.Entry) {
	for _, e := range entries {
		fmt.Fprintf(w, "[%s] %s:\n%s\n\n", e.At.Format("2006-01-02 15:04:05"), strings.ToUpper(e.Role), e.Text)
	}
}
