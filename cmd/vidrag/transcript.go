package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cwygoda/vidrag/internal/domain"
)

var translateTranscript bool

var transcriptCmd = &cobra.Command{
	Use:   "transcript <youtube-url>",
	Short: "Fetch and print a video transcript",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		videoID, ok := domain.ExtractVideoID(args[0])
		if !ok {
			return domain.ErrInvalidURL
		}

		cfg, err := loadConfig(translateTranscript)
		if err != nil {
			return err
		}
		log, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer log.Sync()

		fetcher, err := newFetcher(cfg, log)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		outcome := fetcher.FetchTranscript(ctx, videoID)
		if !outcome.OK() {
			return errors.New(domain.TranscriptUnavailable + ": " + outcome.Reason)
		}

		text := outcome.Text
		if translateTranscript {
			text = newTranslator(cfg, log).TranslateIfNeeded(ctx, text)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
		return err
	},
}

func init() {
	transcriptCmd.Flags().BoolVar(&translateTranscript, "translate", false, "translate Hindi transcripts to English")
	rootCmd.AddCommand(transcriptCmd)
}
