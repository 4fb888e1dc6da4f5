package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/spherical/qr-pdf-preview/internal/display"
	"github.com/spherical/qr-pdf-preview/internal/domain"
	"github.com/spherical/qr-pdf-preview/internal/pipeline"
)

var extractOutputPath string

var extractCmd = &cobra.Command{
	Use:   "extract <url>",
	Short: "Fetch a PDF by URL and preview its text, without the camera",
	Args:  cobra.ExactArgs(1),
	RunE:  runExtract,
}

func init() {
	extractCmd.Flags().StringVarP(&extractOutputPath, "output", "o", "", "write the full extracted text to this file")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	url := args[0]
	if domain.Classify(domain.Payload(url)) != domain.URLPayload {
		return fmt.Errorf("not an http(s) URL: %s", url)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	extractor, err := newExtractor(cfg, log)
	if err != nil {
		return err
	}
	fetcher := newFetcher(cfg, log)

	term := newTerminal()
	defer term.Close()

	st := pipeline.State{Phase: pipeline.Fetching, Payload: domain.Payload(url), URL: url}
	term.Handle(phaseEvent(st))

	start := time.Now()
	doc, err := fetcher.Fetch(ctx, url)
	if err != nil {
		return showFailure(ctx, term, st, err)
	}

	st.Phase = pipeline.Parsing
	st.Version = doc.Version
	term.Handle(phaseEvent(st))

	text, err := extractor.Extract(ctx, doc.Data, func(page, total int) {
		term.Handle(pipeline.Event{Type: pipeline.EventPage, State: st, Page: page, TotalPages: total, Timestamp: time.Now()})
	})
	doc.Release()
	if err != nil {
		return showFailure(ctx, term, st, err)
	}

	st.Phase = pipeline.Success
	st.Text = text.Text
	st.PageCount = text.PageCount
	term.Show(st)

	log.Debug().Dur("elapsed", time.Since(start)).Int("pages", text.PageCount).Msg("extract done")

	if extractOutputPath != "" {
		if err := os.WriteFile(extractOutputPath, []byte(text.Text), 0644); err != nil {
			return fmt.Errorf("write output file: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Full text written to %s\n", extractOutputPath)
	}
	return nil
}

func phaseEvent(st pipeline.State) pipeline.Event {
	return pipeline.Event{Type: pipeline.EventPhase, State: st, Timestamp: time.Now()}
}

func showFailure(ctx context.Context, term *display.Terminal, st pipeline.State, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	e, ok := domain.AsError(err)
	if !ok {
		e = domain.NewError(domain.ErrorKindNetwork, err.Error(), err)
	}
	log.Error().Err(err).Str("kind", string(e.Kind)).Msg(e.Message)

	st.Phase = pipeline.Failed
	st.Err = e
	term.Show(st)
	return errAttemptFailed
}
