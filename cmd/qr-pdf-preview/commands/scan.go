package commands

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/spherical/qr-pdf-preview/internal/display"
	"github.com/spherical/qr-pdf-preview/internal/pipeline"
)

var scanOnce bool

var errAttemptFailed = errors.New("scan attempt failed")

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan QR codes from the camera and preview the linked PDFs",
	Long: `Start the camera, wait for a QR code, then fetch and preview the PDF it links to.
Press Enter to start or rescan, q to quit. Ctrl+C cancels a running scan; at the
prompt it exits.`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().BoolVar(&scanOnce, "once", false, "run a single attempt without prompting; exit 1 if it fails")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	ctrl, err := newController(cfg, log)
	if err != nil {
		return err
	}

	term := newTerminal()
	defer term.Close()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if scanOnce {
		st := attempt(ctx, ctrl, term, sigCh)
		if st.Phase == pipeline.Failed {
			return errAttemptFailed
		}
		return nil
	}

	for {
		action, interrupted, err := prompt(term, ctrl.State(), sigCh)
		if err != nil {
			return err
		}
		if interrupted || action == display.ActionQuit {
			return nil
		}
		attempt(ctx, ctrl, term, sigCh)
	}
}

// attempt runs one scan while rendering its events. A signal cancels the
// attempt, not the program.
func attempt(ctx context.Context, ctrl *pipeline.Controller, term *display.Terminal, sigCh <-chan os.Signal) pipeline.State {
	actx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan pipeline.Event, 64)
	done := make(chan struct{})

	var final pipeline.State
	var g errgroup.Group

	g.Go(func() error {
		defer close(done)
		defer close(events)
		final = ctrl.Run(actx, events)
		return nil
	})
	g.Go(func() error {
		for ev := range events {
			term.Handle(ev)
		}
		return nil
	})
	g.Go(func() error {
		select {
		case <-sigCh:
			log.Debug().Msg("interrupt, cancelling attempt")
			cancel()
		case <-done:
		}
		return nil
	})
	_ = g.Wait()

	term.Show(final)
	return final
}

func prompt(term *display.Terminal, st pipeline.State, sigCh <-chan os.Signal) (display.Action, bool, error) {
	type result struct {
		action display.Action
		err    error
	}
	ch := make(chan result, 1)
	go func() {
		a, err := term.Prompt(st)
		ch <- result{a, err}
	}()

	select {
	case r := <-ch:
		return r.action, false, r.err
	case <-sigCh:
		return display.ActionQuit, true, nil
	}
}
