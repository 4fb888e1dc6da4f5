package commands

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/spherical/qr-pdf-preview/internal/config"
	"github.com/spherical/qr-pdf-preview/internal/display"
	"github.com/spherical/qr-pdf-preview/internal/observability"
)

// Version is set by main.
var Version = "dev"

var (
	cfgFile string
	verbose bool
	noColor bool

	cfg *config.Config
	log *observability.Logger
)

var rootCmd = &cobra.Command{
	Use:   "qr-pdf-preview",
	Short: "Scan a QR code, fetch the PDF it points to and preview its text",
	Long: `qr-pdf-preview reads frames from a camera feed, decodes the first QR code it sees,
and when the code holds an http(s) link downloads the PDF behind it, extracts the text
page by page and shows a preview.

Cameras are either a directory that a capture tool writes frames into, or an HTTP
snapshot endpoint such as an IP camera's snapshot.jpg.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded

		level := cfg.Log.Level
		if verbose {
			level = "debug"
		}
		log = observability.NewLogger(observability.LogConfig{
			Level:       level,
			Format:      cfg.Log.Format,
			Output:      os.Stderr,
			ServiceName: "qr-pdf-preview",
		})
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// newTerminal builds the display surface for stdout.
func newTerminal() *display.Terminal {
	tty := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	return display.NewTerminal(display.Options{
		Out:          os.Stdout,
		In:           os.Stdin,
		PreviewChars: cfg.Display.PreviewChars,
		Color:        cfg.Display.Color && !noColor && tty,
		Hyperlinks:   cfg.Display.Hyperlinks && tty,
		Animate:      tty,
	})
}
