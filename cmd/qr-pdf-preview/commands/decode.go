package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spherical/qr-pdf-preview/internal/domain"
	"github.com/spherical/qr-pdf-preview/internal/qr"
)

var decodeCmd = &cobra.Command{
	Use:   "decode <image>",
	Short: "Decode a QR code from an image file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dec := qr.NewDecoder(qr.Options{TryHarder: cfg.Scan.TryHarder})
		res, err := dec.DecodeFile(args[0])
		if err != nil {
			return err
		}
		if !res.Found {
			return fmt.Errorf("no QR code found in %s", args[0])
		}

		kind := domain.Classify(domain.Payload(res.Text))
		log.Debug().Str("kind", kind.String()).Msg("decoded")
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", kind, res.Text)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "qr-pdf-preview version %s\n", Version)
	},
}

func init() {
	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(versionCmd)
}
