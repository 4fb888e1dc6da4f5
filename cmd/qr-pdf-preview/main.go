package main

import (
	"fmt"
	"os"

	"github.com/spherical/qr-pdf-preview/cmd/qr-pdf-preview/commands"
)

var (
	version = "1.0.0"
)

func main() {
	commands.Version = version
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
