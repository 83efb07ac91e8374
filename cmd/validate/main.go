package main

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:           "validate",
		Short:         "Check world, rules and save files before the game loads them",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.Version = version
	root.SetVersionTemplate("{{.Version}}\n")
	root.AddCommand(worldCmd())
	root.AddCommand(rulesCmd())
	root.AddCommand(saveCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
