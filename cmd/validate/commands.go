package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jwebster45206/text-rpg/pkg/rules"
	"github.com/jwebster45206/text-rpg/pkg/state"
	"github.com/jwebster45206/text-rpg/pkg/storage"
	"github.com/jwebster45206/text-rpg/pkg/world"
)

func worldCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "world <world.json>",
		Short: "Validate a world definition file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := world.LoadGraph(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "World file is valid! %d locations, starting at %s.\n", len(g.Names()), g.Start())
			return nil
		},
	}
}

func rulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules <dir>",
		Short: "Validate the rule documents in a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := os.Stat(args[0])
			if err != nil {
				return err
			}
			if !info.IsDir() {
				return fmt.Errorf("%s is not a directory", args[0])
			}
			if err := rules.Validate(args[0]); err != nil {
				return fmt.Errorf("rule documents in %s are invalid:\n%w", args[0], err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Rule documents are valid!")
			return nil
		},
	}
}

func saveCmd() *cobra.Command {
	var worldFile string
	cmd := &cobra.Command{
		Use:   "save <save.json>...",
		Short: "Validate save files against the save format and a world",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g := world.DefaultGraph()
			if worldFile != "" {
				var err error
				if g, err = world.LoadGraph(worldFile); err != nil {
					return err
				}
			}
			var errs []error
			for _, path := range args {
				if err := validateSave(cmd.OutOrStdout(), path, g); err != nil {
					errs = append(errs, err)
				}
			}
			return errors.Join(errs...)
		},
	}
	cmd.Flags().StringVar(&worldFile, "world", "", "world file the saves belong to (default: built-in world)")
	return cmd
}

// validateSave checks that path has a usable save name, decodes as a save
// of a supported version and places the player somewhere in g.
func validateSave(out io.Writer, path string, g *world.Graph) error {
	base := filepath.Base(path)
	if filepath.Ext(base) != ".json" {
		return fmt.Errorf("save file must have .json extension: %s", base)
	}
	name := strings.TrimSuffix(base, ".json")
	if clean := storage.SanitizeName(name); clean != name {
		return fmt.Errorf("save file name %q would be stored as %q; rename it", base, clean+".json")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", path, err)
	}
	doc, err := state.DecodeSave(data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if doc.Player == nil {
		return fmt.Errorf("%s: save has no player", path)
	}
	if !g.Has(doc.Player.CurrentLocation) {
		return fmt.Errorf("%s: player is at unknown location %q", path, doc.Player.CurrentLocation)
	}

	fmt.Fprintf(out, "%s is valid (version %s, %s the %s at %s).\n",
		path, doc.Version, doc.Player.Name, doc.Player.Class, doc.Player.CurrentLocation)
	return nil
}
