// exgen list [path]
package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/qobs-build/exgen/internal/builder"
	"github.com/qobs-build/exgen/internal/examples"
	"github.com/qobs-build/exgen/internal/msg"
	"github.com/spf13/cobra"
)

// printResult writes one line per generated target, then the umbrella target
func printResult(w io.Writer, res *examples.Result, base string) {
	for i, t := range res.Targets {
		src := t.Source
		if rel, err := filepath.Rel(base, src); err == nil {
			src = filepath.ToSlash(rel)
		}
		fmt.Fprintf(w, "%d. %s <- %s (links %s)\n", i+1, color.HiCyanString(t.Name), src, strings.Join(t.LinkDeps, ", "))
	}
	fmt.Fprintf(w, "%s -> [%s]\n", color.HiGreenString(res.Umbrella.Name), strings.Join(res.Umbrella.Deps, " "))
}

// listTargets runs a pass and prints what it would register
func listTargets(w io.Writer, b *builder.Builder) error {
	dir, err := b.ExamplesDir()
	if err != nil {
		return err
	}
	res, err := b.Pass()
	if err != nil {
		return err
	}

	printResult(w, res, dir)
	if len(res.Targets) == 0 {
		msg.Warn("no example sources found in %s", dir)
	}
	return nil
}

func doList(cmd *cobra.Command, args []string) {
	if err := listTargets(cmd.OutOrStdout(), loadBuilder(args)); err != nil {
		msg.Fatal("%v", err)
	}
}

var listCmd = &cobra.Command{
	Use:   "list [package path]",
	Short: "List the targets a generation pass would create",
	Args:  cobra.MaximumNArgs(1),
	Run:   doList,
}

func init() {
	// exgen list subcommand
	rootCmd.AddCommand(listCmd)
	addGenerateFlags(listCmd)
}
