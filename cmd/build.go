// exgen build [path] [targets...]
package cmd

import (
	"github.com/qobs-build/exgen/internal/msg"
	"github.com/spf13/cobra"
)

func doBuild(cmd *cobra.Command, args []string) {
	b := loadBuilder(args)
	var targets []string
	if len(args) > 1 {
		targets = args[1:]
	}
	if err := b.Build(flagGenerator.Value(), targets...); err != nil {
		msg.Fatal("%v", err)
	}
}

var buildCmd = &cobra.Command{
	Use:   "build [package path] [targets...]",
	Short: "Generate and build example targets",
	Long: `Generate the example targets and hand them to the build engine. Without target
names the umbrella target is built, i.e. every example.`,
	Args: cobra.ArbitraryArgs,
	Run:  doBuild,
}

func init() {
	// exgen build subcommand
	rootCmd.AddCommand(buildCmd)
	addGenerateFlags(buildCmd)
}
