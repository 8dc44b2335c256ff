// exgen [path], exgen generate [path]
package cmd

import (
	"fmt"
	"os"

	"github.com/qobs-build/exgen/internal/builder"
	"github.com/qobs-build/exgen/internal/msg"
	"github.com/spf13/cobra"
)

var (
	flagProfile   string
	flagLibrary   string
	flagExamples  string
	flagGenerator EnumValue = NewEnumValue(builder.GeneratorNinja, map[string]string{
		builder.GeneratorNinja:  "Generates a build.ninja file (default)",
		builder.GeneratorCMake:  "Generates examples.cmake to include() from a CMake project",
		builder.GeneratorVS2022: "Generates Visual Studio 2022 project files",
		builder.GeneratorJSON:   "Writes the generated targets as examples.json",
	})
)

// loadBuilder opens the package at args[0] (or ".") and applies the command line overrides
func loadBuilder(args []string) *builder.Builder {
	target := "."
	if len(args) > 0 {
		target = args[0]
	}
	b, err := builder.NewBuilderInDirectory(target)
	if err != nil {
		msg.Fatal("%v", err)
	}
	if err := b.SetExamplesDir(flagExamples); err != nil {
		msg.Fatal("%v", err)
	}
	b.SetLibrary(flagLibrary)
	b.SetProfile(flagProfile)
	return b
}

func doGenerate(cmd *cobra.Command, args []string) {
	b := loadBuilder(args)
	if _, _, err := b.Generate(flagGenerator.Value()); err != nil {
		msg.Fatal("%v", err)
	}
}

var rootCmd = &cobra.Command{
	Use:   "exgen [package path]",
	Short: "Example target generator",
	Long: `Generates one executable target per example source, linked against the package's
shared library, plus an "examples" target that builds all of them. None of the
generated targets are part of the default build.`,
	Args: cobra.MaximumNArgs(1),
	Run:  doGenerate,
}

var generateCmd = &cobra.Command{
	Use:   "generate [package path]",
	Short: "Generate the example targets",
	Long:  `Generate the example targets. If no package path is given, uses "."`,
	Args:  cobra.MaximumNArgs(1),
	Run:   doGenerate,
}

func init() {
	addGenerateFlags(rootCmd)

	// exgen generate subcommand
	rootCmd.AddCommand(generateCmd)
	addGenerateFlags(generateCmd)
}

func addGenerateFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&flagProfile, "profile", "p", "debug", "Generate with the given profile")
	cmd.Flags().StringVarP(&flagLibrary, "lib", "l", "", "Shared library the examples link against, overrides [library] name")
	cmd.Flags().StringVarP(&flagExamples, "examples", "e", "", "Directory to discover example sources in, overrides [examples] dir")
	cmd.Flags().VarP(&flagGenerator, "gen", "g", "Generator to use, one of "+flagGenerator.HelpString())
	cmd.RegisterFlagCompletionFunc("gen", flagGenerator.CompletionFunc())
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
