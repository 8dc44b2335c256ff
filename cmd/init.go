// exgen init <library>, exgen new <path>
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/qobs-build/exgen/internal/builder"
	"github.com/qobs-build/exgen/internal/msg"
	"github.com/spf13/cobra"
)

func writefile(content string, elem ...string) {
	path := filepath.Join(elem...)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err = os.WriteFile(path, []byte(content), 0o644); err != nil {
			msg.Fatal("create file %s: %v", path, err)
		}
		fmt.Printf("%s file: %s\n", color.HiGreenString("Created"), filepath.ToSlash(path))
	}
}

func mkdir(elem ...string) {
	path := filepath.Join(elem...)
	if err := os.MkdirAll(path, 0o755); err != nil {
		msg.Fatal("mkdir %s: %v", path, err)
	}
}

func getProgramName() string {
	if len(os.Args) == 0 {
		return "exgen"
	}
	basename := filepath.Base(os.Args[0])
	return strings.TrimSuffix(basename, filepath.Ext(basename))
}

func configTemplate(library string, cxx bool) string {
	extensions := `".c"`
	if cxx {
		extensions = `".c", ".cc", ".cpp", ".cxx"`
	}
	return `[library]
name = "` + library + `"
path = "lib"

[examples]
dir = "examples"
extensions = [` + extensions + `]

[target]
links = []
`
}

// initIn sets up an examples directory for library in an existing directory
func initIn(dir, library string, cxx bool) {
	writefile(configTemplate(library, cxx), dir, builder.ConfigFilename)

	mkdir(dir, "examples")
	mkdir(dir, "lib")

	if cxx {
		writefile(`#include <iostream>

int main() {
    std::cout << "Hello from an example!" << std::endl;
    return 0;
}
`, dir, "examples", "hello.cpp")
	} else {
		writefile(`#include <stdio.h>

int main(void) {
    puts("Hello from an example!");
    return 0;
}
`, dir, "examples", "hello.c")
	}

	// .gitignore
	writefile(`build/
`, dir, ".gitignore")

	programName := getProgramName()
	fmt.Printf("Put lib%s in lib/, then do %s to generate, or %s to build every example.\n",
		library, color.HiCyanString(programName+" "+dir), color.HiCyanString(programName+" build "+dir))
}

var flagCxx bool

var initCmd = &cobra.Command{
	Use:   "init <library>",
	Short: "Set up examples for a library in the current directory",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		initIn(".", args[0], flagCxx)
	},
}

var newCmd = &cobra.Command{
	Use:   "new <path>",
	Short: "Set up examples in a new directory, the library is named after it",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		mkdir(args[0])
		initIn(args[0], filepath.Base(args[0]), flagCxx)
	},
}

func init() {
	// exgen init subcommand
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&flagCxx, "cxx", false, "Create a C++ example")

	// exgen new subcommand
	rootCmd.AddCommand(newCmd)
	newCmd.Flags().BoolVar(&flagCxx, "cxx", false, "Create a C++ example")
}
