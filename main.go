package main

import "github.com/qobs-build/exgen/cmd"

func main() {
	cmd.Execute()
}
