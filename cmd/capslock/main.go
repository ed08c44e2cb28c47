package main

import (
	"fmt"
	"os"

	"github.com/rustfoundation/cargo-capslock/cmd/capslock/analyze"
)

var version = "dev"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "analyze":
		os.Exit(analyze.Run(os.Args[2:]))
	case "version":
		fmt.Println(version)
	default:
		fmt.Fprintf(os.Stderr, "unknown subcommand: %s\n", os.Args[1])
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `capslock — static call-graph capability inference

Usage:
  capslock analyze [--rules FILE] [--format text|json|sarif] [--full] [--timeout D] ARTIFACT...
  capslock analyze [--rules FILE] [--format text|json|sarif] [--full] --go DIR
  capslock version`)
}
