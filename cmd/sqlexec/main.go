// Package main provides the sqlexec command line tool and HTTP server.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.New(color.FgRed, color.Bold).Sprint("✗ ")+err.Error())
		os.Exit(1)
	}
}
