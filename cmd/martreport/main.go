// Package main is the entry point for martreport.
package main

import (
	"fmt"
	"os"

	"github.com/salesmart/martreport/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
