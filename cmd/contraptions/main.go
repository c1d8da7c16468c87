// Package main provides the contraptions host binary. It loads contraption
// types and the saved population, drives the scheduler and saves on exit.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitUserError)
	}
}
