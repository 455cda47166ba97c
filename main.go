// ABOUTME: Entry point for the postdeck CLI
// ABOUTME: Terminal client for browsing and posting to a Postdeck backend

package main

import (
	"fmt"
	"os"

	"github.com/lucasreis/postdeck/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
