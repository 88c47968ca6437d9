// Command presenza manages the presenza identity engine: inspecting
// registered users, enrolling new ones from embedding files, and
// simulating recognition turns against the fusion policy.
package main

import (
	"fmt"
	"os"

	"github.com/presenza-ai/presenza/cmd/presenza/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
