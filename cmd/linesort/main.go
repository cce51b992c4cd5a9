// Command linesort sorts "Number. String" text files larger than memory.
package main

import (
	"fmt"
	"os"

	"github.com/eunmann/linesort/internal/cli"
)

func main() {
	if err := cli.Run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
