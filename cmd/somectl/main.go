// Command somectl manages a social media publishing workspace from the
// terminal: review drafts, plan the calendar and upload images.
package main

import (
	"fmt"
	"os"

	"github.com/somesimplify/somectl/internal/cmd"
	"github.com/somesimplify/somectl/internal/errors"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", errors.UserMessage(err))
		os.Exit(1)
	}
}
