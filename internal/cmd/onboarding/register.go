package onboarding

import "github.com/spf13/cobra"

// Register adds the onboarding commands to the given parent command.
func Register(parent *cobra.Command) {
	RegisterProfileCmd(parent)
	RegisterInstagramCmd(parent)
}
