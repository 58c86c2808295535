package workspace

import "github.com/spf13/cobra"

// Register adds the workspace commands to the given parent command.
func Register(parent *cobra.Command) {
	RegisterTenantCmd(parent)
}
