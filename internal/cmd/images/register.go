package images

import "github.com/spf13/cobra"

// Register adds the content library commands to the given parent command.
func Register(parent *cobra.Command) {
	RegisterImagesCmd(parent)
}
