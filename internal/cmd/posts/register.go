package posts

import "github.com/spf13/cobra"

// Register adds the post, calendar and review commands to the given parent
// command.
func Register(parent *cobra.Command) {
	RegisterPostsCmd(parent)
	RegisterCalendarCmd(postsCmd)
	RegisterReviewCmd(parent)
}
