// Package posts provides the CLI commands that list, inspect, schedule and
// reject posts, print the publishing calendar and work through the review
// queue.
package posts

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/somesimplify/somectl/internal/calendar"
	"github.com/somesimplify/somectl/internal/cmd/cli"
	"github.com/somesimplify/somectl/internal/model"
	"github.com/somesimplify/somectl/internal/review"
	"github.com/somesimplify/somectl/internal/util"
)

// excerptWidth is how much of a post's text list views show.
const excerptWidth = 48

var postsCmd = &cobra.Command{
	Use:     "posts",
	Aliases: []string{"post"},
	Short:   "List, inspect, schedule and reject posts",
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List posts",
	Long: `List the workspace's posts. With --month only posts whose publish date
falls in that month are shown; drafts without a date are left out.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one post",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Show the backend's suggested next publish date",
	Args:  cobra.NoArgs,
	RunE:  runSuggest,
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule <id>",
	Short: "Approve a post for publishing",
	Long: `Approve a post for publishing at the given date and time. Without --date
the post's current date, or the backend's suggestion, is used. Without
--time the post's current time or review.default_time is used. Posts
cannot be scheduled in the past and published posts cannot be changed.`,
	Args: cobra.ExactArgs(1),
	RunE: runSchedule,
}

var rejectCmd = &cobra.Command{
	Use:   "reject <id>",
	Short: "Reject a post",
	Args:  cobra.ExactArgs(1),
	RunE:  runReject,
}

var (
	listMonth  string
	listStatus string

	scheduleDate string
	scheduleTime string
	scheduleText string
)

func init() {
	listCmd.Flags().StringVar(&listMonth, "month", "", "only posts publishing in this month (YYYY-MM)")
	listCmd.Flags().StringVar(&listStatus, "status", "", "only posts with this status: DRAFT, SCHEDULED, PUBLISHED, REJECTED")

	scheduleCmd.Flags().StringVar(&scheduleDate, "date", "", "publish date (YYYY-MM-DD)")
	scheduleCmd.Flags().StringVar(&scheduleTime, "time", "", "publish time (HH:MM)")
	scheduleCmd.Flags().StringVar(&scheduleText, "text", "", "replace the post text")
}

// RegisterPostsCmd registers the posts command group with the given parent command.
func RegisterPostsCmd(parent *cobra.Command) {
	postsCmd.AddCommand(listCmd, showCmd, suggestCmd, scheduleCmd, rejectCmd)
	parent.AddCommand(postsCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	p, err := cli.NewPrinter(cmd)
	if err != nil {
		return err
	}

	var status model.Status
	if listStatus != "" {
		if status, err = model.ParseStatus(listStatus); err != nil {
			return err
		}
	}
	var month calendar.Month
	if listMonth != "" {
		if month, err = calendar.ParseMonth(listMonth); err != nil {
			return err
		}
	}

	env, err := cli.Bootstrap(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	ctx := cmd.Context()
	sel, err := env.Tenant(ctx)
	if err != nil {
		return err
	}

	var posts []model.Post
	if listMonth != "" {
		svc := calendar.NewService(sel.Client, calendar.WithLogger(env.Logger))
		defer svc.Close()
		all, err := svc.Posts(ctx, month)
		if err != nil {
			return err
		}
		for _, post := range all {
			if status == "" || post.Status == status {
				posts = append(posts, post)
			}
		}
	} else {
		posts, err = sel.Client.ListPosts(ctx, model.PostFilter{Status: status})
		if err != nil {
			return fmt.Errorf("failed to list posts: %w", err)
		}
	}
	if posts == nil {
		posts = []model.Post{}
	}

	return p.Print(posts, func(w io.Writer) error {
		if len(posts) == 0 {
			_, err := fmt.Fprintln(w, "No posts.")
			return err
		}
		rows := make([][]string, len(posts))
		for i, post := range posts {
			rows[i] = []string{post.ID, post.Status.String(), formatPublishAt(post.PublishAt), util.Excerpt(post.Text, excerptWidth)}
		}
		return cli.Table(w, []string{"ID", "STATUS", "PUBLISH AT", "TEXT"}, rows)
	})
}

func runShow(cmd *cobra.Command, args []string) error {
	p, err := cli.NewPrinter(cmd)
	if err != nil {
		return err
	}
	env, err := cli.Bootstrap(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	ctx := cmd.Context()
	sel, err := env.Tenant(ctx)
	if err != nil {
		return err
	}

	ed := review.NewEditor(sel.Client, review.WithLogger(env.Logger), review.WithDefaultTime(env.Config.Review.DefaultTime))
	defer ed.Close()
	if err := ed.Open(ctx, args[0]); err != nil {
		return err
	}
	post := ed.Post()
	return p.Print(post, func(w io.Writer) error {
		printPost(w, post, ed.Form())
		return nil
	})
}

func runSuggest(cmd *cobra.Command, args []string) error {
	p, err := cli.NewPrinter(cmd)
	if err != nil {
		return err
	}
	env, err := cli.Bootstrap(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	ctx := cmd.Context()
	sel, err := env.Tenant(ctx)
	if err != nil {
		return err
	}
	at, err := sel.Client.SuggestedDate(ctx)
	if err != nil {
		return fmt.Errorf("failed to get suggested date: %w", err)
	}
	out := model.SuggestedDate{SuggestedDate: at}
	return p.Print(out, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "Suggested publish date: %s\n", at.Local().Format("Monday 2 January 2006"))
		return err
	})
}

func runSchedule(cmd *cobra.Command, args []string) error {
	p, err := cli.NewPrinter(cmd)
	if err != nil {
		return err
	}
	env, err := cli.Bootstrap(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	ctx := cmd.Context()
	sel, err := env.Tenant(ctx)
	if err != nil {
		return err
	}

	ed := review.NewEditor(sel.Client,
		review.WithLogger(env.Logger),
		review.WithBus(env.Bus),
		review.WithDefaultTime(env.Config.Review.DefaultTime),
	)
	defer ed.Close()
	if err := ed.Open(ctx, args[0]); err != nil {
		return err
	}

	if cmd.Flags().Changed("text") {
		if err := ed.EditText(scheduleText); err != nil {
			return err
		}
	}
	if scheduleDate != "" {
		d, err := review.ParseDate(scheduleDate)
		if err != nil {
			return err
		}
		if err := ed.SetDate(d); err != nil {
			return err
		}
	}
	if scheduleTime != "" {
		if err := ed.SetTime(scheduleTime); err != nil {
			return err
		}
	}

	updated, err := ed.Approve(ctx)
	if err != nil {
		return err
	}
	return p.Print(updated, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "Scheduled %s for %s\n", updated.ID, formatPublishAt(updated.PublishAt))
		return err
	})
}

func runReject(cmd *cobra.Command, args []string) error {
	p, err := cli.NewPrinter(cmd)
	if err != nil {
		return err
	}
	env, err := cli.Bootstrap(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	ctx := cmd.Context()
	sel, err := env.Tenant(ctx)
	if err != nil {
		return err
	}

	ed := review.NewEditor(sel.Client, review.WithLogger(env.Logger), review.WithBus(env.Bus))
	defer ed.Close()
	if err := ed.Open(ctx, args[0]); err != nil {
		return err
	}
	updated, err := ed.Reject(ctx)
	if err != nil {
		return err
	}
	return p.Print(updated, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "Rejected %s\n", updated.ID)
		return err
	})
}

func formatPublishAt(at *time.Time) string {
	if at == nil {
		return "-"
	}
	return at.Local().Format("2006-01-02 15:04")
}

func printPost(w io.Writer, post model.Post, form review.Form) {
	fmt.Fprintf(w, "ID:      %s\n", post.ID)
	fmt.Fprintf(w, "Status:  %s\n", post.Status)
	if post.PublishAt != nil {
		fmt.Fprintf(w, "Publish: %s\n", formatPublishAt(post.PublishAt))
	} else if form.HasDate() {
		fmt.Fprintf(w, "Publish: not set (suggested %s %s)\n", form.DateString(), form.Time)
	}
	if len(post.Images) > 0 {
		names := make([]string, len(post.Images))
		for i, img := range post.Images {
			names[i] = img.FileName
		}
		fmt.Fprintf(w, "Images:  %s\n", strings.Join(names, ", "))
	}
	if post.ReadOnly() {
		fmt.Fprintln(w, "This post is published and can no longer be changed.")
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, util.Wrap(post.Text, 72))
}
