package posts

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/somesimplify/somectl/internal/cmd/cli"
	"github.com/somesimplify/somectl/internal/model"
	"github.com/somesimplify/somectl/internal/review"
	"github.com/somesimplify/somectl/internal/util"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Work through the drafts waiting for review",
	Long: `Show the review queue: every draft generated for the workspace, with the
date and time it would be scheduled for.

With --approve or --reject the draft at --index (default: the first) is
approved or rejected. Approving uses the backend's suggested date unless
--date is given, and review.default_time unless --time is given.

Examples:
  somectl review
  somectl review --approve --date 2025-06-12 --time 09:30
  somectl review --index 2 --reject`,
	Args: cobra.NoArgs,
	RunE: runReview,
}

var (
	reviewIndex   int
	reviewApprove bool
	reviewReject  bool
	reviewDate    string
	reviewTime    string
	reviewText    string
)

func init() {
	reviewCmd.Flags().IntVar(&reviewIndex, "index", 1, "position in the queue of the draft to act on (1-based)")
	reviewCmd.Flags().BoolVar(&reviewApprove, "approve", false, "approve the draft")
	reviewCmd.Flags().BoolVar(&reviewReject, "reject", false, "reject the draft")
	reviewCmd.Flags().StringVar(&reviewDate, "date", "", "publish date when approving (YYYY-MM-DD)")
	reviewCmd.Flags().StringVar(&reviewTime, "time", "", "publish time when approving (HH:MM)")
	reviewCmd.Flags().StringVar(&reviewText, "text", "", "replace the draft text when approving")
	reviewCmd.MarkFlagsMutuallyExclusive("approve", "reject")
}

// RegisterReviewCmd registers the review command with the given parent command.
func RegisterReviewCmd(parent *cobra.Command) {
	parent.AddCommand(reviewCmd)
}

type queueEntry struct {
	Index int    `json:"index" yaml:"index"`
	ID    string `json:"id" yaml:"id"`
	Text  string `json:"text" yaml:"text"`
}

type QueueOutput struct {
	Drafts        []queueEntry `json:"drafts" yaml:"drafts"`
	Date          string       `json:"date,omitempty" yaml:"date,omitempty"`
	Time          string       `json:"time" yaml:"time"`
	SuggestedDate bool         `json:"suggestedDate" yaml:"suggested_date"`
}

func runReview(cmd *cobra.Command, args []string) error {
	p, err := cli.NewPrinter(cmd)
	if err != nil {
		return err
	}
	if reviewIndex < 1 {
		return fmt.Errorf("--index must be at least 1")
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

	ctrl := review.NewController(sel.Client,
		review.WithLogger(env.Logger),
		review.WithBus(env.Bus),
		review.WithDefaultTime(env.Config.Review.DefaultTime),
	)
	defer ctrl.Close()

	if err := ctrl.Load(ctx); err != nil {
		return err
	}
	snap := ctrl.Snapshot()

	if !reviewApprove && !reviewReject {
		return printQueue(p, ctrl)
	}
	if snap.State == review.StateEmpty {
		return fmt.Errorf("there are no drafts waiting for review")
	}
	if reviewIndex > snap.Len {
		return fmt.Errorf("--index %d is out of range; the queue has %s", reviewIndex, util.Plural(snap.Len, "draft", "drafts"))
	}
	ctrl.Navigate(reviewIndex - 1)

	var updated model.Post
	if reviewReject {
		if updated, err = ctrl.Reject(ctx); err != nil {
			return err
		}
	} else {
		if err := applyForm(cmd, ctrl); err != nil {
			return err
		}
		if updated, err = ctrl.Approve(ctx); err != nil {
			return err
		}
	}

	remaining := ctrl.Snapshot().Len
	return p.Print(updated, func(w io.Writer) error {
		if reviewReject {
			fmt.Fprintf(w, "Rejected %s\n", updated.ID)
		} else {
			fmt.Fprintf(w, "Scheduled %s for %s\n", updated.ID, formatPublishAt(updated.PublishAt))
		}
		_, err := fmt.Fprintf(w, "%s left to review\n", util.Plural(remaining, "draft", "drafts"))
		return err
	})
}

func applyForm(cmd *cobra.Command, ctrl *review.Controller) error {
	if cmd.Flags().Changed("text") {
		if err := ctrl.EditText(reviewText); err != nil {
			return err
		}
	}
	if reviewDate != "" {
		d, err := review.ParseDate(reviewDate)
		if err != nil {
			return err
		}
		ctrl.SetDate(d)
	}
	if reviewTime != "" {
		if err := ctrl.SetTime(reviewTime); err != nil {
			return err
		}
	}
	return nil
}

// printQueue lists every draft in the queue. The controller's cursor is
// walked through the queue so each entry shows its locally edited text.
func printQueue(p *cli.Printer, ctrl *review.Controller) error {
	snap := ctrl.Snapshot()
	out := QueueOutput{
		Drafts:        []queueEntry{},
		Date:          snap.Form.DateString(),
		Time:          snap.Form.Time,
		SuggestedDate: snap.Suggested,
	}
	for i := range snap.Len {
		ctrl.Navigate(i - ctrl.Snapshot().Cursor)
		cur := ctrl.Snapshot().Current
		out.Drafts = append(out.Drafts, queueEntry{Index: i + 1, ID: cur.ID, Text: cur.Text})
	}

	return p.Print(out, func(w io.Writer) error {
		if len(out.Drafts) == 0 {
			_, err := fmt.Fprintln(w, "All caught up: there are no drafts waiting for review.")
			return err
		}
		rows := make([][]string, len(out.Drafts))
		for i, d := range out.Drafts {
			rows[i] = []string{fmt.Sprint(d.Index), d.ID, util.Excerpt(d.Text, excerptWidth)}
		}
		if err := cli.Table(w, []string{"#", "ID", "TEXT"}, rows); err != nil {
			return err
		}
		when := out.Date + " " + out.Time
		if out.SuggestedDate {
			when += " (suggested)"
		}
		_, err := fmt.Fprintf(w, "%s waiting. Approving now schedules for %s\n", util.Plural(len(out.Drafts), "draft", "drafts"), when)
		return err
	})
}
