package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/somesimplify/somectl/internal/cmd/cli"
	"github.com/somesimplify/somectl/internal/tui"
)

var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Open the interactive calendar and review queue",
	Long: `Open the terminal UI. It resolves your session and workspace, then shows
the publishing calendar for the current month. From the calendar you can
open the review queue to approve or reject generated drafts.`,
	Args: cobra.NoArgs,
	RunE: runUI,
}

func init() {
	rootCmd.AddCommand(uiCmd)
}

func runUI(cmd *cobra.Command, args []string) error {
	if !cli.IsTerminal(cmd.OutOrStdout()) {
		return fmt.Errorf("the interactive UI needs a terminal; use the posts, review and images commands instead")
	}

	env, err := cli.Bootstrap(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	app := tui.New(tui.Deps{
		Identity: env.Identity,
		Tenants:  env.Tenants,
		Bus:      env.Bus,
		Logger:   env.Logger,
		Config:   env.Config,
	})
	env.Logger.Info("somectl ui started")
	if err := app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
