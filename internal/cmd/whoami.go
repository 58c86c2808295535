package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/somesimplify/somectl/internal/cmd/cli"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	Long: `Resolve the session for the configured bearer token and show who it
belongs to. When the backend knows the identity but no account has been
provisioned yet, the registration link is shown instead.`,
	Args: cobra.NoArgs,
	RunE: runWhoami,
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}

type whoamiOutput struct {
	ID     string `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	Email  string `json:"email" yaml:"email"`
	Tenant string `json:"tenant,omitempty" yaml:"tenant,omitempty"`
}

func runWhoami(cmd *cobra.Command, args []string) error {
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
	session, err := env.Session(ctx)
	if err != nil {
		return err
	}
	current, err := env.Tenants.Current(ctx)
	if err != nil {
		env.Logger.Warn("failed to read stored tenant", "error", err.Error())
	}

	out := whoamiOutput{ID: session.UserID, Name: session.DisplayName(), Email: session.Email, Tenant: current}
	return p.Print(out, func(w io.Writer) error {
		fmt.Fprintf(w, "Signed in as %s <%s>\n", out.Name, out.Email)
		fmt.Fprintf(w, "User ID: %s\n", out.ID)
		if out.Tenant != "" {
			fmt.Fprintf(w, "Workspace: %s\n", out.Tenant)
		} else {
			fmt.Fprintln(w, "Workspace: (none selected)")
		}
		return nil
	})
}
