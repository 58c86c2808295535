// Package workspace provides the CLI commands that list, select, create and
// forget the tenant (workspace) somectl acts on.
package workspace

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/somesimplify/somectl/internal/cmd/cli"
	"github.com/somesimplify/somectl/internal/model"
	"github.com/somesimplify/somectl/internal/tenant"
)

var tenantCmd = &cobra.Command{
	Use:     "tenant",
	Aliases: []string{"workspace", "tenants"},
	Short:   "Manage the workspace somectl acts on",
	Long: `A workspace (tenant) is the business whose posts, images and profile you
manage. The selected workspace is remembered between runs; every other
command acts on it unless --tenant is given.`,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the workspaces available to you",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var currentCmd = &cobra.Command{
	Use:   "current",
	Short: "Show the selected workspace",
	Args:  cobra.NoArgs,
	RunE:  runCurrent,
}

var selectCmd = &cobra.Command{
	Use:   "select <id>",
	Short: "Select the workspace to act on",
	Args:  cobra.ExactArgs(1),
	RunE:  runSelect,
}

var createCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a workspace and select it",
	Args:  cobra.ExactArgs(1),
	RunE:  runCreate,
}

var forgetCmd = &cobra.Command{
	Use:   "forget",
	Short: "Forget the selected workspace",
	Long: `Forget the stored workspace selection. The workspace itself is not
deleted; the next command that needs one asks you to select again.`,
	Args: cobra.NoArgs,
	RunE: runForget,
}

// RegisterTenantCmd registers the tenant command group with the given parent command.
func RegisterTenantCmd(parent *cobra.Command) {
	tenantCmd.AddCommand(listCmd, currentCmd, selectCmd, createCmd, forgetCmd)
	parent.AddCommand(tenantCmd)
}

type tenantRow struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Selected bool   `json:"selected" yaml:"selected"`
}

func runList(cmd *cobra.Command, args []string) error {
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
	if _, err := env.Session(ctx); err != nil {
		return err
	}
	tenants, err := env.Client.ListTenants(ctx)
	if err != nil {
		return fmt.Errorf("failed to list workspaces: %w", err)
	}
	current, _ := env.Tenants.Current(ctx)

	rows := make([]tenantRow, len(tenants))
	for i, t := range tenants {
		rows[i] = tenantRow{ID: t.ID, Name: t.Name, Selected: t.ID == current}
	}

	return p.Print(rows, func(w io.Writer) error {
		if len(rows) == 0 {
			_, err := fmt.Fprintln(w, "No workspaces yet. Create one with 'somectl tenant create <name>'.")
			return err
		}
		table := make([][]string, len(rows))
		for i, r := range rows {
			mark := ""
			if r.Selected {
				mark = "*"
			}
			table[i] = []string{mark, r.ID, r.Name}
		}
		return cli.Table(w, []string{"", "ID", "NAME"}, table)
	})
}

func runCurrent(cmd *cobra.Command, args []string) error {
	p, err := cli.NewPrinter(cmd)
	if err != nil {
		return err
	}
	env, err := cli.Bootstrap(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	sel, err := env.Tenant(cmd.Context())
	if err != nil {
		return err
	}
	return printSelection(p, sel)
}

func runSelect(cmd *cobra.Command, args []string) error {
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
	sel, err := env.Tenants.SelectID(ctx, session, args[0])
	if err != nil {
		return err
	}
	return printSelection(p, sel)
}

func runCreate(cmd *cobra.Command, args []string) error {
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
	sel, err := env.Tenants.Create(ctx, session, args[0])
	if err != nil {
		return err
	}
	return printSelection(p, sel)
}

func runForget(cmd *cobra.Command, args []string) error {
	env, err := cli.Bootstrap(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	if err := env.Tenants.Forget(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Workspace selection cleared.")
	return nil
}

func printSelection(p *cli.Printer, sel tenant.Selection) error {
	t := model.Tenant{ID: sel.Tenant.ID, Name: sel.Tenant.Name}
	return p.Print(t, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "Workspace: %s (%s)\n", t.Name, t.ID)
		return err
	})
}
