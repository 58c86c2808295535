// Package onboarding provides the CLI commands for the two onboarding
// steps: the business profile and the Instagram connection.
package onboarding

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/somesimplify/somectl/internal/api"
	"github.com/somesimplify/somectl/internal/cmd/cli"
	"github.com/somesimplify/somectl/internal/errors"
	"github.com/somesimplify/somectl/internal/model"
)

var instagramCmd = &cobra.Command{
	Use:     "instagram",
	Aliases: []string{"ig"},
	Short:   "Connect the workspace to Instagram",
}

var instagramStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the Instagram connection",
	Args:  cobra.NoArgs,
	RunE:  runInstagramStatus,
}

var instagramConnectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Print the link that connects an Instagram account",
	Long: `Print the authorization link for Instagram. Open it in a browser and
approve access; the connection shows up in 'somectl instagram status'
once Instagram redirects back.`,
	Args: cobra.NoArgs,
	RunE: runInstagramConnect,
}

var instagramDisconnectCmd = &cobra.Command{
	Use:   "disconnect",
	Short: "Remove the Instagram connection",
	Args:  cobra.NoArgs,
	RunE:  runInstagramDisconnect,
}

// RegisterInstagramCmd registers the instagram command group with the given parent command.
func RegisterInstagramCmd(parent *cobra.Command) {
	instagramCmd.AddCommand(instagramStatusCmd, instagramConnectCmd, instagramDisconnectCmd)
	parent.AddCommand(instagramCmd)
}

type connectionOutput struct {
	Connected       bool       `json:"connected" yaml:"connected"`
	AccountName     string     `json:"accountName,omitempty" yaml:"account_name,omitempty"`
	LastPublishedAt *time.Time `json:"lastPublishedAt,omitempty" yaml:"last_published_at,omitempty"`
	LastError       string     `json:"lastError,omitempty" yaml:"last_error,omitempty"`
}

func tenantClient(cmd *cobra.Command) (*cli.Env, *api.TenantClient, error) {
	env, err := cli.Bootstrap(cmd)
	if err != nil {
		return nil, nil, err
	}
	sel, err := env.Tenant(cmd.Context())
	if err != nil {
		env.Close()
		return nil, nil, err
	}
	return env, sel.Client, nil
}

func runInstagramStatus(cmd *cobra.Command, args []string) error {
	p, err := cli.NewPrinter(cmd)
	if err != nil {
		return err
	}
	env, client, err := tenantClient(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	conn, err := client.InstagramConnection(cmd.Context())
	if err != nil {
		return errors.NewReadError("load", "instagram connection", err)
	}
	out := newConnectionOutput(conn)
	return p.Print(out, func(w io.Writer) error {
		printConnection(w, out)
		return nil
	})
}

func runInstagramConnect(cmd *cobra.Command, args []string) error {
	env, client, err := tenantClient(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	ctx := cmd.Context()
	conn, err := client.InstagramConnection(ctx)
	if err != nil {
		return errors.NewReadError("load", "instagram connection", err)
	}
	w := cmd.OutOrStdout()
	if conn != nil {
		fmt.Fprintf(w, "Already connected to @%s. Run 'somectl instagram disconnect' first to switch accounts.\n", conn.AccountName)
		return nil
	}

	authURL, err := client.InstagramAuthURL(ctx)
	if err != nil {
		return errors.NewReadError("load", "instagram authorization link", err)
	}
	env.Logger.Info("instagram authorization requested", "tenant", client.TenantID())
	fmt.Fprintln(w, "Open this link in a browser to connect Instagram:")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", authURL)
	return nil
}

func runInstagramDisconnect(cmd *cobra.Command, args []string) error {
	env, client, err := tenantClient(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	if err := client.DisconnectInstagram(cmd.Context()); err != nil {
		return errors.NewMutationError("disconnect", "instagram connection", client.TenantID(), err)
	}
	env.Logger.Info("instagram disconnected", "tenant", client.TenantID())
	fmt.Fprintln(cmd.OutOrStdout(), "Instagram disconnected.")
	return nil
}

func newConnectionOutput(conn *model.SocialConnection) connectionOutput {
	if conn == nil {
		return connectionOutput{}
	}
	return connectionOutput{
		Connected:       true,
		AccountName:     conn.AccountName,
		LastPublishedAt: conn.LastPublishedAt,
		LastError:       conn.LastError,
	}
}

func printConnection(w io.Writer, out connectionOutput) {
	if !out.Connected {
		fmt.Fprintln(w, "Instagram: not connected (run 'somectl instagram connect')")
		return
	}
	fmt.Fprintf(w, "Instagram: connected as @%s\n", out.AccountName)
	if out.LastPublishedAt != nil {
		fmt.Fprintf(w, "Last post: %s\n", humanize.Time(*out.LastPublishedAt))
	}
	if out.LastError != "" {
		fmt.Fprintf(w, "Last error: %s\n", out.LastError)
	}
}
