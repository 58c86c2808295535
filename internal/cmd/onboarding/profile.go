package onboarding

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/somesimplify/somectl/internal/cmd/cli"
	"github.com/somesimplify/somectl/internal/errors"
	"github.com/somesimplify/somectl/internal/model"
	"github.com/somesimplify/somectl/internal/profile"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show or update the workspace's business profile",
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the business profile and onboarding progress",
	Args:  cobra.NoArgs,
	RunE:  runProfileShow,
}

var profileSetCmd = &cobra.Command{
	Use:   "set --file <profile.yaml>",
	Short: "Save the business profile from a YAML file",
	Long: `Save the business profile from a YAML file. Every field is checked
before anything is sent and all problems are listed together.

Example file:

  address: Storgata 1, 0155 Oslo
  concept: Bakeri
  target_audience: [Studenter, Turister]
  website_url: https://example.no`,
	Args: cobra.NoArgs,
	RunE: runProfileSet,
}

var profileFile string

func init() {
	profileSetCmd.Flags().StringVarP(&profileFile, "file", "f", "", "YAML file holding the profile")
	_ = profileSetCmd.MarkFlagRequired("file")
}

// RegisterProfileCmd registers the profile command group with the given parent command.
func RegisterProfileCmd(parent *cobra.Command) {
	profileCmd.AddCommand(profileShowCmd, profileSetCmd)
	parent.AddCommand(profileCmd)
}

type profileOutput struct {
	Profile    model.TenantProfile `json:"profile" yaml:"profile"`
	Onboarding onboardingOutput    `json:"onboarding" yaml:"onboarding"`
}

type onboardingOutput struct {
	ProfileComplete    bool `json:"profileComplete" yaml:"profile_complete"`
	InstagramConnected bool `json:"instagramConnected" yaml:"instagram_connected"`
}

func runProfileShow(cmd *cobra.Command, args []string) error {
	p, err := cli.NewPrinter(cmd)
	if err != nil {
		return err
	}
	env, client, err := tenantClient(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	prof, status, err := profile.Load(cmd.Context(), client)
	if err != nil {
		return err
	}
	out := profileOutput{
		Profile: prof,
		Onboarding: onboardingOutput{
			ProfileComplete:    status.ProfileComplete,
			InstagramConnected: status.InstagramConnected,
		},
	}
	return p.Print(out, func(w io.Writer) error {
		printProfile(w, prof)
		fmt.Fprintln(w)
		printOnboarding(w, status)
		return nil
	})
}

func runProfileSet(cmd *cobra.Command, args []string) error {
	p, err := cli.NewPrinter(cmd)
	if err != nil {
		return err
	}
	prof, err := profile.ReadFile(profileFile)
	if err != nil {
		return err
	}
	if problems := profile.Validate(profile.Normalize(prof)); len(problems) > 0 {
		w := cmd.ErrOrStderr()
		fmt.Fprintf(w, "%s has %d problem(s):\n", profileFile, len(problems))
		for _, v := range problems {
			fmt.Fprintf(w, "  %s: %s\n", v.Field, v.Message())
		}
		return errors.NewValidationError("profile was not saved")
	}

	env, client, err := tenantClient(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	saved, err := profile.Save(cmd.Context(), client, prof)
	if err != nil {
		return err
	}
	env.Logger.Info("profile saved", "tenant", client.TenantID())
	return p.Print(saved, func(w io.Writer) error {
		fmt.Fprintln(w, "Profile saved.")
		printProfile(w, saved)
		return nil
	})
}

func printProfile(w io.Writer, p model.TenantProfile) {
	concept := p.Concept
	if concept == profile.Other && p.ConceptOther != "" {
		concept = p.ConceptOther
	}
	audience := strings.Join(p.TargetAudience, ", ")
	if p.TargetAudienceOther != "" {
		audience += " (" + p.TargetAudienceOther + ")"
	}
	fmt.Fprintf(w, "Address:  %s\n", orDash(p.Address))
	fmt.Fprintf(w, "Concept:  %s\n", orDash(concept))
	fmt.Fprintf(w, "Audience: %s\n", orDash(audience))
	fmt.Fprintf(w, "Website:  %s\n", orDash(p.WebsiteURL))
}

func printOnboarding(w io.Writer, s model.OnboardingStatus) {
	check := func(done bool) string {
		if done {
			return "✓"
		}
		return "✗"
	}
	fmt.Fprintf(w, "%s 1. Business profile\n", check(s.ProfileComplete))
	fmt.Fprintf(w, "%s 2. Instagram connected\n", check(s.InstagramConnected))
	if s.Done() {
		fmt.Fprintln(w, "Onboarding complete.")
	}
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
