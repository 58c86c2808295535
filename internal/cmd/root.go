package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/somesimplify/somectl/internal/cmd/cli"
	"github.com/somesimplify/somectl/internal/cmd/images"
	"github.com/somesimplify/somectl/internal/cmd/onboarding"
	"github.com/somesimplify/somectl/internal/cmd/posts"
	"github.com/somesimplify/somectl/internal/cmd/workspace"
	"github.com/somesimplify/somectl/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "somectl",
	Short: "Plan, review and schedule social media posts",
	Long: `somectl is a terminal client for the social media scheduling backend.

It resolves your account, remembers the workspace (tenant) you work in,
shows the publishing calendar and lets you review, approve and reject the
drafts generated for you. Run without arguments in a terminal to open the
interactive UI.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/somectl/config.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	rootCmd.PersistentFlags().StringP(cli.FlagOutput, "o", cli.FormatTable, "output format: "+strings.Join(cli.Formats(), ", "))
	rootCmd.PersistentFlags().String(cli.FlagTenant, "", "act on this tenant ID for one command without changing the stored selection")

	workspace.Register(rootCmd)
	posts.Register(rootCmd)
	images.Register(rootCmd)
	onboarding.Register(rootCmd)
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath("$HOME/.config/somectl")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("SOMECTL")
	// Replace dots with underscores for nested keys in env vars
	// e.g., SOMECTL_AUTH_TOKEN for auth.token
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}

func runRoot(cmd *cobra.Command, args []string) error {
	if !cli.IsTerminal(cmd.OutOrStdout()) {
		return cmd.Help()
	}
	return runUI(cmd, args)
}
