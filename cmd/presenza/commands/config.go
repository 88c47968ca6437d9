package commands

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/presenza-ai/presenza/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Validate and show configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if formatOutput == "json" {
			return printJSON(cfg)
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		os.Stdout.Write(data)
		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Check a configuration file for errors",
	Long: `Check a configuration file for parse errors and threshold
misconfiguration. With no argument, validates whatever configuration
the current environment resolves to.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if len(args) == 1 {
			path = args[0]
		}
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		// Load already validated thresholds; report what was resolved.
		fmt.Printf("ok: voice %.2f/%.2f face %.2f/%.2f cooldown %ds\n",
			cfg.Policy.VoiceOK, cfg.Policy.VoiceStrong,
			cfg.Policy.FaceOK, cfg.Policy.FaceStrong,
			cfg.Policy.AskNameCooldownSeconds)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
	rootCmd.AddCommand(configCmd)
}
