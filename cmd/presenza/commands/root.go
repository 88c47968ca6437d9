package commands

import (
	"encoding/json"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/presenza-ai/presenza/pkg/config"
	"github.com/presenza-ai/presenza/pkg/identity"
	"github.com/presenza-ai/presenza/pkg/printstore"
)

var (
	configPath   string
	formatOutput string
)

var rootCmd = &cobra.Command{
	Use:   "presenza",
	Short: "Speaker and face identity engine",
	Long: `presenza — who is talking, and how sure are we.

Commands:
  users     Inspect and manage registered users
  enroll    Register a new user from embedding files
  simulate  Run recognition turns from a scenario file
  config    Validate and show configuration
  version   Version information

Examples:
  presenza users list
  presenza enroll --name "maria lopez" --voice v1.yaml --voice v2.yaml --voice v3.yaml
  presenza simulate -f scenario.yaml
  presenza config validate`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&formatOutput, "format", "table", "output format: table, json")
}

// testStoreOverride is set during tests to share a store across commands.
var testStoreOverride printstore.Store

// loadConfig loads the effective configuration for this invocation.
func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}

// openStore opens the template store from the current configuration.
func openStore(cfg *config.Config) (printstore.Store, error) {
	if testStoreOverride != nil {
		return testStoreOverride, nil
	}
	return printstore.NewBadger(printstore.BadgerOptions{
		Options: &printstore.Options{
			MaxVoiceprintsPerUser: cfg.Policy.MaxVoiceprintsPerUser,
			MaxFaceprintsPerUser:  cfg.Policy.MaxFaceprintsPerUser,
		},
		Dir:      cfg.Store.Dir,
		InMemory: cfg.Store.InMemory,
	})
}

// closeStore closes s unless it is the shared test override.
func closeStore(s printstore.Store) {
	if s != testStoreOverride {
		s.Close()
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Certainty badge styling for terminal output.
var certaintyStyles = map[identity.Certainty]lipgloss.Style{
	identity.CertaintyStrong:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff9f")),
	identity.CertaintyWeak:    lipgloss.NewStyle().Foreground(lipgloss.Color("#ffcc00")),
	identity.CertaintyUnknown: lipgloss.NewStyle().Foreground(lipgloss.Color("#6e7681")),
}

func certaintyBadge(c identity.Certainty) string {
	if style, ok := certaintyStyles[c]; ok {
		return style.Render(string(c))
	}
	return string(c)
}
