package commands

import (
	"bytes"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/presenza-ai/presenza/pkg/config"
	"github.com/presenza-ai/presenza/pkg/identity"
	"github.com/presenza-ai/presenza/pkg/printstore"
	"github.com/presenza-ai/presenza/pkg/samplebank"
)

var (
	enrollName    string
	enrollLang    string
	enrollVoice   []string
	enrollFace    []string
	enrollPartial bool
)

var enrollCmd = &cobra.Command{
	Use:   "enroll",
	Short: "Register a new user from embedding files",
	Long: `Register a new user from pre-extracted embedding files.

Each --voice/--face file holds one embedding as a YAML/JSON array of
numbers. Three samples per modality are required unless --partial is
given. The display name is derived the same way the live engine derives
it from a spoken reply (first two alphabetic words, title-cased).

Examples:
  presenza enroll --name "maria lopez" \
    --voice v1.yaml --voice v2.yaml --voice v3.yaml \
    --face f1.yaml --face f2.yaml --face f3.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		enroll := identity.NewEnrollment()
		name, ok := enroll.Start(enrollName)
		if !ok {
			return fmt.Errorf("no usable name in %q", enrollName)
		}

		for _, path := range enrollVoice {
			emb, err := readEmbedding(path)
			if err != nil {
				return err
			}
			enroll.AddVoice(emb)
		}
		for _, path := range enrollFace {
			emb, err := readEmbedding(path)
			if err != nil {
				return err
			}
			enroll.AddFace(emb)
		}

		if !enroll.Done() && !enrollPartial {
			return fmt.Errorf("enrollment for %q incomplete: need %d samples per modality (got %d voice, %d face); use --partial to register anyway",
				name, identity.DefaultSamplesNeeded, len(enrollVoice), len(enrollFace))
		}
		_, voice, face := enroll.Finish()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer closeStore(store)

		exec := printstore.NewExecutor(store, nil)
		u, err := exec.RegisterEnrollment(cmd.Context(), name, enrollLang, voice, face)
		if err != nil {
			return err
		}

		if err := archiveSamples(cmd, cfg.Samples, u.ID); err != nil {
			return err
		}

		if formatOutput == "json" {
			return printJSON(u)
		}
		fmt.Printf("Registered %s (%s): %d voiceprints, %d faceprints\n",
			u.DisplayName, u.ID, len(voice), len(face))
		return nil
	},
}

// archiveSamples stores the raw embedding files in the configured
// sample bank, if any.
func archiveSamples(cmd *cobra.Command, cfg config.Samples, userID string) error {
	if cfg.Backend != "local" {
		// The s3 backend needs a configured client; the CLI only
		// archives locally.
		return nil
	}
	bank, err := samplebank.NewLocal(cfg.Dir)
	if err != nil {
		return err
	}
	put := func(paths []string, modality string) error {
		for _, path := range paths {
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			if _, err := bank.Put(cmd.Context(), userID, modality, bytes.NewReader(data)); err != nil {
				return err
			}
		}
		return nil
	}
	if err := put(enrollVoice, samplebank.ModalityVoice); err != nil {
		return err
	}
	return put(enrollFace, samplebank.ModalityFace)
}

// readEmbedding parses one embedding file: a YAML or JSON array of
// numbers.
func readEmbedding(path string) ([]float32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var emb []float32
	if err := yaml.Unmarshal(data, &emb); err != nil {
		return nil, fmt.Errorf("parse embedding %s: %w", path, err)
	}
	if len(emb) == 0 {
		return nil, fmt.Errorf("embedding %s is empty", path)
	}
	return emb, nil
}

func init() {
	enrollCmd.Flags().StringVar(&enrollName, "name", "", "spoken name to derive the display name from (required)")
	enrollCmd.Flags().StringVar(&enrollLang, "lang", "", "preferred locale code")
	enrollCmd.Flags().StringArrayVar(&enrollVoice, "voice", nil, "voice embedding file (repeatable)")
	enrollCmd.Flags().StringArrayVar(&enrollFace, "face", nil, "face embedding file (repeatable)")
	enrollCmd.Flags().BoolVar(&enrollPartial, "partial", false, "register even with fewer samples than required")
	enrollCmd.MarkFlagRequired("name")
	rootCmd.AddCommand(enrollCmd)
}
