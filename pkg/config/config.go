// Package config loads engine configuration from a YAML file with
// environment-variable overrides.
//
// The file is searched in order: the explicit path given to [Load], the
// $PRESENZA_CONFIG path, ./config/presenza.yaml, ~/.presenza/config.yaml.
// A missing file is not an error — defaults apply — but an unreadable or
// invalid one is. Threshold misconfiguration is caught here, at load
// time, rather than on every recognition turn.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/presenza-ai/presenza/pkg/identity"
)

// EnvConfigPath overrides the config file location.
const EnvConfigPath = "PRESENZA_CONFIG"

// Config is the root configuration document.
type Config struct {
	Policy  Policy  `yaml:"policy"`
	Store   Store   `yaml:"store"`
	Samples Samples `yaml:"samples"`
}

// Policy mirrors identity.PolicyConfig in YAML-friendly form.
type Policy struct {
	VoiceOK          float32 `yaml:"voice_ok"`
	VoiceStrong      float32 `yaml:"voice_strong"`
	FaceOK           float32 `yaml:"face_ok"`
	FaceStrong       float32 `yaml:"face_strong"`
	StoreVoiceMinSim float32 `yaml:"store_voice_min_sim"`
	StoreFaceMinSim  float32 `yaml:"store_face_min_sim"`

	// AskNameCooldownSeconds spaces out name prompts to strangers.
	AskNameCooldownSeconds int `yaml:"ask_name_cooldown_s"`

	MaxVoiceprintsPerUser int `yaml:"max_voiceprints_per_user"`
	MaxFaceprintsPerUser  int `yaml:"max_faceprints_per_user"`

	AskNamePrompt string `yaml:"ask_name_prompt"`
	AskNameLang   string `yaml:"ask_name_lang"`
}

// Store configures the template store backend.
type Store struct {
	// Dir is the BadgerDB data directory.
	Dir string `yaml:"dir"`

	// InMemory runs the store without persistence.
	InMemory bool `yaml:"in_memory"`
}

// Samples configures the raw-sample archive.
type Samples struct {
	// Backend selects the archive implementation: "local" or "s3".
	// Empty disables archiving.
	Backend string `yaml:"backend"`

	// Dir is the local backend's root directory.
	Dir string `yaml:"dir"`

	// Bucket and Prefix configure the s3 backend.
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	p := identity.DefaultPolicyConfig()
	return &Config{
		Policy: Policy{
			VoiceOK:                p.VoiceOK,
			VoiceStrong:            p.VoiceStrong,
			FaceOK:                 p.FaceOK,
			FaceStrong:             p.FaceStrong,
			StoreVoiceMinSim:       p.StoreVoiceMinSim,
			StoreFaceMinSim:        p.StoreFaceMinSim,
			AskNameCooldownSeconds: int(p.AskNameCooldown / time.Second),
			MaxVoiceprintsPerUser:  p.MaxVoiceprintsPerUser,
			MaxFaceprintsPerUser:   p.MaxFaceprintsPerUser,
			AskNamePrompt:          p.AskNamePrompt,
			AskNameLang:            p.AskNameLang,
		},
		Store: Store{Dir: defaultStoreDir()},
	}
}

// Load reads configuration from path, or from the first candidate
// location if path is empty, applies env overrides, and validates the
// resulting policy.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = findConfig()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		case explicit:
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.PolicyConfig().Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// PolicyConfig converts the YAML policy section to the engine's form.
func (c *Config) PolicyConfig() identity.PolicyConfig {
	return identity.PolicyConfig{
		VoiceOK:               c.Policy.VoiceOK,
		VoiceStrong:           c.Policy.VoiceStrong,
		FaceOK:                c.Policy.FaceOK,
		FaceStrong:            c.Policy.FaceStrong,
		StoreVoiceMinSim:      c.Policy.StoreVoiceMinSim,
		StoreFaceMinSim:       c.Policy.StoreFaceMinSim,
		AskNameCooldown:       time.Duration(c.Policy.AskNameCooldownSeconds) * time.Second,
		MaxVoiceprintsPerUser: c.Policy.MaxVoiceprintsPerUser,
		MaxFaceprintsPerUser:  c.Policy.MaxFaceprintsPerUser,
		AskNamePrompt:         c.Policy.AskNamePrompt,
		AskNameLang:           c.Policy.AskNameLang,
	}
}

// findConfig returns the first existing candidate path, or "".
func findConfig() string {
	var candidates []string
	if p := os.Getenv(EnvConfigPath); p != "" {
		candidates = append(candidates, p)
	}
	candidates = append(candidates, filepath.Join("config", "presenza.yaml"))
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".presenza", "config.yaml"))
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// applyEnv applies the environment overrides documented per field.
func applyEnv(cfg *Config) {
	if v := os.Getenv("PRESENZA_STORE_DIR"); v != "" {
		cfg.Store.Dir = v
	}
	if v := os.Getenv("PRESENZA_SAMPLES_DIR"); v != "" {
		cfg.Samples.Dir = v
		if cfg.Samples.Backend == "" {
			cfg.Samples.Backend = "local"
		}
	}
	if v := os.Getenv("PRESENZA_LANG"); v != "" {
		cfg.Policy.AskNameLang = v
	}
}

func defaultStoreDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".presenza", "store")
	}
	return filepath.Join(".presenza", "store")
}
