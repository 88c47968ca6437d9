package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/presenza-ai/presenza/pkg/identity"
)

var simulateFile string

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run recognition turns from a scenario file",
	Long: `Run the fusion policy over scripted turns and print each decision.

The scenario file describes what the providers would report per turn:

  turns:
    - voice: {user: alice, score: 0.82}
      faces:
        - {user: alice, score: 0.50, det_score: 0.97}
    - voice: {score: 0.30}
      faces: []
    - wait_s: 120      # advance the session clock before this turn
      voice: {}
      faces: []

The policy, thresholds, and cooldown come from the active config, so a
scenario doubles as a tuning harness: adjust thresholds, re-run, diff
the decisions.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(simulateFile)
		if err != nil {
			return err
		}
		var sc scenario
		if err := yaml.Unmarshal(data, &sc); err != nil {
			return fmt.Errorf("parse scenario %s: %w", simulateFile, err)
		}
		if len(sc.Turns) == 0 {
			return fmt.Errorf("scenario %s has no turns", simulateFile)
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		results, err := runScenario(cmd.Context(), sc, cfg.PolicyConfig())
		if err != nil {
			return err
		}

		if formatOutput == "json" {
			return printJSON(results)
		}
		for i, r := range results {
			who := r.Decision.UserID
			if who == "" {
				who = "(unknown)"
			}
			fmt.Printf("turn %d: %s via=%s conf=%.2f %s\n",
				i+1, who, r.Decision.Via, r.Decision.Confidence,
				certaintyBadge(r.Decision.Certainty))
			for _, a := range r.Decision.Actions {
				fmt.Printf("    %s %v\n", a.Kind, a.Payload)
			}
		}
		return nil
	},
}

// scenario is the YAML document consumed by simulate.
type scenario struct {
	Turns []scenarioTurn `yaml:"turns"`
}

type scenarioTurn struct {
	// WaitSeconds advances the simulated clock before this turn.
	WaitSeconds int `yaml:"wait_s"`

	Voice scenarioMatch  `yaml:"voice"`
	Faces []scenarioFace `yaml:"faces"`
}

type scenarioMatch struct {
	User  string  `yaml:"user"`
	Score float32 `yaml:"score"`
}

type scenarioFace struct {
	User     string  `yaml:"user"`
	Score    float32 `yaml:"score"`
	DetScore float32 `yaml:"det_score"`
}

// turnResult pairs a turn's decision with its input for output.
type turnResult struct {
	Turn     scenarioTurn      `json:"turn"`
	Decision identity.Decision `json:"decision"`
}

// runScenario feeds the scripted turns through the real orchestrator so
// the output reflects the actual fusion and action-planning code paths.
func runScenario(ctx context.Context, sc scenario, cfg identity.PolicyConfig) ([]turnResult, error) {
	sp := &scenarioProviders{}
	clock := &simClock{at: time.Now()}
	sess := identity.NewSessionWithClock(clock.Now)

	orch, err := identity.NewOrchestrator(identity.Providers{
		Voice:      sp,
		VoiceMatch: sp,
		Faces:      sp,
		FaceMatch:  sp,
	}, cfg, sess)
	if err != nil {
		return nil, err
	}

	results := make([]turnResult, 0, len(sc.Turns))
	for _, turn := range sc.Turns {
		clock.Advance(time.Duration(turn.WaitSeconds) * time.Second)
		sp.turn = turn
		dec, err := orch.IdentifyTurn(ctx, nil, identity.Frame{})
		if err != nil {
			return nil, err
		}
		results = append(results, turnResult{Turn: turn, Decision: dec})
	}
	return results, nil
}

type simClock struct {
	at time.Time
}

func (c *simClock) Advance(d time.Duration) { c.at = c.at.Add(d) }
func (c *simClock) Now() time.Time          { return c.at }

// scenarioProviders implements all orchestrator provider roles from the
// current scripted turn. Face detections are tagged with their index in
// the embedding so the match step can find the scripted score.
type scenarioProviders struct {
	turn scenarioTurn
}

func (p *scenarioProviders) ExtractVoice(ctx context.Context, audio []byte) ([]float32, error) {
	return []float32{1}, nil
}

func (p *scenarioProviders) MatchVoice(ctx context.Context, emb []float32) (string, float32, error) {
	return p.turn.Voice.User, p.turn.Voice.Score, nil
}

func (p *scenarioProviders) ExtractFaces(ctx context.Context, frame identity.Frame) ([]identity.Detection, error) {
	dets := make([]identity.Detection, len(p.turn.Faces))
	for i, f := range p.turn.Faces {
		dets[i] = identity.Detection{
			Embedding: []float32{float32(i)},
			DetScore:  f.DetScore,
		}
	}
	return dets, nil
}

func (p *scenarioProviders) MatchFace(ctx context.Context, emb []float32) (string, float32, error) {
	i := int(emb[0])
	if i < 0 || i >= len(p.turn.Faces) {
		return "", 0, nil
	}
	f := p.turn.Faces[i]
	return f.User, f.Score, nil
}

func init() {
	simulateCmd.Flags().StringVarP(&simulateFile, "file", "f", "", "scenario file (required)")
	simulateCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(simulateCmd)
}
