package automation

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/san-kum/verlet/internal/config"
	"github.com/san-kum/verlet/internal/dynamo"
	"github.com/san-kum/verlet/internal/experiment"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// Plan is a scripted batch of runs.
type Plan struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Steps       []Step `yaml:"steps"`
}

// Step is one run of a plan. Its config starts from Preset ("scenario/name")
// or from the defaults for Scenario, and Config is applied on top.
type Step struct {
	Name     string    `yaml:"name"`
	Scenario string    `yaml:"scenario"`
	Preset   string    `yaml:"preset"`
	Config   yaml.Node `yaml:"config"`
}

func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParsePlan(data)
}

func ParsePlan(data []byte) (*Plan, error) {
	var plan Plan
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, err
	}
	if len(plan.Steps) == 0 {
		return nil, fmt.Errorf("plan %q has no steps", plan.Name)
	}
	return &plan, nil
}

// Resolve returns the full config of a step.
func (s *Step) Resolve() (*config.Config, error) {
	cfg := config.DefaultConfig()

	if s.Preset != "" {
		scenario, name, ok := strings.Cut(s.Preset, "/")
		if !ok {
			return nil, fmt.Errorf("preset %q: want scenario/name", s.Preset)
		}
		if cfg = config.GetPreset(scenario, name); cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s", s.Preset)
		}
	} else if s.Scenario != "" {
		cfg.Scenario = s.Scenario
	}

	if !s.Config.IsZero() {
		if err := s.Config.Decode(cfg); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
	}
	return cfg, nil
}

// StepResult pairs a finished step with its resolved config.
type StepResult struct {
	Step   string
	Config *config.Config
	*experiment.Result
}

// Run resolves and builds every step before integrating any, so a bad step
// fails the plan up front. Steps then run concurrently, at most limit at a
// time (limit <= 0 means unbounded), and results keep step order.
func Run(ctx context.Context, plan *Plan, reg *experiment.Registry, limit int) ([]StepResult, error) {
	exps := make([]*experiment.Experiment, len(plan.Steps))
	results := make([]StepResult, len(plan.Steps))

	for i := range plan.Steps {
		step := &plan.Steps[i]
		name := step.Name
		if name == "" {
			name = fmt.Sprintf("step%d", i+1)
		}

		cfg, err := step.Resolve()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		exp, err := experiment.New(cfg, reg)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}

		exps[i] = exp
		results[i] = StepResult{Step: name, Config: cfg}
	}

	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, exp := range exps {
		g.Go(func() error {
			res, err := exp.Run(ctx, dynamo.Options{})
			if err != nil {
				return fmt.Errorf("%s: %w", results[i].Step, err)
			}
			results[i].Result = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
