package automation

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/stablegym/internal/config"
	"github.com/san-kum/stablegym/internal/experiment"
	"github.com/san-kum/stablegym/internal/sim"
)

// Scenario is a scripted sequence of rollouts.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is one rollout. Fields left out of the YAML take the
// config defaults.
type ScenarioStep struct {
	Label  string
	Config *config.Config
}

func (s *ScenarioStep) UnmarshalYAML(node *yaml.Node) error {
	var meta struct {
		Label string `yaml:"label"`
	}
	if err := node.Decode(&meta); err != nil {
		return err
	}
	cfg := config.DefaultConfig()
	if err := node.Decode(cfg); err != nil {
		return err
	}
	s.Label = meta.Label
	s.Config = cfg
	return nil
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("%s: scenario has no steps", path)
	}
	for i, step := range scenario.Steps {
		if err := step.Config.Validate(); err != nil {
			return nil, fmt.Errorf("%s step %d: %w", path, i+1, err)
		}
	}

	return &scenario, nil
}

type StepResult struct {
	Label  string
	Env    string
	Result *sim.Result
	Solved bool
}

// RunScenario executes all steps in order and stops at the first failure.
func RunScenario(ctx context.Context, scenario *Scenario, catalog *experiment.Catalog, logger *slog.Logger) ([]StepResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		label := step.Label
		if label == "" {
			label = fmt.Sprintf("%s/%s", step.Config.Env, step.Config.Policy)
		}
		logger.Info("running scenario step", "scenario", scenario.Name, "step", i+1, "of", len(scenario.Steps), "label", label)

		exp, err := experiment.New(catalog, step.Config, logger)
		if err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}

		result, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		results = append(results, StepResult{
			Label:  label,
			Env:    step.Config.Env,
			Result: result,
			Solved: exp.Solved(result),
		})
	}

	return results, nil
}

// SolvedStats counts steps whose mean episode cost met the threshold.
func SolvedStats(results []StepResult) (solved int, unsolved int) {
	for _, r := range results {
		if r.Solved {
			solved++
		} else {
			unsolved++
		}
	}
	return
}
