package scenario

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// yamlFile is the top-level YAML structure for scenario files.
type yamlFile struct {
	Scenario yamlScenario `yaml:"scenario"`
}

type yamlScenario struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Players     []string   `yaml:"players"`
	Steps       []yamlStep `yaml:"steps"`
}

type yamlStep struct {
	Player  string            `yaml:"player"`
	Intent  string            `yaml:"intent"`
	Session string            `yaml:"session"`
	Target  string            `yaml:"target"`
	Column  int               `yaml:"column"`
	Manual  bool              `yaml:"manual"`
	Expect  []yamlExpectation `yaml:"expect"`
	Silent  bool              `yaml:"silent"`
	State   *yamlState        `yaml:"state"`
}

type yamlExpectation struct {
	To          []string `yaml:"to"`
	Type        string   `yaml:"type"`
	Winner      string   `yaml:"winner"`
	WinningLine [][]int  `yaml:"winning_line"`
	Players     []string `yaml:"players"`
	Turn        string   `yaml:"turn"`
	Message     string   `yaml:"message"`
}

type yamlState struct {
	Session string   `yaml:"session"`
	Players []string `yaml:"players"`
	Turn    string   `yaml:"turn"`
	Deleted bool     `yaml:"deleted"`
}

// LoadFromFile reads and validates a single scenario YAML file.
//
// Postcondition: Returns a validated Scenario or a non-nil error.
func LoadFromFile(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario file %s: %w", path, err)
	}
	return LoadFromBytes(data)
}

// LoadFromBytes parses and validates a scenario from YAML bytes.
func LoadFromBytes(data []byte) (*Scenario, error) {
	var file yamlFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing scenario YAML: %w", err)
	}

	sc, err := convert(file.Scenario)
	if err != nil {
		return nil, err
	}
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("validating scenario: %w", err)
	}
	return sc, nil
}

// LoadDir loads every .yaml and .yml file in dir, in name order.
//
// Postcondition: Returns at least one scenario or an error.
func LoadDir(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading scenario directory %s: %w", dir, err)
	}

	var out []*Scenario
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || (!strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml")) {
			continue
		}
		sc, err := LoadFromFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("loading scenario from %s: %w", name, err)
		}
		out = append(out, sc)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no scenario files found in %s", dir)
	}
	return out, nil
}

func convert(ys yamlScenario) (*Scenario, error) {
	sc := &Scenario{
		Name:        ys.Name,
		Description: ys.Description,
		Players:     ys.Players,
		Steps:       make([]Step, 0, len(ys.Steps)),
	}
	for i, y := range ys.Steps {
		st := Step{
			Player:  y.Player,
			Intent:  y.Intent,
			Session: y.Session,
			Target:  y.Target,
			Column:  y.Column,
			Manual:  y.Manual,
			Silent:  y.Silent,
		}
		for _, ye := range y.Expect {
			exp := Expectation{
				To:      ye.To,
				Type:    ye.Type,
				Winner:  ye.Winner,
				Players: ye.Players,
				Turn:    ye.Turn,
				Message: ye.Message,
			}
			for _, cell := range ye.WinningLine {
				if len(cell) != 2 {
					return nil, fmt.Errorf("step %d: winning_line cells must be [row, col], got %v", i+1, cell)
				}
				exp.WinningLine = append(exp.WinningLine, [2]int{cell[0], cell[1]})
			}
			st.Expect = append(st.Expect, exp)
		}
		if y.State != nil {
			st.State = &StateCheck{
				Session: y.State.Session,
				Players: y.State.Players,
				Turn:    y.State.Turn,
				Deleted: y.State.Deleted,
			}
		}
		sc.Steps = append(sc.Steps, st)
	}
	return sc, nil
}
