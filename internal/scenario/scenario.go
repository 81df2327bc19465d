// Package scenario runs scripted player intents against a fresh Coordinator
// and checks the notifications each intent produces. Scripts are YAML files;
// see testdata for examples.
package scenario

import (
	"errors"
	"fmt"
	"strings"
)

// Scenario is a named script of intents issued by a fixed set of players.
type Scenario struct {
	Name        string
	Description string
	Players     []string
	Steps       []Step
}

// Step is one intent and what it must produce.
type Step struct {
	Player string
	Intent string
	// Session is a literal game id or a reference of the form $player, which
	// names the game most recently mentioned in a notification to player.
	Session string
	Target  string
	Column  int
	Manual  bool
	// Expect, when non-empty, must match the notifications in order.
	Expect []Expectation
	// Silent requires the step to produce no notifications at all.
	Silent bool
	// State, when set, is checked after the step.
	State *StateCheck
}

// Expectation describes one notification. Empty fields are not checked.
type Expectation struct {
	To          []string
	Type        string
	Winner      string
	WinningLine [][2]int
	Players     []string
	Turn        string
	Message     string
}

// StateCheck describes a game after a step.
type StateCheck struct {
	Session string
	Players []string
	Turn    string
	Deleted bool
}

// Validate reports every structural problem in s.
func (s *Scenario) Validate() error {
	var errs []string
	if s.Name == "" {
		errs = append(errs, "name must not be empty")
	}
	if len(s.Players) == 0 {
		errs = append(errs, "players must not be empty")
	}
	known := make(map[string]bool, len(s.Players))
	for _, p := range s.Players {
		if known[p] {
			errs = append(errs, fmt.Sprintf("duplicate player %q", p))
		}
		known[p] = true
	}
	if len(s.Steps) == 0 {
		errs = append(errs, "steps must not be empty")
	}
	for i, st := range s.Steps {
		if !known[st.Player] {
			errs = append(errs, fmt.Sprintf("step %d: unknown player %q", i+1, st.Player))
		}
		if st.Intent == "" {
			errs = append(errs, fmt.Sprintf("step %d: intent must not be empty", i+1))
		}
		if st.Silent && len(st.Expect) > 0 {
			errs = append(errs, fmt.Sprintf("step %d: silent and expect are exclusive", i+1))
		}
		for _, ref := range []string{st.Session, stateRef(st.State)} {
			if p, ok := strings.CutPrefix(ref, "$"); ok && !known[p] {
				errs = append(errs, fmt.Sprintf("step %d: reference to unknown player %q", i+1, p))
			}
		}
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func stateRef(c *StateCheck) string {
	if c == nil {
		return ""
	}
	return c.Session
}
