package scenario

import (
	"fmt"
	"slices"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/cory-johannsen/connectfour/internal/game/matchmaking"
	"github.com/cory-johannsen/connectfour/internal/game/session"
	"github.com/cory-johannsen/connectfour/internal/gameserver"
	gamev1 "github.com/cory-johannsen/connectfour/internal/gameserver/gamev1"
)

// Entry is one delivered notification in a transcript.
type Entry struct {
	Step   int                 `json:"step"`
	Player string              `json:"player"`
	Intent string              `json:"intent"`
	To     []string            `json:"to"`
	Event  *gamev1.ServerEvent `json:"event"`
}

// StepError reports the first step whose outcome did not match the script.
type StepError struct {
	Step int
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Run plays sc against a fresh Coordinator whose games are numbered game-1,
// game-2, ... so transcripts are reproducible.
//
// Postcondition: Returns the transcript of every notification produced up to
// and including the first failing step, and a *StepError for that step.
func Run(sc *Scenario, logger *zap.Logger) ([]Entry, error) {
	var n atomic.Int64
	coord := gameserver.NewCoordinator(
		session.NewRegistry(session.WithIDGenerator(func() string {
			return fmt.Sprintf("game-%d", n.Add(1))
		})),
		matchmaking.NewQueue(),
		matchmaking.NewPendingTable(),
		logger,
	)

	latest := make(map[string]string, len(sc.Players))
	var transcript []Entry

	for i, st := range sc.Steps {
		step := i + 1
		msg := &gamev1.ClientMessage{
			RequestID: fmt.Sprintf("step-%d", step),
			Type:      st.Intent,
			SessionID: resolve(st.Session, latest),
			TargetID:  st.Target,
			Column:    st.Column,
			Manual:    st.Manual,
		}
		envs := coord.Handle(st.Player, msg)

		for _, env := range envs {
			transcript = append(transcript, Entry{Step: step, Player: st.Player, Intent: st.Intent, To: env.To, Event: env.Event})
			if env.Event.SessionID == "" {
				continue
			}
			for _, p := range env.To {
				latest[p] = env.Event.SessionID
			}
		}

		if err := check(st, envs); err != nil {
			return transcript, &StepError{Step: step, Err: err}
		}
		if st.State != nil {
			if err := checkState(coord, st.State, latest); err != nil {
				return transcript, &StepError{Step: step, Err: err}
			}
		}
		logger.Debug("scenario step passed",
			zap.String("scenario", sc.Name),
			zap.Int("step", step),
			zap.String("intent", st.Intent),
		)
	}
	return transcript, nil
}

func resolve(ref string, latest map[string]string) string {
	if p, ok := strings.CutPrefix(ref, "$"); ok {
		return latest[p]
	}
	return ref
}

func check(st Step, envs []gameserver.Envelope) error {
	if st.Silent {
		if len(envs) > 0 {
			return fmt.Errorf("expected no notifications, got %s", describe(envs))
		}
		return nil
	}
	if len(st.Expect) == 0 {
		return nil
	}
	if len(envs) != len(st.Expect) {
		return fmt.Errorf("expected %d notifications, got %s", len(st.Expect), describe(envs))
	}
	for i, exp := range st.Expect {
		if err := match(exp, envs[i]); err != nil {
			return fmt.Errorf("notification %d: %w", i+1, err)
		}
	}
	return nil
}

func match(exp Expectation, env gameserver.Envelope) error {
	ev := env.Event
	if exp.Type != "" && exp.Type != ev.Type {
		return fmt.Errorf("type %s, want %s (message %q)", ev.Type, exp.Type, ev.Message)
	}
	if exp.To != nil && !sameSet(exp.To, env.To) {
		return fmt.Errorf("%s delivered to %v, want %v", ev.Type, env.To, exp.To)
	}
	if exp.Winner != "" && exp.Winner != ev.WinnerID {
		return fmt.Errorf("winner %q, want %q", ev.WinnerID, exp.Winner)
	}
	if exp.WinningLine != nil {
		got := make([][2]int, len(ev.WinningLine))
		for i, c := range ev.WinningLine {
			got[i] = [2]int{c.Row, c.Col}
		}
		if !slices.Equal(got, exp.WinningLine) {
			return fmt.Errorf("winning line %v, want %v", got, exp.WinningLine)
		}
	}
	if exp.Players != nil {
		if ev.Session == nil || !slices.Equal(ev.Session.Players, exp.Players) {
			return fmt.Errorf("players %v, want %v", players(ev.Session), exp.Players)
		}
	}
	if exp.Turn != "" && (ev.Session == nil || ev.Session.Turn != exp.Turn) {
		return fmt.Errorf("turn %q, want %q", turn(ev.Session), exp.Turn)
	}
	if exp.Message != "" && !strings.Contains(ev.Message, exp.Message) {
		return fmt.Errorf("message %q does not contain %q", ev.Message, exp.Message)
	}
	return nil
}

func checkState(coord *gameserver.Coordinator, c *StateCheck, latest map[string]string) error {
	id := resolve(c.Session, latest)
	snap, ok := coord.Session(id)
	if c.Deleted {
		if ok {
			return fmt.Errorf("game %q still exists with players %v", id, snap.Players)
		}
		return nil
	}
	if !ok {
		return fmt.Errorf("game %q does not exist", id)
	}
	if c.Players != nil && !slices.Equal(snap.Players, c.Players) {
		return fmt.Errorf("game %q players %v, want %v", id, snap.Players, c.Players)
	}
	if c.Turn != "" && snap.Turn != c.Turn {
		return fmt.Errorf("game %q turn %q, want %q", id, snap.Turn, c.Turn)
	}
	return nil
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	x, y := slices.Clone(a), slices.Clone(b)
	slices.Sort(x)
	slices.Sort(y)
	return slices.Equal(x, y)
}

func describe(envs []gameserver.Envelope) string {
	if len(envs) == 0 {
		return "none"
	}
	parts := make([]string, len(envs))
	for i, env := range envs {
		parts[i] = fmt.Sprintf("%s→%v", env.Event.Type, env.To)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func players(s *gamev1.GameSnapshot) []string {
	if s == nil {
		return nil
	}
	return s.Players
}

func turn(s *gamev1.GameSnapshot) string {
	if s == nil {
		return ""
	}
	return s.Turn
}
