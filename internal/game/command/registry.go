package command

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
)

// Registry resolves typed words to commands.
type Registry struct {
	// byWord holds every canonical name and alias.
	byWord map[string]*Command
	// ordered is every command sorted by name.
	ordered []*Command
}

// NewRegistry builds a Registry from cmds.
//
// Precondition: every command has a Name and a Handler.
// Postcondition: Returns an error if any name or alias is claimed twice.
func NewRegistry(cmds []Command) (*Registry, error) {
	r := &Registry{byWord: make(map[string]*Command, len(cmds)*2)}

	for i := range cmds {
		cmd := &cmds[i]
		if cmd.Name == "" || cmd.Handler == "" {
			return nil, errors.New("command name and handler must not be empty")
		}
		if prev, taken := r.byWord[cmd.Name]; taken {
			if prev.Name == cmd.Name {
				return nil, fmt.Errorf("duplicate command name: %q", cmd.Name)
			}
			return nil, fmt.Errorf("command name %q is already an alias of %q", cmd.Name, prev.Name)
		}
		r.byWord[cmd.Name] = cmd
		r.ordered = append(r.ordered, cmd)
	}

	for _, cmd := range r.ordered {
		for _, alias := range cmd.Aliases {
			prev, taken := r.byWord[alias]
			switch {
			case !taken:
				r.byWord[alias] = cmd
			case prev.Name == alias:
				return nil, fmt.Errorf("alias %q of %q shadows a command name", alias, cmd.Name)
			default:
				return nil, fmt.Errorf("duplicate alias %q: used by %q and %q", alias, prev.Name, cmd.Name)
			}
		}
	}

	slices.SortFunc(r.ordered, func(a, b *Command) int { return cmp.Compare(a.Name, b.Name) })
	return r, nil
}

// DefaultRegistry returns a Registry of BuiltinCommands. It panics if the
// built-in table is inconsistent.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(BuiltinCommands())
	if err != nil {
		panic(fmt.Sprintf("building default registry: %v", err))
	}
	return r
}

// Resolve looks up a command by name or alias.
func (r *Registry) Resolve(word string) (*Command, bool) {
	cmd, ok := r.byWord[word]
	return cmd, ok
}

// Commands returns every command sorted by name.
func (r *Registry) Commands() []*Command {
	return slices.Clone(r.ordered)
}

// CommandsByCategory groups Commands by category, each group sorted by name.
func (r *Registry) CommandsByCategory() map[string][]*Command {
	groups := make(map[string][]*Command)
	for _, cmd := range r.ordered {
		groups[cmd.Category] = append(groups[cmd.Category], cmd)
	}
	return groups
}
