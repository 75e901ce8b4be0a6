// Package chain holds the per-session state of a panel sequence: how many
// panels exist, what each one last produced, and which exact prompts have
// already been run.
package chain

import (
	"errors"

	"github.com/LiboWorks/promptlab/internal/backend"
	"github.com/LiboWorks/promptlab/internal/prompt"
	"github.com/LiboWorks/promptlab/internal/template"
)

// ErrPanelFloor is returned when removing the only remaining panel.
var ErrPanelFloor = errors.New("chain: cannot remove the last remaining panel")

type runKey struct {
	system string
	user   string
	choice backend.Choice
}

// State is not safe for concurrent use; callers that share one serialize
// access.
type State struct {
	count   int
	outputs map[int]string
	ran     map[runKey]struct{}
}

// New returns a state with a single panel.
func New() *State {
	return &State{
		count:   1,
		outputs: make(map[int]string),
		ran:     make(map[runKey]struct{}),
	}
}

// Count returns the number of panels.
func (s *State) Count() int {
	return s.count
}

// AppendPanel adds a panel after the last one and returns the new count.
func (s *State) AppendPanel() int {
	s.count++
	return s.count
}

// RemoveLastPanel drops the final panel and its recorded output.
func (s *State) RemoveLastPanel() error {
	if s.count <= 1 {
		return ErrPanelFloor
	}
	delete(s.outputs, s.count)
	s.count--
	return nil
}

// RecordOutput stores the output of the panel at position, replacing any
// earlier one.
func (s *State) RecordOutput(position int, value string) {
	s.outputs[position] = value
}

// ClearOutput forgets the output of the panel at position.
func (s *State) ClearOutput(position int) {
	delete(s.outputs, position)
}

// Output returns the recorded output of the panel at position.
func (s *State) Output(position int) (string, bool) {
	v, ok := s.outputs[position]
	return v, ok
}

// PriorOutputs returns the outputs of every panel before position that has
// one, keyed by their chained variable name.
func (s *State) PriorOutputs(position int) template.Vars {
	prior := make(template.Vars)
	for i, out := range s.outputs {
		if i < position {
			prior[prompt.ChainedName(i)] = out
		}
	}
	return prior
}

// HasRunBefore reports whether this exact triple has been run in this state.
func (s *State) HasRunBefore(system, user string, choice backend.Choice) bool {
	_, ok := s.ran[runKey{system, user, choice}]
	return ok
}

// MarkRun records that the triple has been run. Entries are never evicted.
func (s *State) MarkRun(system, user string, choice backend.Choice) {
	s.ran[runKey{system, user, choice}] = struct{}{}
}
