package chat

import (
	"fmt"
	"sort"
)

// Flow is a workflow defined as a graph of steps. A step may only move to
// the steps it was registered with.
type Flow struct {
	id      WorkflowID
	initial StepID
	steps   map[StepID]Step
	edges   map[StepID]map[StepID]struct{}
}

func NewFlow(id WorkflowID, initial StepID) *Flow {
	return &Flow{
		id:      id,
		initial: initial,
		steps:   make(map[StepID]Step),
		edges:   make(map[StepID]map[StepID]struct{}),
	}
}

// Add registers step together with the steps it can transition to.
func (f *Flow) Add(step Step, next ...StepID) *Flow {
	f.steps[step.ID()] = step
	out, ok := f.edges[step.ID()]
	if !ok {
		out = make(map[StepID]struct{}, len(next))
		f.edges[step.ID()] = out
	}
	for _, n := range next {
		out[n] = struct{}{}
	}
	return f
}

func (f *Flow) ID() WorkflowID      { return f.id }
func (f *Flow) InitialStep() StepID { return f.initial }

func (f *Flow) GetStep(id StepID) (Step, bool) {
	step, ok := f.steps[id]
	return step, ok
}

func (f *Flow) CanTransition(from, to StepID) bool {
	_, ok := f.edges[from][to]
	return ok
}

// Next lists the targets of from in a stable order.
func (f *Flow) Next(from StepID) []StepID {
	out := make([]StepID, 0, len(f.edges[from]))
	for id := range f.edges[from] {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Validate checks that the initial step and every edge target are registered.
func (f *Flow) Validate() error {
	if _, ok := f.steps[f.initial]; !ok {
		return fmt.Errorf("%w: %s: initial step %s", ErrUnknownStep, f.id, f.initial)
	}
	for from, out := range f.edges {
		for to := range out {
			if _, ok := f.steps[to]; !ok {
				return fmt.Errorf("%w: %s: %s -> %s", ErrUnknownStep, f.id, from, to)
			}
		}
	}
	return nil
}
