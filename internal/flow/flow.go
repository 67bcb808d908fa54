// Package flow runs a directed graph of stages connected by named actions.
//
// Each stage is run in three steps: Prep reads what it needs from the shared
// state, Exec does the work, Post writes results back and returns the Action
// that selects the next stage. A run ends when a stage returns an empty
// action or when the routing table has no entry for the returned action.
package flow

import (
	"context"
	"log/slog"
)

// Action names a transition out of a stage.
type Action string

const (
	// End stops the run. It is never routed.
	End Action = ""
	// Default is the action used by Then.
	Default Action = "default"
)

// Stage is one node of the graph.
type Stage[S any] interface {
	Name() string
	// Step runs prep, exec and post and returns the produced action.
	Step(ctx context.Context, shared S) Action
}

// Flow holds the routing table and the start stage.
type Flow[S any] struct {
	start  Stage[S]
	routes map[Stage[S]]map[Action]Stage[S]
}

// New creates a flow that begins at start.
func New[S any](start Stage[S]) *Flow[S] {
	return &Flow[S]{
		start:  start,
		routes: make(map[Stage[S]]map[Action]Stage[S]),
	}
}

// Connect routes action produced by from to the stage to.
// Connecting the same pair twice replaces the previous target.
func (f *Flow[S]) Connect(from Stage[S], action Action, to Stage[S]) *Flow[S] {
	m, ok := f.routes[from]
	if !ok {
		m = make(map[Action]Stage[S])
		f.routes[from] = m
	}
	m[action] = to
	return f
}

// Then routes the Default action of from to to.
func (f *Flow[S]) Then(from, to Stage[S]) *Flow[S] {
	return f.Connect(from, Default, to)
}

// Branch connects every action in table from the same stage.
func (f *Flow[S]) Branch(from Stage[S], table map[Action]Stage[S]) *Flow[S] {
	for action, to := range table {
		f.Connect(from, action, to)
	}
	return f
}

// Next returns the stage routed from (stage, action), if any.
func (f *Flow[S]) Next(stage Stage[S], action Action) (Stage[S], bool) {
	if action == End {
		return nil, false
	}
	next, ok := f.routes[stage][action]
	return next, ok && next != nil
}

// Run executes the graph once against shared and returns the names of the
// visited stages in order. An action without a route ends the run; this is
// the normal terminal condition, not an error. Cancellation is checked
// between stages.
func (f *Flow[S]) Run(ctx context.Context, shared S) []string {
	var visited []string
	current := f.start
	for current != nil {
		if ctx.Err() != nil {
			slog.DebugContext(ctx, "Flow cancelled", "stage", current.Name(), "error", ctx.Err())
			break
		}
		visited = append(visited, current.Name())
		action := current.Step(ctx, shared)

		next, ok := f.Next(current, action)
		if !ok {
			slog.DebugContext(ctx, "Flow finished", "stage", current.Name(), "action", string(action))
			break
		}
		slog.DebugContext(ctx, "Flow transition", "from", current.Name(), "action", string(action), "to", next.Name())
		current = next
	}
	return visited
}
