package flow

import (
	"context"
	"fmt"
)

// Node is a stage built from typed prep/exec/post functions. P is the value
// Prep hands to Exec and R is what Exec hands to Post. A nil Prep yields the
// zero P, a nil Exec the zero R, and a nil Post ends the run.
type Node[S, P, R any] struct {
	Label string
	Prep  func(ctx context.Context, shared S) P
	Exec  func(ctx context.Context, in P) R
	Post  func(ctx context.Context, shared S, in P, out R) Action
}

var _ Stage[struct{}] = (*Node[struct{}, int, int])(nil)

func (n *Node[S, P, R]) Name() string { return n.Label }

func (n *Node[S, P, R]) Step(ctx context.Context, shared S) Action {
	var in P
	if n.Prep != nil {
		in = n.Prep(ctx, shared)
	}
	var out R
	if n.Exec != nil {
		out = n.Exec(ctx, in)
	}
	if n.Post == nil {
		return End
	}
	return n.Post(ctx, shared, in, out)
}

// Outcome is the result of executing one batch item.
type Outcome[I any] struct {
	Item I
	Err  error
}

// Batch is a stage that executes once per item returned by Prep, in order.
// An item that fails, or panics, is recorded in its Outcome and the
// remaining items still run. Post sees every outcome once the batch is done.
type Batch[S, I any] struct {
	Label string
	Prep  func(ctx context.Context, shared S) []I
	Exec  func(ctx context.Context, item I) error
	Post  func(ctx context.Context, shared S, outcomes []Outcome[I]) Action
}

var _ Stage[struct{}] = (*Batch[struct{}, int])(nil)

func (b *Batch[S, I]) Name() string { return b.Label }

func (b *Batch[S, I]) Step(ctx context.Context, shared S) Action {
	var items []I
	if b.Prep != nil {
		items = b.Prep(ctx, shared)
	}
	outcomes := make([]Outcome[I], 0, len(items))
	for _, item := range items {
		outcomes = append(outcomes, Outcome[I]{Item: item, Err: b.execOne(ctx, item)})
	}
	if b.Post == nil {
		return End
	}
	return b.Post(ctx, shared, outcomes)
}

func (b *Batch[S, I]) execOne(ctx context.Context, item I) (err error) {
	if b.Exec == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: item panicked: %v", b.Label, r)
		}
	}()
	return b.Exec(ctx, item)
}
