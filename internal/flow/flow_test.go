package flow

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

type state struct {
	log     []string
	actions map[string]Action
}

func scripted(name string) *Node[*state, string, string] {
	return &Node[*state, string, string]{
		Label: name,
		Prep: func(_ context.Context, s *state) string {
			s.log = append(s.log, "prep:"+name)
			return name
		},
		Exec: func(_ context.Context, in string) string {
			return "exec:" + in
		},
		Post: func(_ context.Context, s *state, _ string, out string) Action {
			s.log = append(s.log, out)
			return s.actions[name]
		},
	}
}

func TestRunFollowsRoutingTable(t *testing.T) {
	a, b, c, d := scripted("a"), scripted("b"), scripted("c"), scripted("d")
	f := New[*state](a).
		Branch(a, map[Action]Stage[*state]{"left": b, "right": c}).
		Then(b, d).
		Then(c, d)

	cases := []struct {
		name    string
		actions map[string]Action
		want    []string
	}{
		{"left branch", map[string]Action{"a": "left", "b": Default}, []string{"a", "b", "d"}},
		{"right branch", map[string]Action{"a": "right", "c": Default}, []string{"a", "c", "d"}},
		{"unknown action stops", map[string]Action{"a": "up"}, []string{"a"}},
		{"empty action stops", map[string]Action{"a": "left", "b": End}, []string{"a", "b"}},
		{"terminal stage action ignored", map[string]Action{"a": "left", "b": Default, "d": "anything"}, []string{"a", "b", "d"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := &state{actions: tc.actions}
			got := f.Run(context.Background(), s)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("visited %v, want %v", got, tc.want)
			}
		})
	}
}

func TestNodeStepOrder(t *testing.T) {
	n := scripted("x")
	s := &state{actions: map[string]Action{"x": "go"}}
	if got := n.Step(context.Background(), s); got != "go" {
		t.Fatalf("action = %q", got)
	}
	want := []string{"prep:x", "exec:x"}
	if !reflect.DeepEqual(s.log, want) {
		t.Fatalf("log %v, want %v", s.log, want)
	}
}

func TestNodeWithoutPostEnds(t *testing.T) {
	ran := false
	n := &Node[*state, struct{}, struct{}]{
		Label: "side-effect",
		Exec:  func(context.Context, struct{}) struct{} { ran = true; return struct{}{} },
	}
	f := New[*state](n).Then(n, scripted("never"))
	if got := f.Run(context.Background(), &state{}); !reflect.DeepEqual(got, []string{"side-effect"}) || !ran {
		t.Fatalf("visited %v ran=%v", got, ran)
	}
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	first := &Node[*state, struct{}, struct{}]{
		Label: "first",
		Post: func(context.Context, *state, struct{}, struct{}) Action {
			cancel()
			return Default
		},
	}
	f := New[*state](first).Then(first, scripted("second"))
	if got := f.Run(ctx, &state{}); !reflect.DeepEqual(got, []string{"first"}) {
		t.Fatalf("visited %v", got)
	}
}

func TestBatchRunsEveryItemInOrder(t *testing.T) {
	var seen []int
	b := &Batch[*state, int]{
		Label: "batch",
		Prep:  func(context.Context, *state) []int { return []int{1, 2, 3, 4} },
		Exec: func(_ context.Context, i int) error {
			seen = append(seen, i)
			switch i {
			case 2:
				return errors.New("boom")
			case 3:
				panic("bad item")
			}
			return nil
		},
		Post: func(_ context.Context, s *state, outcomes []Outcome[int]) Action {
			for _, o := range outcomes {
				if o.Err != nil {
					s.log = append(s.log, "failed")
				} else {
					s.log = append(s.log, "ok")
				}
			}
			return End
		},
	}
	s := &state{}
	if got := New[*state](b).Run(context.Background(), s); !reflect.DeepEqual(got, []string{"batch"}) {
		t.Fatalf("visited %v", got)
	}
	if !reflect.DeepEqual(seen, []int{1, 2, 3, 4}) {
		t.Fatalf("items ran as %v", seen)
	}
	if !reflect.DeepEqual(s.log, []string{"ok", "failed", "failed", "ok"}) {
		t.Fatalf("outcomes %v", s.log)
	}
}

func TestConnectReplacesRoute(t *testing.T) {
	a, b, c := scripted("a"), scripted("b"), scripted("c")
	f := New[*state](a).Then(a, b).Then(a, c)
	next, ok := f.Next(a, Default)
	if !ok || next.Name() != "c" {
		t.Fatalf("expected route to c, got %v %v", next, ok)
	}
	if _, ok := f.Next(a, End); ok {
		t.Fatal("End must never route")
	}
}
