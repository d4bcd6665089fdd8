package pipeline

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/jasonw-lab/collecter/internal/model"
)

func TestPipeline_Execute(t *testing.T) {
	t.Parallel()

	t.Run("steps run in order", func(t *testing.T) {
		t.Parallel()

		var order []string
		p := New()
		for _, name := range []string{"first", "second", "third"} {
			name := name
			p.AddStep(&recordingStep{name: name, fn: func(*model.RowResult) error {
				order = append(order, name)
				return nil
			}})
		}

		result := model.NewRowResult(testRow())
		if err := p.Execute(context.Background(), result); err != nil {
			t.Fatalf("Execute() error = %v", err)
		}

		want := []string{"first", "second", "third"}
		if !reflect.DeepEqual(order, want) {
			t.Errorf("order = %v, want %v", order, want)
		}
	})

	t.Run("stops at the first failing step", func(t *testing.T) {
		t.Parallel()

		stepErr := errors.New("resolution failed")
		first := &recordingStep{name: "first", fn: func(*model.RowResult) error { return stepErr }}
		second := &recordingStep{name: "second"}

		p := New()
		p.AddSteps(first, second)

		result := model.NewRowResult(testRow())
		if err := p.Execute(context.Background(), result); !errors.Is(err, stepErr) {
			t.Fatalf("Execute() error = %v, want step error", err)
		}
		if len(second.seen) != 0 {
			t.Error("second step should not run after a failure")
		}
	})

	t.Run("cancelled context stops before the next step", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		step := &recordingStep{name: "work"}
		p := New()
		p.AddStep(step)

		result := model.NewRowResult(testRow())
		if err := p.Execute(ctx, result); !errors.Is(err, context.Canceled) {
			t.Fatalf("Execute() error = %v, want context.Canceled", err)
		}
		if len(step.seen) != 0 {
			t.Error("step should not run after cancellation")
		}
	})

	t.Run("empty pipeline succeeds", func(t *testing.T) {
		t.Parallel()

		p := New()
		result := model.NewRowResult(testRow())
		if err := p.Execute(context.Background(), result); err != nil {
			t.Errorf("Execute() error = %v", err)
		}
	})
}

func TestPipeline_StepNames(t *testing.T) {
	t.Parallel()

	p := New()
	p.AddSteps(
		&recordingStep{name: "resolve"},
		&recordingStep{name: "download"},
		&recordingStep{name: "metadata"},
	)

	if got := p.StepCount(); got != 3 {
		t.Errorf("StepCount() = %d, want 3", got)
	}

	want := []string{"resolve", "download", "metadata"}
	if got := p.StepNames(); !reflect.DeepEqual(got, want) {
		t.Errorf("StepNames() = %v, want %v", got, want)
	}
}
