package optimization

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

func TestEvaluateAll(t *testing.T) {
	points := make([][]float64, 100)
	for i := range points {
		points[i] = []float64{float64(i)}
	}
	double := func(x []float64) (float64, error) { return 2 * x[0], nil }

	values, err := EvaluateAll(context.Background(), double, points, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, v := range values {
		if v != 2*float64(i) {
			t.Fatalf("values[%d] = %v, want %v", i, v, 2*float64(i))
		}
	}
}

func TestEvaluateAllEmpty(t *testing.T) {
	values, err := EvaluateAll(context.Background(), nil, nil, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(values) != 0 {
		t.Fatalf("expected no values, got %d", len(values))
	}
}

func TestEvaluateAllReturnsFirstError(t *testing.T) {
	points := make([][]float64, 50)
	for i := range points {
		points[i] = []float64{float64(i)}
	}
	sentinel := errors.New("boom")
	obj := func(x []float64) (float64, error) {
		if x[0] == 7 {
			return 0, sentinel
		}
		return x[0], nil
	}

	// Must not deadlock: workers keep draining after the failure.
	_, err := EvaluateAll(context.Background(), obj, points, 3)
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got %v", err)
	}
}

func TestEvaluateAllRespectsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	points := make([][]float64, 1000)
	for i := range points {
		points[i] = []float64{float64(i)}
	}
	var calls atomic.Int64
	obj := func(x []float64) (float64, error) {
		if calls.Add(1) == 10 {
			cancel()
		}
		return x[0], nil
	}

	_, err := EvaluateAll(ctx, obj, points, 2)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls.Load() == int64(len(points)) {
		t.Fatal("cancellation did not short-circuit the batch")
	}
}
