package dynamo

import (
	"errors"
	"sync/atomic"
	"testing"
)

func TestParallelForCoversRange(t *testing.T) {
	tests := []struct {
		name     string
		n        int
		minChunk int
		threads  int
	}{
		{"serial", 100, 1000, 4},
		{"chunked", 1000, 10, 4},
		{"single thread", 500, 1, 1},
		{"uneven", 1001, 7, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := NewContext(tt.threads)
			hits := make([]int32, tt.n)
			ctx.ParallelFor(tt.n, tt.minChunk, func(start, end int) {
				for i := start; i < end; i++ {
					atomic.AddInt32(&hits[i], 1)
				}
			})
			for i, h := range hits {
				if h != 1 {
					t.Fatalf("index %d visited %d times", i, h)
				}
			}
		})
	}
}

func TestParallelFor3(t *testing.T) {
	var ctx *Context
	var count int64
	ctx.ParallelFor3(3, 4, 5, func(i, j, k int) {
		if i < 0 || i >= 3 || j < 0 || j >= 4 || k < 0 || k >= 5 {
			t.Errorf("index out of range: %d %d %d", i, j, k)
		}
		atomic.AddInt64(&count, 1)
	})
	if count != 60 {
		t.Errorf("expected 60 visits, got %d", count)
	}
}

func TestParallelReduce(t *testing.T) {
	ctx := NewContext(4)
	sum := ctx.ParallelReduce(1000, 10, 0, func(start, end int) float64 {
		s := 0.0
		for i := start; i < end; i++ {
			s += float64(i)
		}
		return s
	}, func(a, b float64) float64 { return a + b })
	if sum != 499500 {
		t.Errorf("expected 499500, got %v", sum)
	}
}

func TestFrame(t *testing.T) {
	f := NewFrame(60)
	if f.Index != -1 {
		t.Errorf("expected index -1, got %d", f.Index)
	}
	f.Advance()
	f.AdvanceBy(2)
	if f.Index != 2 {
		t.Errorf("expected index 2, got %d", f.Index)
	}
	if got := f.TimeInSeconds(); got != 2.0/60 {
		t.Errorf("expected %v, got %v", 2.0/60, got)
	}
}

func TestSimulationErrorUnwrap(t *testing.T) {
	err := &SimulationError{Frame: 3, SubStep: 1, Wrapped: ErrDimensionMismatch}
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Error("expected SimulationError to unwrap to ErrDimensionMismatch")
	}
}
