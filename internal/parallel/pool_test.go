package parallel

import (
	"runtime"
	"sync/atomic"
	"testing"
)

func TestWorkerPool_Create(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	if pool.Workers() != 4 {
		t.Errorf("Workers() = %d, want 4", pool.Workers())
	}
	if !pool.IsRunning() {
		t.Error("Pool should be running after creation")
	}
}

func TestWorkerPool_CreateDefaultWorkers(t *testing.T) {
	for _, n := range []int{0, -5} {
		pool := NewWorkerPool(n)
		if pool.Workers() != runtime.GOMAXPROCS(0) {
			t.Errorf("NewWorkerPool(%d).Workers() = %d, want GOMAXPROCS", n, pool.Workers())
		}
		pool.Close()
	}
}

func TestWorkerPool_ExecuteAll(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	var counter atomic.Int64
	work := make([]func(), 100)
	for i := range work {
		work[i] = func() { counter.Add(1) }
	}
	pool.ExecuteAll(work)

	if counter.Load() != 100 {
		t.Errorf("counter = %d, want 100", counter.Load())
	}
}

func TestWorkerPool_ExecuteAfterClose(t *testing.T) {
	pool := NewWorkerPool(2)
	pool.Close()
	pool.Close()

	if pool.IsRunning() {
		t.Error("Pool should not be running after Close")
	}
	ran := 0
	pool.ExecuteAll([]func(){func() { ran++ }, func() { ran++ }})
	if ran != 2 {
		t.Errorf("closed pool ran %d items, want 2", ran)
	}
}

func TestBands(t *testing.T) {
	tests := []struct {
		height, workers int
		want            int
	}{
		{0, 4, 0},
		{1, 4, 1},
		{MinBandRows, 4, 1},
		{MinBandRows * 2, 4, 2},
		{1000, 4, 4},
		{1000, 0, 1},
	}
	for _, tt := range tests {
		bands := Bands(tt.height, tt.workers)
		if len(bands) != tt.want {
			t.Errorf("Bands(%d, %d) = %d bands, want %d", tt.height, tt.workers, len(bands), tt.want)
			continue
		}
		next := 0
		for _, b := range bands {
			if b[0] != next || b[1] <= b[0] {
				t.Errorf("Bands(%d, %d): band %v does not follow %d", tt.height, tt.workers, b, next)
			}
			next = b[1]
		}
		if tt.height > 0 && next != tt.height {
			t.Errorf("Bands(%d, %d) covers [0, %d)", tt.height, tt.workers, next)
		}
	}
}

func TestRowsCoversEveryRow(t *testing.T) {
	pool := NewWorkerPool(3)
	defer pool.Close()

	for _, height := range []int{0, 1, 15, 64, 257} {
		hits := make([]int32, height)
		RowsOn(pool, height, func(y0, y1 int) {
			for y := y0; y < y1; y++ {
				atomic.AddInt32(&hits[y], 1)
			}
		})
		for y, n := range hits {
			if n != 1 {
				t.Errorf("height %d: row %d visited %d times", height, y, n)
			}
		}
	}
}

func TestRowsShared(t *testing.T) {
	var total atomic.Int64
	Rows(100, func(y0, y1 int) { total.Add(int64(y1 - y0)) })
	if total.Load() != 100 {
		t.Errorf("Rows covered %d rows, want 100", total.Load())
	}
}
