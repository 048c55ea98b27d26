package parallel

import "sync"

// MinBandRows is the smallest band handed to a worker. Images shorter than
// two bands are processed on the calling goroutine.
const MinBandRows = 16

var shared = sync.OnceValue(func() *WorkerPool {
	return NewWorkerPool(0)
})

// Rows calls fn over consecutive row bands [y0, y1) covering [0, height) and
// returns when all bands are done. fn must only write rows inside its band;
// reading any row of a separate source is fine.
func Rows(height int, fn func(y0, y1 int)) {
	RowsOn(shared(), height, fn)
}

// RowsOn is Rows on a specific pool.
func RowsOn(p *WorkerPool, height int, fn func(y0, y1 int)) {
	bands := Bands(height, p.Workers())
	if len(bands) <= 1 {
		if height > 0 {
			fn(0, height)
		}
		return
	}
	work := make([]func(), len(bands))
	for i, b := range bands {
		work[i] = func() { fn(b[0], b[1]) }
	}
	p.ExecuteAll(work)
}

// Bands splits [0, height) into at most workers contiguous bands of at
// least MinBandRows rows each.
func Bands(height, workers int) [][2]int {
	if height <= 0 {
		return nil
	}
	n := min(max(workers, 1), max(height/MinBandRows, 1))
	out := make([][2]int, 0, n)
	for i := range n {
		out = append(out, [2]int{i * height / n, (i + 1) * height / n})
	}
	return out
}
