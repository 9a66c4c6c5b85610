package dynamo

import (
	"runtime"
	"sync"
)

// Context carries execution settings shared by the solvers of one
// simulation. A nil *Context is valid and uses every available CPU.
type Context struct {
	maxThreads int
}

// NewContext returns a context limited to maxThreads workers. Zero or a
// negative value selects runtime.GOMAXPROCS(0).
func NewContext(maxThreads int) *Context {
	return &Context{maxThreads: maxThreads}
}

// MaxThreads reports the number of workers parallel loops may use.
func (c *Context) MaxThreads() int {
	if c == nil || c.maxThreads <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return c.maxThreads
}

// SetMaxThreads changes the worker limit.
func (c *Context) SetMaxThreads(n int) {
	c.maxThreads = n
}

// ParallelFor executes fn over chunks of the range [0, n). Chunks never
// overlap, so fn may write to disjoint per-index outputs without locking.
func (c *Context) ParallelFor(n, minChunk int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	if minChunk < 1 {
		minChunk = 1
	}
	numWorkers := c.MaxThreads()
	if n <= minChunk || numWorkers <= 1 {
		fn(0, n)
		return
	}

	workers := numWorkers
	if n/minChunk < workers {
		workers = n / minChunk
	}
	if workers < 1 {
		workers = 1
	}

	chunkSize := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
		if end > n {
			end = n
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}

	wg.Wait()
}

// ParallelForEach calls fn once for every index in [0, n).
func (c *Context) ParallelForEach(n int, fn func(i int)) {
	c.ParallelFor(n, 256, func(start, end int) {
		for i := start; i < end; i++ {
			fn(i)
		}
	})
}

// ParallelFor3 visits every (i, j, k) of an nx*ny*nz box. Work is split by
// (j, k) rows and i runs fastest inside a row.
func (c *Context) ParallelFor3(nx, ny, nz int, fn func(i, j, k int)) {
	if nx <= 0 {
		return
	}
	c.ParallelFor(ny*nz, 4, func(start, end int) {
		for row := start; row < end; row++ {
			j := row % ny
			k := row / ny
			for i := 0; i < nx; i++ {
				fn(i, j, k)
			}
		}
	})
}

// ParallelReduce evaluates fn over chunks of [0, n) and folds the partial
// results with combine, starting from identity.
func (c *Context) ParallelReduce(n, minChunk int, identity float64, fn func(start, end int) float64, combine func(a, b float64) float64) float64 {
	var mu sync.Mutex
	result := identity
	c.ParallelFor(n, minChunk, func(start, end int) {
		partial := fn(start, end)
		mu.Lock()
		result = combine(result, partial)
		mu.Unlock()
	})
	return result
}
