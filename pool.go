package goartifactcleaner

import (
	"runtime"
	"sync"
)

// WorkerPool is a fixed number of workers owned by the caller and shared by
// the scan and clean phases. A pool of size 1 runs everything sequentially.
type WorkerPool struct {
	size int
}

// NewWorkerPool creates a pool with the given number of workers.
// If size is 0 or negative, runtime.NumCPU() is used.
func NewWorkerPool(size int) *WorkerPool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	return &WorkerPool{size: size}
}

// Size returns the number of workers
func (p *WorkerPool) Size() int {
	return p.size
}

// Run starts Size() workers, calls work with each worker's index and blocks
// until all of them return.
func (p *WorkerPool) Run(work func(worker int)) {
	var wg sync.WaitGroup
	for i := 0; i < p.size; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			work(worker)
		}(i)
	}
	wg.Wait()
}
