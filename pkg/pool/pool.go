// Package pool runs per-slot ceremony work on a fixed set of goroutines.
package pool

import (
	"io"
	"runtime"
	"sync"
	"sync/atomic"
)

// task asks a worker to evaluate f at index i.
type task struct {
	i   int
	f   func(int) interface{}
	out []interface{}
	// remaining counts the results still missing; the worker taking it to zero closes done.
	remaining *int64
	done      chan<- struct{}
}

func run(tasks <-chan task) {
	for t := range tasks {
		t.out[t.i] = t.f(t.i)
		if atomic.AddInt64(t.remaining, -1) == 0 {
			close(t.done)
		}
	}
}

// Pool is a set of long-lived workers sharing a single task queue.
//
// A nil *Pool is valid and evaluates everything on the calling goroutine.
type Pool struct {
	tasks   chan task
	workers int
}

// NewPool starts count workers, or one per CPU when count <= 0.
func NewPool(count int) *Pool {
	if count <= 0 {
		count = runtime.NumCPU()
	}
	p := &Pool{tasks: make(chan task), workers: count}
	for i := 0; i < count; i++ {
		go run(p.tasks)
	}
	return p
}

// Workers returns the number of workers of the pool, and 1 for a nil pool.
func (p *Pool) Workers() int {
	if p == nil {
		return 1
	}
	return p.workers
}

// TearDown stops the workers. The pool must not be used afterwards.
func (p *Pool) TearDown() {
	close(p.tasks)
}

// Parallelize returns [f(0), ..., f(count-1)].
//
// It is safe for several goroutines to call Parallelize on the same pool.
func (p *Pool) Parallelize(count int, f func(int) interface{}) []interface{} {
	out := make([]interface{}, count)
	if p == nil || count <= 1 {
		for i := range out {
			out[i] = f(i)
		}
		return out
	}

	done := make(chan struct{})
	remaining := int64(count)
	for i := 0; i < count; i++ {
		p.tasks <- task{i: i, f: f, out: out, remaining: &remaining, done: done}
	}
	<-done
	return out
}

// TryEach calls f for every index in 0..count-1 and returns the index and error of a failing call.
//
// Once a call has failed, calls which have not started yet are skipped.
// Calls run concurrently, so when several indices fail, the reported one is the first
// failure observed, which is not necessarily the lowest index.
// When every call succeeds, TryEach returns (-1, nil).
func (p *Pool) TryEach(count int, f func(int) error) (int, error) {
	type failure struct {
		i   int
		err error
	}

	var first atomic.Pointer[failure]
	p.Parallelize(count, func(i int) interface{} {
		if first.Load() != nil {
			return nil
		}
		if err := f(i); err != nil {
			first.CompareAndSwap(nil, &failure{i: i, err: err})
		}
		return nil
	})

	if fail := first.Load(); fail != nil {
		return fail.i, fail.err
	}
	return -1, nil
}

// LockedReader serializes reads from an underlying io.Reader, so that one randomness
// source can be shared by engines running on different workers.
type LockedReader struct {
	mu sync.Mutex
	r  io.Reader
}

// NewLockedReader wraps r.
func NewLockedReader(r io.Reader) *LockedReader {
	return &LockedReader{r: r}
}

// Read implements io.Reader.
func (l *LockedReader) Read(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Read(p)
}
