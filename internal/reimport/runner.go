package reimport

import (
	"errors"
	"sync"
)

// ErrBusy is returned when an import is started while another is running.
var ErrBusy = errors.New("an import is already running")

// Task is an import running on its own goroutine. It cannot be cancelled.
type Task struct {
	done   chan struct{}
	result *Result
	err    error
}

// Start runs req on a new goroutine.
func Start(imp *Importer, req Request) *Task {
	t := &Task{done: make(chan struct{})}
	go func() {
		defer close(t.done)
		t.result, t.err = imp.Run(req)
	}()
	return t
}

// Done is closed when the import has finished.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Finished polls for completion without blocking.
func (t *Task) Finished() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the import finishes and returns its outcome.
func (t *Task) Wait() (*Result, error) {
	<-t.done
	return t.result, t.err
}

// Runner allows one import at a time.
type Runner struct {
	imp     *Importer
	mu      sync.Mutex
	current *Task
}

// NewRunner creates a runner for imp.
func NewRunner(imp *Importer) *Runner {
	return &Runner{imp: imp}
}

// Start begins an import unless one is still running.
func (r *Runner) Start(req Request) (*Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current != nil && !r.current.Finished() {
		return nil, ErrBusy
	}
	r.current = Start(r.imp, req)
	return r.current, nil
}

// Busy reports whether an import is running.
func (r *Runner) Busy() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current != nil && !r.current.Finished()
}
