package settings

import (
	"log/slog"
	"sync"
)

// Persister writes settings in the background. Save never blocks on IO;
// when several snapshots queue up only the newest is written. A failed write
// is logged and the in-memory state stays authoritative.
type Persister struct {
	backend Backend
	logger  *slog.Logger

	mu        sync.Mutex
	cond      *sync.Cond
	pending   *Settings
	requested uint64
	written   uint64
	closed    bool
	lastErr   error
	done      chan struct{}
}

// NewPersister starts the writer goroutine.
func NewPersister(b Backend, logger *slog.Logger) *Persister {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Persister{
		backend: b,
		logger:  logger,
		done:    make(chan struct{}),
	}
	p.cond = sync.NewCond(&p.mu)
	go p.loop()
	return p
}

// Save queues a snapshot of st.
func (p *Persister) Save(st Settings) {
	snapshot := st.Clone()
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		p.logger.Warn("settings save after close dropped")
		return
	}
	p.pending = &snapshot
	p.requested++
	p.cond.Broadcast()
}

// Flush waits until every queued snapshot has been attempted and returns
// the error of the last attempt.
func (p *Persister) Flush() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	target := p.requested
	for p.written < target {
		p.cond.Wait()
	}
	return p.lastErr
}

// Close flushes and stops the writer.
func (p *Persister) Close() error {
	err := p.Flush()
	p.mu.Lock()
	p.closed = true
	p.cond.Broadcast()
	p.mu.Unlock()
	<-p.done
	return err
}

func (p *Persister) loop() {
	defer close(p.done)
	p.mu.Lock()
	for {
		for p.pending == nil && !p.closed {
			p.cond.Wait()
		}
		if p.pending == nil && p.closed {
			p.mu.Unlock()
			return
		}
		snapshot := *p.pending
		gen := p.requested
		p.pending = nil
		p.mu.Unlock()

		err := p.backend.Save(snapshot)
		if err != nil {
			p.logger.Error("failed to save settings", slog.String("error", err.Error()))
		}

		p.mu.Lock()
		p.lastErr = err
		p.written = gen
		p.cond.Broadcast()
	}
}
