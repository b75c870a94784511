package issues

import (
	"context"
	"sync"

	"github.com/dkoosis/dotrep/pkg/sarif"
)

// Batch records the notifications of one report so that they can be applied
// to a Reconciler in one step. The zero value is ready to use.
type Batch struct {
	events []func(sarif.Callback) error
}

var _ sarif.Callback = (*Batch)(nil)

// Len returns the number of recorded notifications.
func (b *Batch) Len() int { return len(b.events) }

func (b *Batch) OnIssue(ruleID, level string, primary sarif.Location, secondary []sarif.Location, withExecutionFlow bool) error {
	b.events = append(b.events, func(cb sarif.Callback) error {
		return cb.OnIssue(ruleID, level, primary, secondary, withExecutionFlow)
	})
	return nil
}

func (b *Batch) OnFileIssue(ruleID, level, absolutePath string, secondary []sarif.Location, message string) error {
	b.events = append(b.events, func(cb sarif.Callback) error {
		return cb.OnFileIssue(ruleID, level, absolutePath, secondary, message)
	})
	return nil
}

func (b *Batch) OnProjectIssue(ruleID, level string, project sarif.Project, message string) error {
	b.events = append(b.events, func(cb sarif.Callback) error {
		return cb.OnProjectIssue(ruleID, level, project, message)
	})
	return nil
}

func (b *Batch) OnRule(ruleID, shortDescription, fullDescription, defaultLevel, category string) error {
	b.events = append(b.events, func(cb sarif.Callback) error {
		return cb.OnRule(ruleID, shortDescription, fullDescription, defaultLevel, category)
	})
	return nil
}

type request struct {
	batch *Batch
	reply chan error
}

// Queue owns a Reconciler and applies batches to it from a single goroutine,
// so reports parsed concurrently never touch its state at the same time.
type Queue struct {
	rec      *Reconciler
	requests chan request
	quit     chan struct{}
	done     chan struct{}
	once     sync.Once
}

// NewQueue starts the goroutine serving rec. Close must be called to stop it.
func NewQueue(rec *Reconciler) *Queue {
	q := &Queue{
		rec:      rec,
		requests: make(chan request),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go q.loop()
	return q
}

func (q *Queue) loop() {
	defer close(q.done)
	for {
		select {
		case req := <-q.requests:
			req.reply <- q.rec.Apply(req.batch)
		case <-q.quit:
			return
		}
	}
}

// Apply hands b to the reconciler and waits for the outcome. A batch already
// accepted is applied even if ctx is cancelled while waiting.
func (q *Queue) Apply(ctx context.Context, b *Batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	req := request{batch: b, reply: make(chan error, 1)}
	select {
	case q.requests <- req:
	case <-q.quit:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-req.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the queue and closes the reconciler. It is safe to call more
// than once.
func (q *Queue) Close() error {
	var err error
	q.once.Do(func() {
		close(q.quit)
		<-q.done
		err = q.rec.Close()
	})
	return err
}

// Stats returns the reconciler's counters. It must only be called after Close.
func (q *Queue) Stats() Stats {
	<-q.done
	return q.rec.Stats()
}
