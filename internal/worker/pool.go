package worker

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ErrPoolClosed is returned by Submit after Shutdown has begun.
var ErrPoolClosed = errors.New("worker pool is shut down")

// Handler processes one message. Panics are recovered by the pool.
type Handler[T any] func(ctx context.Context, msg T)

// Pool runs a fixed number of workers over an unbounded in-memory queue.
// Submit never blocks on a busy pool; messages are picked up in FIFO order,
// but with more than one worker completion order is not defined.
type Pool[T any] struct {
	handler Handler[T]
	log     logrus.FieldLogger

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []T
	closed bool

	ctx    context.Context
	cancel context.CancelFunc
	group  errgroup.Group
}

// NewPool starts size workers (at least one) that call handler for each message.
func NewPool[T any](size int, handler func(ctx context.Context, msg T), log logrus.FieldLogger) *Pool[T] {
	if size < 1 {
		size = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool[T]{
		handler: handler,
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
	}
	p.cond = sync.NewCond(&p.mu)

	for i := 0; i < size; i++ {
		id := i
		p.group.Go(func() error {
			p.work(id)
			return nil
		})
	}
	log.WithField("workers", size).Info("worker pool started")
	return p
}

// Submit enqueues msg and returns immediately.
func (p *Pool[T]) Submit(msg T) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPoolClosed
	}
	p.queue = append(p.queue, msg)
	p.cond.Signal()
	return nil
}

// Pending returns the number of queued messages not yet picked up.
func (p *Pool[T]) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// Shutdown stops accepting messages and waits for the queue to drain.
// If ctx ends first, in-flight handlers see their context cancelled, queued
// messages are dropped, and ctx's error is returned.
func (p *Pool[T]) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.cond.Broadcast()
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		_ = p.group.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		return nil
	case <-ctx.Done():
		p.mu.Lock()
		dropped := len(p.queue)
		p.queue = nil
		p.mu.Unlock()
		p.cancel()
		p.log.WithField("dropped", dropped).Warn("worker pool shutdown timed out")
		<-done
		return ctx.Err()
	}
}

func (p *Pool[T]) work(id int) {
	for {
		msg, ok := p.next()
		if !ok {
			return
		}
		p.run(id, msg)
	}
}

// next blocks until a message is available or the pool is closed and empty.
func (p *Pool[T]) next() (T, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for len(p.queue) == 0 && !p.closed {
		p.cond.Wait()
	}
	var zero T
	if len(p.queue) == 0 {
		return zero, false
	}
	msg := p.queue[0]
	p.queue[0] = zero
	p.queue = p.queue[1:]
	return msg, true
}

func (p *Pool[T]) run(id int, msg T) {
	defer func() {
		if rv := recover(); rv != nil {
			p.log.WithFields(logrus.Fields{
				"worker": id,
				"panic":  rv,
				"stack":  string(debug.Stack()),
			}).Error("worker recovered from panic")
		}
	}()
	p.handler(p.ctx, msg)
}
