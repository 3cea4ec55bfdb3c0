package notify

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Config controls dispatcher buffering behavior.
type Config struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// DeliverFunc hands one message to its destination.
type DeliverFunc[T any] func(ctx context.Context, msg T) error

// Dispatcher asynchronously forwards messages to a DeliverFunc.
type Dispatcher[T any] struct {
	cfg       Config
	deliver   DeliverFunc[T]
	logger    *slog.Logger
	ch        chan T
	done      chan struct{}
	wg        sync.WaitGroup
	dropped   atomic.Uint64
	failed    atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once
}

// NewDispatcher returns nil when cfg is disabled; a nil Dispatcher discards everything.
func NewDispatcher[T any](cfg Config, deliver DeliverFunc[T], logger *slog.Logger) *Dispatcher[T] {
	if !cfg.Enabled || deliver == nil {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	d := &Dispatcher[T]{
		cfg:     cfg,
		deliver: deliver,
		logger:  logger,
		ch:      make(chan T, cfg.BufferSize),
		done:    make(chan struct{}),
	}

	d.wg.Add(1)
	go d.run()

	return d
}

func (d *Dispatcher[T]) run() {
	defer d.wg.Done()

	for {
		select {
		case msg := <-d.ch:
			d.send(msg)
		case <-d.done:
			for {
				select {
				case msg := <-d.ch:
					d.send(msg)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher[T]) send(msg T) {
	if err := d.deliver(context.Background(), msg); err != nil {
		d.failed.Add(1)
		d.logger.Warn("notification delivery failed", slog.Any("error", err))
	}
}

// Emit queues msg. With DropIfFull a full buffer drops the message instead of blocking.
func (d *Dispatcher[T]) Emit(ctx context.Context, msg T) {
	if d == nil || d.closed.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if d.cfg.DropIfFull {
		select {
		case d.ch <- msg:
		case <-d.done:
		default:
			d.dropped.Add(1)
			d.logger.Warn("notification dropped, buffer full")
		}
		return
	}

	select {
	case d.ch <- msg:
	case <-ctx.Done():
	case <-d.done:
	}
}

// Close drains queued messages and stops the worker.
func (d *Dispatcher[T]) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.done)
		d.wg.Wait()
	})
}

func (d *Dispatcher[T]) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}

func (d *Dispatcher[T]) Failed() uint64 {
	if d == nil {
		return 0
	}
	return d.failed.Load()
}
