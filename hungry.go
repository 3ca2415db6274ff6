// hungry consume engine
package component

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// KV is an element of a key-value input collection, and the required
// return shape of the process function when consuming into a map.
type KV struct {
	Key   any
	Value any
}

type consumeOptions struct {
	concurrency int
	timeout     time.Duration
	ordered     bool
	intoMap     bool
	intoStream  bool
	notify      func(any)
	whenDone    func(any)
	sinks       int
}

// ConsumeOption customizes one Consume call.
type ConsumeOption func(*consumeOptions)

// WithConcurrency bounds the number of elements in flight for this
// call, overriding the service's configured default.
func WithConcurrency(n int) ConsumeOption {
	return func(co *consumeOptions) { co.concurrency = n }
}

// WithConsumeTimeout bounds the whole consume, overriding the
// service's configured timeout.
func WithConsumeTimeout(d time.Duration) ConsumeOption {
	return func(co *consumeOptions) { co.timeout = d }
}

// Unordered delivers results in completion order instead of input
// order, trading ordering for latency to the first result.
func Unordered() ConsumeOption {
	return func(co *consumeOptions) { co.ordered = false }
}

// IntoMap consumes a key-value collection into a map. Every element
// and every process result must be a KV; the call blocks until the
// map is complete.
func IntoMap() ConsumeOption {
	return func(co *consumeOptions) {
		co.intoMap = true
		co.sinks++
	}
}

// IntoStream makes Consume return immediately with a lazy channel;
// values become available as they are produced and the channel closes
// after the last one. A fresh Consume call is the only restart.
func IntoStream() ConsumeOption {
	return func(co *consumeOptions) {
		co.intoStream = true
		co.sinks++
	}
}

// IntoNotify invokes fn once per completed element and makes Consume
// return immediately. It cannot be combined with IntoStream, where
// "done" has no single observer.
func IntoNotify(fn func(any)) ConsumeOption {
	return func(co *consumeOptions) {
		co.notify = fn
		co.sinks++
	}
}

// WhenDone registers a callback fired exactly once after the last
// element completes, receiving the full result.
func WhenDone(fn func(any)) ConsumeOption {
	return func(co *consumeOptions) { co.whenDone = fn }
}

// Consume applies the service's process operation to every element of
// items with at most the configured concurrency in flight. The default
// sink is a reified list in input order; see IntoMap, IntoStream and
// IntoNotify for the others. The returned value is []any, map[any]any,
// <-chan any or nil depending on the sink.
func (s *Service) Consume(items []any, options ...ConsumeOption) (any, error) {
	s.mu.Lock()
	ready := s.initialized
	s.mu.Unlock()
	if !ready {
		return nil, fmt.Errorf("service %v: %w (call Initialize first)", s.opts.ServiceName, ErrNotRunning)
	}

	co := &consumeOptions{
		concurrency: s.opts.Concurrency,
		timeout:     s.opts.Timeout,
		ordered:     true,
	}
	for _, opt := range options {
		opt(co)
	}
	if co.sinks > 1 {
		return nil, fmt.Errorf("consume accepts a single result sink")
	}
	if co.concurrency < 1 {
		return nil, fmt.Errorf("concurrency must be positive, got %v", co.concurrency)
	}

	switch {
	case co.intoStream:
		return s.consumeStream(items, co), nil
	case co.notify != nil:
		go s.consumeNotify(items, co)
		return nil, nil
	case co.intoMap:
		return s.consumeMap(items, co)
	default:
		return s.consumeList(items, co)
	}
}

func (s *Service) consumeList(items []any, co *consumeOptions) ([]any, error) {
	ctx, cancel := context.WithTimeout(context.Background(), co.timeout)
	defer cancel()
	results := make([]any, 0, len(items))
	err := s.consumeRun(ctx, items, co, func(v any) {
		results = append(results, v)
	})
	if err != nil {
		return nil, err
	}
	if co.whenDone != nil {
		co.whenDone(results)
	}
	return results, nil
}

func (s *Service) consumeMap(items []any, co *consumeOptions) (map[any]any, error) {
	for _, item := range items {
		if _, ok := item.(KV); !ok {
			return nil, fmt.Errorf("map sink needs KV elements, got %T", item)
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), co.timeout)
	defer cancel()
	result := make(map[any]any, len(items))
	var badResult error
	err := s.consumeRun(ctx, items, co, func(v any) {
		kv, ok := v.(KV)
		if !ok {
			badResult = fmt.Errorf("map sink needs the process function to return KV, got %T", v)
			return
		}
		result[kv.Key] = kv.Value
	})
	if err != nil {
		return nil, err
	}
	if badResult != nil {
		return nil, badResult
	}
	if co.whenDone != nil {
		co.whenDone(result)
	}
	return result, nil
}

func (s *Service) consumeStream(items []any, co *consumeOptions) <-chan any {
	out := make(chan any)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), co.timeout)
		defer cancel()
		var delivered []any
		err := s.consumeRun(ctx, items, co, func(v any) {
			delivered = append(delivered, v)
			select {
			case out <- v:
			case <-ctx.Done():
				// reader walked away; the run loop errors on its next pass
			}
		})
		close(out)
		if err != nil {
			log.Warnf("consume stream for %v ended early: %v", s.opts.ServiceName, err)
			return
		}
		if co.whenDone != nil {
			co.whenDone(delivered)
		}
	}()
	return out
}

func (s *Service) consumeNotify(items []any, co *consumeOptions) {
	ctx, cancel := context.WithTimeout(context.Background(), co.timeout)
	defer cancel()
	var delivered []any
	err := s.consumeRun(ctx, items, co, func(v any) {
		delivered = append(delivered, v)
		co.notify(v)
	})
	if err != nil {
		log.Warnf("consume notify for %v ended early: %v", s.opts.ServiceName, err)
		return
	}
	if co.whenDone != nil {
		co.whenDone(delivered)
	}
}

type consumeOutcome struct {
	v   any
	err error
}

// consumeRun is the shared engine: an errgroup sized to the
// concurrency bound is the admission gate for the process function,
// and emit receives every result from this goroutine - in input order
// when ordered, completion order otherwise. Every scheduled element
// produces exactly one outcome, so nothing leaks: elements not yet
// started when the deadline hits report the context error instead of
// running, while in-flight ones finish into their buffered slot.
func (s *Service) consumeRun(ctx context.Context, items []any, co *consumeOptions, emit func(any)) error {
	impl := s.processImpl

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(co.concurrency)

	completed := make(chan consumeOutcome, len(items))
	slots := make([]chan consumeOutcome, len(items))
	for i := range slots {
		slots[i] = make(chan consumeOutcome, 1)
	}

	done := make(chan error, 1)
	go func() {
		for i, item := range items {
			i, item := i, item
			g.Go(func() error {
				var out consumeOutcome
				if err := gctx.Err(); err != nil {
					out.err = err
				} else {
					out.v, out.err = runProcess(impl, item)
				}
				if co.ordered {
					slots[i] <- out
				} else {
					completed <- out
				}
				return out.err
			})
		}
		done <- g.Wait()
	}()

	var err error
collect:
	for i := 0; i < len(items); i++ {
		var out consumeOutcome
		if co.ordered {
			select {
			case out = <-slots[i]:
			case <-ctx.Done():
				err = ctx.Err()
				break collect
			}
		} else {
			select {
			case out = <-completed:
			case <-ctx.Done():
				err = ctx.Err()
				break collect
			}
		}
		if out.err != nil {
			err = out.err
			break
		}
		emit(out.v)
	}

	// every worker delivers its outcome to a buffered channel, so the
	// group drains even though we may have stopped collecting
	gerr := <-done
	if err == nil || errors.Is(err, context.Canceled) {
		if gerr != nil {
			err = gerr
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("consume of %v (%v): %w", s.opts.ServiceName, co.timeout, ErrConsumeTimeout)
	}
	return err
}

// one protected application of the process function
func runProcess(impl implFunc, item any) (v any, err error) {
	defer func() {
		if x := recover(); x != nil {
			err = fmt.Errorf("process(%v) panicked: %v", item, x)
		}
	}()
	return impl(nil, []any{item}), nil
}
