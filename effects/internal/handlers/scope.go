package handlers

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrHandlerClosed is reported to callers performing an effect on a handler
// that has already been torn down.
var ErrHandlerClosed = errors.New("effect handler is closed")

// effectScope owns one dispatcher and the teardown of the capability behind it.
//
// Close is meant to be called once, by the goroutine that registered the
// handler. Performing effects concurrently with Close is tolerated: late
// senders observe ErrHandlerClosed instead of a panic.
type effectScope[T any] struct {
	EffectId   string
	dispatcher WorkerDispatcher[T]
	closeFn    func()
	closed     bool
}

func (es *effectScope[T]) Close() {
	if !es.closed {
		es.closed = true
		es.dispatcher.Close()
		es.closeFn()
		zap.L().Debug("effect scope closed", zap.String("effectId", es.EffectId))
	}
}

func newEffectScope[T any](
	dispatcher WorkerDispatcher[T],
	teardown func(),
) *effectScope[T] {
	return &effectScope[T]{
		EffectId:   uuid.New().String(),
		dispatcher: dispatcher,
		closeFn:    teardown,
		closed:     false,
	}
}

// send hands msg to its worker unless ctx is done first.
// A dispatcher closed underneath the caller yields ErrHandlerClosed.
func send[T any](ctx context.Context, dispatcher WorkerDispatcher[T], msg T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = ErrHandlerClosed
		}
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case dispatcher.GetChannelOf(msg) <- msg:
		return nil
	}
}
