package handlers

import (
	"context"
	"sync"

	effectmodel "github.com/on-the-ground/wrapped_ive_go/effects/internal/model"
)

// --- common interface ---

// WorkerDispatcher routes messages to the channel of the worker that owns them.
//
// Close stops accepting messages, lets the workers drain what is already
// buffered and returns once every worker has exited.
type WorkerDispatcher[T any] interface {
	GetChannelOf(msg T) chan T
	Close()
}

// workers is the lifecycle shared by both dispatchers.
type workers[T any] struct {
	channels []chan T
	wg       sync.WaitGroup
	once     sync.Once
}

func (w *workers[T]) spawn(
	ctx context.Context,
	numWorkers, bufferSize int,
	handleFn func(context.Context, T),
) {
	w.channels = make([]chan T, numWorkers)
	ready := sync.WaitGroup{}
	for i := 0; i < numWorkers; i++ {
		ch := make(chan T, bufferSize)
		ready.Add(1)
		w.wg.Add(1)
		go func(ch chan T) {
			defer w.wg.Done()
			ready.Done()
			for {
				select {
				case msg, ok := <-ch:
					if !ok {
						return
					}
					handleFn(ctx, msg)
				case <-ctx.Done():
					return
				}
			}
		}(ch)
		w.channels[i] = ch
	}
	ready.Wait()
}

func (w *workers[T]) Close() {
	w.once.Do(func() {
		for _, ch := range w.channels {
			close(ch)
		}
	})
	w.wg.Wait()
}

// --- single queue ---

type singleQueue[T any] struct {
	*workers[T]
}

func (q singleQueue[T]) GetChannelOf(_ T) chan T {
	return q.channels[0]
}

// NewSingleQueue starts one worker. Messages are handled in send order.
func NewSingleQueue[T any](
	ctx context.Context,
	bufferSize int,
	handleFn func(context.Context, T),
) WorkerDispatcher[T] {
	w := &workers[T]{}
	w.spawn(ctx, 1, bufferSize, handleFn)
	return singleQueue[T]{workers: w}
}

// --- partitioned queue ---

type partitionedQueue[T effectmodel.Partitionable] struct {
	*workers[T]
}

func (pq partitionedQueue[T]) GetChannelOf(msg T) chan T {
	return pq.channels[getIndexByHash(msg, len(pq.channels))]
}

// NewPartitionedQueue starts numWorkers workers. Messages sharing a
// PartitionKey always land on the same worker.
func NewPartitionedQueue[T effectmodel.Partitionable](
	ctx context.Context,
	numWorkers, bufferSize int,
	handleFn func(context.Context, T),
) WorkerDispatcher[T] {
	w := &workers[T]{}
	w.spawn(ctx, numWorkers, bufferSize, handleFn)
	return partitionedQueue[T]{workers: w}
}
