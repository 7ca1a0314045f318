package transport

import (
	"context"
	"errors"
	"runtime"
	"sync/atomic"
)

// ErrRingBufferShutdownTimeout is returned when Shutdown's context expires
// before every claimed slot has been consumed.
var ErrRingBufferShutdownTimeout = errors.New("ringbuffer: shutdown timed out waiting for drain")

// EventHandler processes events pulled off a RingBuffer's single consumer
// goroutine, in publish order.
type EventHandler[T any] interface {
	OnEvent(event T)
}

// RingBuffer is a multi-producer, single-consumer ring buffer used to
// stage outbound market-data frames ahead of the multicast sender: any
// number of OrderBook-side goroutines can Publish a frame concurrently,
// and exactly one consumer goroutine drains them strictly in the order
// their sequence numbers were claimed, which is what lets the multicast
// sink assign gap-detectable seq_nums without itself needing a lock.
// Capacity must be a power of two so slot indexing can use a mask instead
// of a modulo.
type RingBuffer[T any] struct {
	producerSequence atomic.Int64
	consumerSequence atomic.Int64

	buffer     []T
	bufferMask int64
	capacity   int64

	// published[i] holds the sequence number last written into buffer[i],
	// or -1 if that slot has never been published; the consumer spins on
	// this to know when a claimed slot's write has landed.
	published []int64

	handler EventHandler[T]

	isShutdown atomic.Bool
}

func NewRingBuffer[T any](capacity int64, handler EventHandler[T]) *RingBuffer[T] {
	if capacity <= 0 || (capacity&(capacity-1)) != 0 {
		panic("ringbuffer: capacity must be a power of 2")
	}

	rb := &RingBuffer[T]{
		buffer:     make([]T, capacity),
		published:  make([]int64, capacity),
		capacity:   capacity,
		bufferMask: capacity - 1,
		handler:    handler,
	}
	rb.producerSequence.Store(-1)
	rb.consumerSequence.Store(-1)
	for i := range rb.published {
		rb.published[i] = -1
	}
	return rb
}

// Publish claims the next sequence number and writes event into its slot.
// Safe to call from any number of goroutines concurrently. If the buffer
// is full, Publish spins (yielding via runtime.Gosched) until the
// consumer catches up; it never drops an event, since market-data
// sequence gaps are worse than a brief producer stall.
func (rb *RingBuffer[T]) Publish(event T) {
	if rb.isShutdown.Load() {
		return
	}

	var nextSeq int64
	for {
		currentProducerSeq := rb.producerSequence.Load()
		nextSeq = currentProducerSeq + 1

		wrapPoint := nextSeq - rb.capacity
		consumerSeq := rb.consumerSequence.Load()
		if wrapPoint > consumerSeq {
			runtime.Gosched()
			continue
		}

		if rb.producerSequence.CompareAndSwap(currentProducerSeq, nextSeq) {
			break
		}
		runtime.Gosched()
	}

	index := nextSeq & rb.bufferMask
	rb.buffer[index] = event
	atomic.StoreInt64(&rb.published[index], nextSeq)
}

// Start launches the consumer goroutine.
func (rb *RingBuffer[T]) Start() {
	go rb.consumerLoop()
}

// Shutdown stops accepting new Publish calls and blocks until the
// consumer has drained every already-claimed slot, or ctx expires.
func (rb *RingBuffer[T]) Shutdown(ctx context.Context) error {
	rb.isShutdown.Store(true)

	for {
		select {
		case <-ctx.Done():
			return ErrRingBufferShutdownTimeout
		default:
			if rb.ConsumerSequence() >= rb.ProducerSequence() {
				return nil
			}
			runtime.Gosched()
		}
	}
}

func (rb *RingBuffer[T]) consumerLoop() {
	nextConsumerSeq := rb.consumerSequence.Load() + 1

	for {
		availableSeq := rb.producerSequence.Load()

		if rb.isShutdown.Load() {
			rb.drainRemaining(nextConsumerSeq)
			return
		}

		processed := false
		for nextConsumerSeq <= availableSeq {
			index := nextConsumerSeq & rb.bufferMask
			for atomic.LoadInt64(&rb.published[index]) != nextConsumerSeq {
				runtime.Gosched()
			}

			rb.handler.OnEvent(rb.buffer[index])
			rb.consumerSequence.Store(nextConsumerSeq)
			nextConsumerSeq++
			processed = true
		}

		if !processed {
			runtime.Gosched()
		}
	}
}

func (rb *RingBuffer[T]) drainRemaining(nextConsumerSeq int64) {
	availableSeq := rb.producerSequence.Load()

	for nextConsumerSeq <= availableSeq {
		index := nextConsumerSeq & rb.bufferMask
		for atomic.LoadInt64(&rb.published[index]) != nextConsumerSeq {
			runtime.Gosched()
		}

		rb.handler.OnEvent(rb.buffer[index])
		rb.consumerSequence.Store(nextConsumerSeq)
		nextConsumerSeq++
	}
}

func (rb *RingBuffer[T]) ConsumerSequence() int64 {
	return rb.consumerSequence.Load()
}

func (rb *RingBuffer[T]) ProducerSequence() int64 {
	return rb.producerSequence.Load()
}

func (rb *RingBuffer[T]) PendingEvents() int64 {
	return rb.producerSequence.Load() - rb.consumerSequence.Load()
}
