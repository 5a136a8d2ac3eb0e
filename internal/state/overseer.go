package state

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// ErrOverseerStopped is returned by Offer after Stop has been called.
var ErrOverseerStopped = errors.New("overseer is stopped")

// QueuedMessage is a raw shard-create message as submitted by a caller. The
// collection name is carried exactly as received, so it may still be an
// alias; resolving it (or rejecting it) is up to whoever applies the
// mutation downstream.
type QueuedMessage struct {
	Collection string `json:"collection"`
	Shard      string `json:"shard"`
}

// Overseer is the single central coordinator for asynchronously submitted
// cluster-state mutations. Callers enqueue raw messages with Offer and the
// worker goroutine applies them to the store in submission order. Apply
// errors cannot be reported back to the submitter; they are logged, and the
// submitter observes the failure as a convergence timeout.
type Overseer struct {
	store  *Store
	queue  chan QueuedMessage
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	log    *zap.Logger

	mu      sync.Mutex
	stopped bool
}

// NewOverseer creates an overseer with the given queue depth.
func NewOverseer(store *Store, queueDepth int, log *zap.Logger) *Overseer {
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Overseer{
		store:  store,
		queue:  make(chan QueuedMessage, queueDepth),
		ctx:    ctx,
		cancel: cancel,
		log:    log,
	}
}

// Start launches the worker goroutine.
func (o *Overseer) Start() {
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()

		o.log.Info("overseer started")
		for {
			select {
			case msg := <-o.queue:
				o.apply(msg)
			case <-o.ctx.Done():
				// Drain whatever was accepted before Stop.
				for {
					select {
					case msg := <-o.queue:
						o.apply(msg)
					default:
						return
					}
				}
			}
		}
	}()
}

// Offer enqueues a raw message for asynchronous processing. It blocks while
// the queue is full and fails if the overseer is stopped or ctx expires.
func (o *Overseer) Offer(ctx context.Context, msg QueuedMessage) error {
	o.mu.Lock()
	stopped := o.stopped
	o.mu.Unlock()
	if stopped {
		return ErrOverseerStopped
	}

	select {
	case o.queue <- msg:
		return nil
	case <-o.ctx.Done():
		return ErrOverseerStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop shuts the overseer down after draining already accepted messages.
func (o *Overseer) Stop() {
	o.mu.Lock()
	o.stopped = true
	o.mu.Unlock()

	o.cancel()
	o.wg.Wait()
	o.log.Info("overseer stopped")
}

func (o *Overseer) apply(msg QueuedMessage) {
	err := o.store.CreateShard(CreateShardCommand{
		Collection: msg.Collection,
		Shard:      msg.Shard,
	})
	if err != nil {
		o.log.Warn("overseer failed to apply shard create",
			zap.String("collection", msg.Collection),
			zap.String("shard", msg.Shard),
			zap.Error(err))
		return
	}
	o.log.Info("overseer applied shard create",
		zap.String("collection", msg.Collection),
		zap.String("shard", msg.Shard))
}
