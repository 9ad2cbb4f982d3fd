package application

import (
	"context"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/scp-network/scpx-wallet/internal/core/domain"
)

const (
	// OpRefreshAssets asks a worker to refresh the listed assets.
	OpRefreshAssets = "REFRESH_ASSETS"

	requestQueueMaxSize  = 100
	responseQueueMaxSize = 100
)

// WorkerRequest is a unit of work sent to the pool. Wallet is the snapshot
// the request was built from.
type WorkerRequest struct {
	ID     uuid.UUID
	Op     string
	Assets []domain.DisplayableAsset
	Wallet domain.WalletState
}

// WorkerResponse carries the actions produced by a request, to be applied
// as a single batch. Op is the request op with a _DONE suffix.
type WorkerResponse struct {
	ID      uuid.UUID
	Op      string
	Actions []domain.Action
	Err     error
}

// WorkerHandler serves a request.
type WorkerHandler func(ctx context.Context, req WorkerRequest) ([]domain.Action, error)

// WorkerPool is a fixed set of goroutines consuming a request queue and
// publishing their results on a completion channel.
type WorkerPool struct {
	size      int
	handler   WorkerHandler
	requests  chan WorkerRequest
	responses chan WorkerResponse
	cancel    context.CancelFunc
	running   bool
	mutex     *sync.RWMutex
	wg        *sync.WaitGroup
}

func NewWorkerPool(size int, handler WorkerHandler) *WorkerPool {
	if size <= 0 {
		size = 1
	}
	return &WorkerPool{
		size:      size,
		handler:   handler,
		requests:  make(chan WorkerRequest, requestQueueMaxSize),
		responses: make(chan WorkerResponse, responseQueueMaxSize),
		mutex:     &sync.RWMutex{},
		wg:        &sync.WaitGroup{},
	}
}

// Start spawns the workers. Calling Start on a running pool is a no-op.
func (p *WorkerPool) Start(ctx context.Context) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.running {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.running = true

	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.work(ctx, i)
	}
}

// Stop cancels in-flight requests and waits for the workers to exit.
// Pending requests are dropped.
func (p *WorkerPool) Stop() {
	p.mutex.Lock()
	if !p.running {
		p.mutex.Unlock()
		return
	}
	p.running = false
	p.cancel()
	p.mutex.Unlock()

	p.wg.Wait()
}

// Submit enqueues a request. It blocks while the queue is full.
func (p *WorkerPool) Submit(ctx context.Context, req WorkerRequest) error {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	if !p.running {
		return ErrPoolNotRunning
	}
	select {
	case p.requests <- req:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Responses returns the completion channel.
func (p *WorkerPool) Responses() <-chan WorkerResponse {
	return p.responses
}

func (p *WorkerPool) work(ctx context.Context, n int) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case req := <-p.requests:
			log.Debugf("worker %d: serving %s %s", n, req.Op, req.ID)
			actions, err := p.handler(ctx, req)
			res := WorkerResponse{
				ID:      req.ID,
				Op:      req.Op + "_DONE",
				Actions: actions,
				Err:     err,
			}
			select {
			case p.responses <- res:
			case <-ctx.Done():
				return
			}
		}
	}
}
