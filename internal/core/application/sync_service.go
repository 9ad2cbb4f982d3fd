package application

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/scp-network/scpx-wallet/internal/core/domain"
	"github.com/scp-network/scpx-wallet/internal/core/ports"
)

const (
	DefaultPollInterval   = time.Second
	DefaultHostTimeout    = 2 * time.Minute
	DefaultRefreshTimeout = 5 * time.Minute
)

// SyncService refreshes the balances and histories of the wallet. EVM host
// chains are always refreshed before their tokens, since token histories
// are resolved from host chain transactions.
type SyncService interface {
	Start(ctx context.Context)
	Stop()
	Refresh(ctx context.Context) error
}

// SyncServiceOpts ...
type SyncServiceOpts struct {
	Store    ports.StateStore
	Resolver ports.ProviderResolver
	Enricher *TxEnricher
	Workers  int
	MaxTxs   int
	// PollInterval is the fallback period of the completion checks, in
	// addition to the store notifications.
	PollInterval   time.Duration
	HostTimeout    time.Duration
	RefreshTimeout time.Duration
	// Interval is the period of the background refresh, 0 disables it.
	Interval time.Duration
}

func (o SyncServiceOpts) validate() error {
	if o.Store == nil || o.Resolver == nil || o.Enricher == nil {
		return &domain.ConfigurationError{Chain: "*", Err: errors.New("missing state store, provider resolver or tx enricher")}
	}
	return nil
}

type syncService struct {
	store          ports.StateStore
	refresher      *assetRefresher
	pool           *WorkerPool
	pollInterval   time.Duration
	hostTimeout    time.Duration
	refreshTimeout time.Duration
	interval       time.Duration

	refreshing atomic.Bool
	// pending holds the ids of the requests of the current refresh. A
	// response is applied at most once, and only if its request belongs to
	// the current refresh.
	pending map[uuid.UUID]struct{}
	lock    *sync.Mutex

	cancel context.CancelFunc
	wg     *sync.WaitGroup
}

func NewSyncService(opts SyncServiceOpts) (SyncService, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	svc := &syncService{
		store:          opts.Store,
		refresher:      newAssetRefresher(opts.Resolver, opts.Enricher, opts.MaxTxs),
		pollInterval:   valueOrDefault(opts.PollInterval, DefaultPollInterval),
		hostTimeout:    valueOrDefault(opts.HostTimeout, DefaultHostTimeout),
		refreshTimeout: valueOrDefault(opts.RefreshTimeout, DefaultRefreshTimeout),
		interval:       opts.Interval,
		pending:        make(map[uuid.UUID]struct{}),
		lock:           &sync.Mutex{},
		wg:             &sync.WaitGroup{},
	}
	svc.pool = NewWorkerPool(opts.Workers, svc.handle)
	return svc, nil
}

func (s *syncService) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.pool.Start(ctx)

	s.wg.Add(1)
	go s.applyResponses(ctx)

	if s.interval > 0 {
		s.wg.Add(1)
		go s.refreshPeriodically(ctx)
	}
	log.Debug("sync service started")
}

func (s *syncService) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.pool.Stop()
	s.wg.Wait()
	log.Debug("sync service stopped")
}

// Refresh refreshes every asset of the wallet and blocks until all of them
// are marked as updated. Tokens are dispatched only once every EVM host
// chain completed. Cancelling ctx abandons the wait, dispatched requests
// keep running.
func (s *syncService) Refresh(ctx context.Context) (err error) {
	if !s.refreshing.CompareAndSwap(false, true) {
		return ErrRefreshInProgress
	}
	defer s.refreshing.Store(false)

	start := time.Now()
	defer func() {
		refreshDuration.WithLabelValues(outcome(err)).Observe(time.Since(start).Seconds())
	}()

	state := s.store.GetState()
	if len(state.Assets) <= 0 {
		return ErrWalletNotLoaded
	}
	deadline := start.Add(s.refreshTimeout)

	hosts, tokens, others := partitionAssets(state.Assets)

	resets := make([]domain.Action, 0, len(state.Assets))
	for _, a := range state.Assets {
		resets = append(resets, domain.SetAssetUpdated{Symbol: a.Symbol})
	}
	s.resetPending(resets)
	state = s.store.GetState()

	if len(others) > 0 {
		if err := s.submit(ctx, state, others...); err != nil {
			return err
		}
	}
	for _, host := range hosts {
		if err := s.submit(ctx, state, host); err != nil {
			return err
		}
	}

	if len(tokens) > 0 {
		if err := s.waitFor(ctx, symbolsOf(hosts), s.hostTimeout); err != nil {
			if errors.Is(err, errWaitTimeout) {
				log.Errorf(
					"sync: host chains %v did not complete within %s, %d tokens not refreshed",
					symbolsOf(hosts), s.hostTimeout, len(tokens),
				)
				return ErrHostChainStalled
			}
			return err
		}
		state = s.store.GetState()
		for _, token := range tokens {
			if err := s.submit(ctx, state, token); err != nil {
				return err
			}
		}
	}

	if err := s.waitFor(ctx, symbolsOf(state.Assets), time.Until(deadline)); err != nil {
		if errors.Is(err, errWaitTimeout) {
			return ErrRefreshTimeout
		}
		return err
	}
	log.Debugf("sync: wallet refreshed in %s", time.Since(start))
	return nil
}

func (s *syncService) submit(
	ctx context.Context, state domain.WalletState, assets ...domain.DisplayableAsset,
) error {
	req := WorkerRequest{
		ID:     uuid.New(),
		Op:     OpRefreshAssets,
		Assets: assets,
		Wallet: state,
	}
	s.lock.Lock()
	s.pending[req.ID] = struct{}{}
	s.lock.Unlock()

	log.Debugf("sync: dispatching %s for %v", req.ID, symbolsOf(assets))
	return s.pool.Submit(ctx, req)
}

func (s *syncService) handle(ctx context.Context, req WorkerRequest) ([]domain.Action, error) {
	actions := make([]domain.Action, 0)
	for _, asset := range req.Assets {
		if ctx.Err() != nil {
			return actions, ctx.Err()
		}
		actions = append(actions, s.refresher.refresh(ctx, req.Wallet.Owner, asset)...)
	}
	return actions, nil
}

func (s *syncService) applyResponses(ctx context.Context) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case res := <-s.pool.Responses():
			s.applyResponse(res)
		}
	}
}

// applyResponse dispatches the actions of a response of the current
// refresh. Responses of a previous refresh, and duplicates, are dropped.
// The lookup and the dispatch happen under the same lock as resetPending,
// so a late response can never land after the reset of a new refresh.
func (s *syncService) applyResponse(res WorkerResponse) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if _, ok := s.pending[res.ID]; !ok {
		log.Debugf("sync: dropping stale response %s", res.ID)
		return
	}
	delete(s.pending, res.ID)

	if res.Err != nil {
		log.WithError(res.Err).Warnf("sync: %s %s", res.Op, res.ID)
	}
	if len(res.Actions) > 0 {
		s.store.DispatchBatch(res.Actions)
	}
}

// resetPending forgets the requests of the previous refresh and dispatches
// the given reset actions as one step.
func (s *syncService) resetPending(resets []domain.Action) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.pending = make(map[uuid.UUID]struct{})
	s.store.DispatchBatch(resets)
}

func (s *syncService) refreshPeriodically(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil {
				switch {
				case errors.Is(err, ErrRefreshInProgress), errors.Is(err, ErrWalletNotLoaded):
					log.WithError(err).Debug("sync: periodic refresh skipped")
				case errors.Is(err, context.Canceled):
				default:
					log.WithError(err).Warn("sync: periodic refresh failed")
				}
			}
		}
	}
}

var errWaitTimeout = errors.New("wait timed out")

// waitFor blocks until every listed asset is marked as updated. It wakes up
// on every state change and at least once per poll interval.
func (s *syncService) waitFor(ctx context.Context, symbols []string, timeout time.Duration) error {
	notifications, unsubscribe := s.store.Subscribe()
	defer unsubscribe()

	if timeout <= 0 {
		timeout = time.Nanosecond
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		if allUpdated(s.store.GetState(), symbols) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			if allUpdated(s.store.GetState(), symbols) {
				return nil
			}
			return errWaitTimeout
		case <-notifications:
		case <-ticker.C:
		}
	}
}

func allUpdated(state domain.WalletState, symbols []string) bool {
	for _, symbol := range symbols {
		asset, ok := state.AssetBySymbol(symbol)
		if !ok {
			continue
		}
		if asset.LastAssetUpdateAt == nil {
			return false
		}
	}
	return true
}

// partitionAssets splits the assets into EVM hosts, tokens and everything
// else.
func partitionAssets(
	assets []domain.DisplayableAsset,
) (hosts, tokens, others []domain.DisplayableAsset) {
	for _, a := range assets {
		switch {
		case a.IsToken():
			tokens = append(tokens, a)
		case a.IsEVMHost():
			hosts = append(hosts, a)
		default:
			others = append(others, a)
		}
	}
	return
}

func symbolsOf(assets []domain.DisplayableAsset) []string {
	symbols := make([]string, 0, len(assets))
	for _, a := range assets {
		symbols = append(symbols, a.Symbol)
	}
	return symbols
}

func valueOrDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
