package application_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/scp-network/scpx-wallet/internal/core/ports"
	"github.com/stretchr/testify/mock"
)

// **** Provider ****

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) GetBalance(_ context.Context, addr string) (*ports.Balance, error) {
	args := m.Called(addr)

	var res *ports.Balance
	if a := args.Get(0); a != nil {
		res = a.(*ports.Balance)
	}
	return res, args.Error(1)
}

func (m *mockProvider) GetTxIds(
	_ context.Context, addr string, hint ports.RangeHint,
) ([]string, error) {
	args := m.Called(addr, hint)

	var res []string
	if a := args.Get(0); a != nil {
		res = a.([]string)
	}
	return res, args.Error(1)
}

func (m *mockProvider) GetTxDetail(_ context.Context, txid string) (*ports.TxDetail, error) {
	args := m.Called(txid)

	var res *ports.TxDetail
	if a := args.Get(0); a != nil {
		res = a.(*ports.TxDetail)
	}
	return res, args.Error(1)
}

func (m *mockProvider) GetTxReceipt(_ context.Context, txid string) (*ports.TxReceipt, error) {
	args := m.Called(txid)

	var res *ports.TxReceipt
	if a := args.Get(0); a != nil {
		res = a.(*ports.TxReceipt)
	}
	return res, args.Error(1)
}

func (m *mockProvider) GetBlock(_ context.Context, number int64) (*ports.Block, error) {
	args := m.Called(number)

	var res *ports.Block
	if a := args.Get(0); a != nil {
		res = a.(*ports.Block)
	}
	return res, args.Error(1)
}

// **** Resolver ****

type mockResolver map[string]ports.ChainDataProvider

func (m mockResolver) ProviderFor(chainName string) (ports.ChainDataProvider, error) {
	p, ok := m[chainName]
	if !ok {
		return nil, fmt.Errorf("no provider for %s", chainName)
	}
	return p, nil
}

// **** Recording provider ****

// eventLog records provider calls across chains, in call order.
type eventLog struct {
	lock   sync.Mutex
	events []string
}

func (l *eventLog) add(event string) {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.events = append(l.events, event)
}

func (l *eventLog) list() []string {
	l.lock.Lock()
	defer l.lock.Unlock()
	return append([]string{}, l.events...)
}

func (l *eventLog) indexOf(event string) int {
	for i, e := range l.list() {
		if e == event {
			return i
		}
	}
	return -1
}

// recordingProvider serves empty addresses. GetBalance logs "<name>" when
// called and "<name>:done" when it returns. If release is set the call
// blocks until it is closed.
type recordingProvider struct {
	name    string
	log     *eventLog
	delay   time.Duration
	release chan struct{}
	called  chan struct{}
	once    sync.Once
}

func newRecordingProvider(name string, log *eventLog) *recordingProvider {
	return &recordingProvider{name: name, log: log, called: make(chan struct{})}
}

func (p *recordingProvider) GetBalance(ctx context.Context, _ string) (*ports.Balance, error) {
	p.log.add(p.name)
	p.once.Do(func() { close(p.called) })

	if p.release != nil {
		select {
		case <-p.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	p.log.add(p.name + ":done")
	return &ports.Balance{}, nil
}

func (p *recordingProvider) GetTxIds(context.Context, string, ports.RangeHint) ([]string, error) {
	return []string{}, nil
}

func (p *recordingProvider) GetTxDetail(context.Context, string) (*ports.TxDetail, error) {
	return nil, fmt.Errorf("not found")
}

func (p *recordingProvider) GetTxReceipt(context.Context, string) (*ports.TxReceipt, error) {
	return nil, fmt.Errorf("not found")
}

func (p *recordingProvider) GetBlock(context.Context, int64) (*ports.Block, error) {
	return nil, fmt.Errorf("not found")
}
