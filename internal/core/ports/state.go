package ports

import "github.com/scp-network/scpx-wallet/internal/core/domain"

// StateStore holds the wallet state. GetState returns a consistent snapshot,
// DispatchBatch applies all the given actions as one transition.
// Subscribers are signaled after every transition, without blocking the
// dispatcher: a slow subscriber may miss intermediate signals but always
// observes the latest state through GetState.
type StateStore interface {
	Dispatch(action domain.Action)
	DispatchBatch(actions []domain.Action)
	GetState() domain.WalletState
	Subscribe() (<-chan struct{}, func())
}
