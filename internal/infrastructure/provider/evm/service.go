// Package evm is a chain data provider for EVM chains and their ERC20
// tokens. Balances, transactions and receipts come from a JSON-RPC node,
// while the tx ids of an address come from an indexer since the node does
// not index them.
package evm

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/scp-network/scpx-wallet/internal/core/ports"
	"github.com/scp-network/scpx-wallet/pkg/chain"
	"github.com/scp-network/scpx-wallet/pkg/circuitbreaker"
	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

var (
	// ErrMissingBackend ...
	ErrMissingBackend = errors.New("missing evm rpc backend")
	// ErrInvalidAddress ...
	ErrInvalidAddress = errors.New("invalid evm address")
	// ErrInvalidTxid ...
	ErrInvalidTxid = errors.New("invalid evm tx hash")
)

// Backend is the subset of the node JSON-RPC used by the provider.
// *ethclient.Client satisfies it.
type Backend interface {
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	PendingBalanceAt(ctx context.Context, account common.Address) (*big.Int, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, bool, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
}

// Opts defines the parameters needed for creating an evm service.
type Opts struct {
	Name    string
	Backend Backend
	// Indexer lists the tx ids of an address. It is optional, without it
	// addresses have no history.
	Indexer ports.ChainDataProvider
	// Contract makes the service a token provider: balances are read from
	// the contract balanceOf.
	Contract string
}

func (o Opts) validate() error {
	if o.Backend == nil {
		return ErrMissingBackend
	}
	if o.Contract != "" && !common.IsHexAddress(o.Contract) {
		return fmt.Errorf("%w: contract %s", ErrInvalidAddress, o.Contract)
	}
	return nil
}

type Service struct {
	name     string
	backend  Backend
	indexer  ports.ChainDataProvider
	contract *common.Address
	cb       *gobreaker.CircuitBreaker

	noIndexerOnce sync.Once
}

func NewService(opts Opts) (*Service, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	svc := &Service{
		name:    opts.Name,
		backend: opts.Backend,
		indexer: opts.Indexer,
		cb:      circuitbreaker.NewCircuitBreaker("evm " + opts.Name),
	}
	if opts.Contract != "" {
		contract := common.HexToAddress(opts.Contract)
		svc.contract = &contract
	}
	return svc, nil
}

var _ ports.ChainDataProvider = (*Service)(nil)

func (s *Service) GetBalance(ctx context.Context, addr string) (*ports.Balance, error) {
	if !common.IsHexAddress(addr) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAddress, addr)
	}
	account := common.HexToAddress(addr)

	if s.contract != nil {
		balance, err := s.tokenBalance(ctx, account)
		if err != nil {
			return nil, err
		}
		return &ports.Balance{Confirmed: balance, Unconfirmed: big.NewInt(0)}, nil
	}

	confirmed, err := circuitbreaker.Execute(s.cb, func() (*big.Int, error) {
		return s.backend.BalanceAt(ctx, account, nil)
	})
	if err != nil {
		return nil, err
	}
	pending, err := circuitbreaker.Execute(s.cb, func() (*big.Int, error) {
		return s.backend.PendingBalanceAt(ctx, account)
	})
	if err != nil {
		return nil, err
	}
	return &ports.Balance{
		Confirmed:   confirmed,
		Unconfirmed: new(big.Int).Sub(pending, confirmed),
	}, nil
}

func (s *Service) tokenBalance(ctx context.Context, account common.Address) (*big.Int, error) {
	data, err := chain.PackBalanceOf(account.Hex())
	if err != nil {
		return nil, err
	}
	out, err := circuitbreaker.Execute(s.cb, func() ([]byte, error) {
		return s.backend.CallContract(ctx, ethereum.CallMsg{To: s.contract, Data: data}, nil)
	})
	if err != nil {
		return nil, err
	}
	values, err := chain.ERC20ABI.Unpack("balanceOf", out)
	if err != nil {
		return nil, fmt.Errorf("failed to decode balanceOf result: %w", err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("unexpected balanceOf result length %d", len(values))
	}
	balance, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected balanceOf result type %T", values[0])
	}
	return balance, nil
}

func (s *Service) GetTxIds(
	ctx context.Context, addr string, hint ports.RangeHint,
) ([]string, error) {
	if s.indexer == nil {
		s.noIndexerOnce.Do(func() {
			log.Warnf("%s: no tx indexer configured, address history is empty", s.name)
		})
		return []string{}, nil
	}
	return s.indexer.GetTxIds(ctx, addr, hint)
}

// GetTxDetail returns the tx with the gas price actually paid. The block
// timestamp is left to GetBlock.
func (s *Service) GetTxDetail(ctx context.Context, txid string) (*ports.TxDetail, error) {
	hash, err := parseHash(txid)
	if err != nil {
		return nil, err
	}

	type result struct {
		tx        *types.Transaction
		isPending bool
	}
	res, err := circuitbreaker.Execute(s.cb, func() (result, error) {
		tx, isPending, err := s.backend.TransactionByHash(ctx, hash)
		return result{tx, isPending}, err
	})
	if err != nil {
		return nil, err
	}
	tx := res.tx

	from, err := types.Sender(types.LatestSignerForChainID(tx.ChainId()), tx)
	if err != nil {
		return nil, fmt.Errorf("failed to recover sender of %s: %w", txid, err)
	}

	detail := &ports.TxDetail{
		Hash:        strings.ToLower(tx.Hash().Hex()),
		From:        strings.ToLower(from.Hex()),
		Value:       tx.Value(),
		Gas:         tx.Gas(),
		GasPrice:    tx.GasPrice(),
		BlockNumber: -1,
		Input:       tx.Data(),
	}
	if tx.To() != nil {
		detail.To = strings.ToLower(tx.To().Hex())
	}
	if res.isPending {
		return detail, nil
	}

	receipt, err := s.receipt(ctx, hash)
	if err != nil {
		return nil, err
	}
	if receipt.BlockNumber != nil {
		detail.BlockNumber = receipt.BlockNumber.Int64()
	}
	if receipt.EffectiveGasPrice != nil && receipt.EffectiveGasPrice.Sign() > 0 {
		detail.GasPrice = receipt.EffectiveGasPrice
	}
	return detail, nil
}

func (s *Service) GetTxReceipt(ctx context.Context, txid string) (*ports.TxReceipt, error) {
	hash, err := parseHash(txid)
	if err != nil {
		return nil, err
	}
	receipt, err := s.receipt(ctx, hash)
	if err != nil {
		return nil, err
	}
	blockNumber := int64(-1)
	if receipt.BlockNumber != nil {
		blockNumber = receipt.BlockNumber.Int64()
	}
	return &ports.TxReceipt{
		Status:      receipt.Status,
		GasUsed:     receipt.GasUsed,
		BlockNumber: blockNumber,
	}, nil
}

func (s *Service) GetBlock(ctx context.Context, number int64) (*ports.Block, error) {
	header, err := circuitbreaker.Execute(s.cb, func() (*types.Header, error) {
		return s.backend.HeaderByNumber(ctx, big.NewInt(number))
	})
	if err != nil {
		return nil, err
	}
	return &ports.Block{Number: header.Number.Int64(), Timestamp: int64(header.Time)}, nil
}

func (s *Service) receipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	return circuitbreaker.Execute(s.cb, func() (*types.Receipt, error) {
		return s.backend.TransactionReceipt(ctx, hash)
	})
}

func parseHash(txid string) (common.Hash, error) {
	raw := strings.TrimPrefix(strings.ToLower(txid), "0x")
	if len(raw) != 2*common.HashLength {
		return common.Hash{}, fmt.Errorf("%w: %s", ErrInvalidTxid, txid)
	}
	return common.HexToHash(raw), nil
}
