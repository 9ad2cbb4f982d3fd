package ports

import (
	"context"
	"math/big"
)

// Balance is the balance of an address in the chain base unit.
type Balance struct {
	Confirmed   *big.Int
	Unconfirmed *big.Int
}

// RangeHint narrows a tx id lookup. Zero values mean no bound.
type RangeHint struct {
	FromBlock int64
	ToBlock   int64
	PageSize  int
}

// TxIO is an input or output of a UTXO transaction.
type TxIO struct {
	Addr  string
	Value *big.Int
}

// TxDetail is a transaction as returned by a provider. BlockNumber is -1
// for transactions not yet mined. Inputs, Outputs and Fee are only set by
// UTXO providers, Timestamp only when the provider knows the block time.
type TxDetail struct {
	Hash        string
	From        string
	To          string
	Value       *big.Int
	Gas         uint64
	GasPrice    *big.Int
	BlockNumber int64
	Input       []byte
	Timestamp   int64
	Fee         *big.Int
	Inputs      []TxIO
	Outputs     []TxIO
}

// TxReceipt is the execution outcome of an EVM transaction.
type TxReceipt struct {
	Status      uint64
	GasUsed     uint64
	BlockNumber int64
}

// Block ...
type Block struct {
	Number    int64
	Timestamp int64
}

// ProviderUtxo is an unspent output as returned by a provider.
type ProviderUtxo struct {
	Txid          string
	Vout          uint32
	Value         *big.Int
	Confirmations int64
}

// ChainDataProvider is the source of balances and transactions of a chain.
type ChainDataProvider interface {
	GetBalance(ctx context.Context, addr string) (*Balance, error)
	GetTxIds(ctx context.Context, addr string, hint RangeHint) ([]string, error)
	GetTxDetail(ctx context.Context, txid string) (*TxDetail, error)
	GetTxReceipt(ctx context.Context, txid string) (*TxReceipt, error)
	GetBlock(ctx context.Context, number int64) (*Block, error)
}

// UtxoProvider is implemented by providers able to list unspents.
type UtxoProvider interface {
	GetUtxos(ctx context.Context, addr string) ([]ProviderUtxo, error)
}

// ProviderResolver returns the provider of a chain, by chain name.
type ProviderResolver interface {
	ProviderFor(chainName string) (ChainDataProvider, error)
}
