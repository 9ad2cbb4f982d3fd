package domain

import (
	"context"
	"fmt"
)

// TxCacheKey identifies a resolved transaction. Family is the symbol of the
// host chain, shared by the chain and its tokens.
type TxCacheKey struct {
	Family string
	Owner  string
	Txid   string
}

func (k TxCacheKey) String() string {
	return fmt.Sprintf("%s_%s_txid_%s", k.Family, k.Owner, k.Txid)
}

// TxCache stores resolved transactions. Get returns nil, nil on a miss.
// Put stores tx unless a confirmed entry already exists for key, in which
// case it returns false and leaves the stored entry untouched.
type TxCache interface {
	Get(ctx context.Context, key TxCacheKey) (*EnrichedTx, error)
	Put(ctx context.Context, key TxCacheKey, tx EnrichedTx) (bool, error)
}

// CanReplace returns whether a stored entry may be superseded.
func CanReplace(stored *EnrichedTx) bool {
	return stored == nil || !stored.IsConfirmed()
}
