// Package blockbook is a chain data provider backed by the REST API (v2) of
// a Blockbook indexer.
package blockbook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/scp-network/scpx-wallet/internal/core/ports"
	"github.com/scp-network/scpx-wallet/pkg/circuitbreaker"
	"github.com/sony/gobreaker"
	"go.uber.org/ratelimit"
)

const (
	DefaultRateLimit = 10
	DefaultTimeout   = 15 * time.Second
	defaultPageSize  = 1000
)

var (
	// ErrMissingURL ...
	ErrMissingURL = errors.New("missing blockbook url")
	// ErrMalformedAmount ...
	ErrMalformedAmount = errors.New("malformed amount in blockbook response")
)

// Opts defines the parameters needed for creating a blockbook service.
type Opts struct {
	URL string
	// RateLimit is the max number of requests per second.
	RateLimit int
	Timeout   time.Duration
	// Contract, if set, restricts the txids of an address to the transfers
	// of the given token contract.
	Contract string
}

func (o Opts) validate() error {
	if len(o.URL) <= 0 {
		return ErrMissingURL
	}
	if _, err := url.Parse(o.URL); err != nil {
		return fmt.Errorf("invalid blockbook url: %w", err)
	}
	return nil
}

// Service talks to a Blockbook instance. It implements both
// ports.ChainDataProvider and ports.UtxoProvider.
type Service struct {
	baseURL  string
	contract string
	client   *http.Client
	limiter  ratelimit.Limiter
	cb       *gobreaker.CircuitBreaker
}

func NewService(opts Opts) (*Service, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	rate := opts.RateLimit
	if rate <= 0 {
		rate = DefaultRateLimit
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	baseURL := strings.TrimRight(opts.URL, "/")
	return &Service{
		baseURL:  baseURL,
		contract: strings.ToLower(opts.Contract),
		client:   &http.Client{Timeout: timeout},
		limiter:  ratelimit.New(rate),
		cb:       circuitbreaker.NewCircuitBreaker("blockbook " + baseURL),
	}, nil
}

var (
	_ ports.ChainDataProvider = (*Service)(nil)
	_ ports.UtxoProvider      = (*Service)(nil)
)

func (s *Service) GetBalance(ctx context.Context, addr string) (*ports.Balance, error) {
	var resp addressResponse
	path := fmt.Sprintf("/api/v2/address/%s?details=basic", url.PathEscape(addr))
	if err := s.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	confirmed, err := parseAmount(resp.Balance)
	if err != nil {
		return nil, err
	}
	unconfirmed, err := parseAmount(resp.UnconfirmedBalance)
	if err != nil {
		return nil, err
	}
	return &ports.Balance{Confirmed: confirmed, Unconfirmed: unconfirmed}, nil
}

func (s *Service) GetTxIds(
	ctx context.Context, addr string, hint ports.RangeHint,
) ([]string, error) {
	pageSize := hint.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	query := url.Values{}
	query.Set("details", "txids")
	query.Set("pageSize", strconv.Itoa(pageSize))
	if hint.FromBlock > 0 {
		query.Set("from", strconv.FormatInt(hint.FromBlock, 10))
	}
	if hint.ToBlock > 0 {
		query.Set("to", strconv.FormatInt(hint.ToBlock, 10))
	}
	if s.contract != "" {
		query.Set("contract", s.contract)
	}

	var resp addressResponse
	path := fmt.Sprintf("/api/v2/address/%s?%s", url.PathEscape(addr), query.Encode())
	if err := s.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	if resp.Txids == nil {
		return []string{}, nil
	}
	return resp.Txids, nil
}

func (s *Service) GetTxDetail(ctx context.Context, txid string) (*ports.TxDetail, error) {
	var resp txResponse
	if err := s.get(ctx, "/api/v2/tx/"+url.PathEscape(txid), &resp); err != nil {
		return nil, err
	}

	value, err := parseAmount(resp.Value)
	if err != nil {
		return nil, err
	}
	fee, err := parseAmount(resp.Fees)
	if err != nil {
		return nil, err
	}

	detail := &ports.TxDetail{
		Hash:        resp.Txid,
		Value:       value,
		Fee:         fee,
		BlockNumber: resp.blockNumber(),
		Timestamp:   resp.BlockTime,
		Inputs:      make([]ports.TxIO, 0, len(resp.Vin)),
		Outputs:     make([]ports.TxIO, 0, len(resp.Vout)),
	}
	for _, in := range resp.Vin {
		v, err := parseAmount(in.Value)
		if err != nil {
			return nil, err
		}
		detail.Inputs = append(detail.Inputs, ports.TxIO{Addr: in.firstAddress(), Value: v})
	}
	for _, out := range resp.Vout {
		v, err := parseAmount(out.Value)
		if err != nil {
			return nil, err
		}
		detail.Outputs = append(detail.Outputs, ports.TxIO{Addr: out.firstAddress(), Value: v})
	}
	if len(detail.Inputs) > 0 {
		detail.From = detail.Inputs[0].Addr
	}
	if len(detail.Outputs) > 0 {
		detail.To = detail.Outputs[0].Addr
	}
	return detail, nil
}

// GetTxReceipt returns a successful receipt for any known tx. UTXO txs can
// not be reverted once mined.
func (s *Service) GetTxReceipt(ctx context.Context, txid string) (*ports.TxReceipt, error) {
	var resp txResponse
	if err := s.get(ctx, "/api/v2/tx/"+url.PathEscape(txid), &resp); err != nil {
		return nil, err
	}
	return &ports.TxReceipt{Status: 1, BlockNumber: resp.blockNumber()}, nil
}

func (s *Service) GetBlock(ctx context.Context, number int64) (*ports.Block, error) {
	var resp blockResponse
	path := fmt.Sprintf("/api/v2/block/%d?pageSize=1", number)
	if err := s.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return &ports.Block{Number: resp.Height, Timestamp: resp.Time}, nil
}

func (s *Service) GetUtxos(ctx context.Context, addr string) ([]ports.ProviderUtxo, error) {
	var resp []utxoResponse
	if err := s.get(ctx, "/api/v2/utxo/"+url.PathEscape(addr), &resp); err != nil {
		return nil, err
	}
	utxos := make([]ports.ProviderUtxo, 0, len(resp))
	for _, u := range resp {
		value, err := parseAmount(u.Value)
		if err != nil {
			return nil, err
		}
		utxos = append(utxos, ports.ProviderUtxo{
			Txid:          u.Txid,
			Vout:          u.Vout,
			Value:         value,
			Confirmations: u.Confirmations,
		})
	}
	return utxos, nil
}

func (s *Service) get(ctx context.Context, path string, out interface{}) error {
	body, err := circuitbreaker.Execute(s.cb, func() ([]byte, error) {
		s.limiter.Take()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := s.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			var e errorResponse
			if json.Unmarshal(body, &e) == nil && e.Error != "" {
				return nil, fmt.Errorf("blockbook: %s (%d)", e.Error, resp.StatusCode)
			}
			return nil, fmt.Errorf("blockbook: unexpected status %d", resp.StatusCode)
		}
		return body, nil
	})
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}

func parseAmount(s string) (*big.Int, error) {
	if s == "" {
		return big.NewInt(0), nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMalformedAmount, s)
	}
	return v, nil
}
