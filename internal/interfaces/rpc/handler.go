package rpcinterface

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/scp-network/scpx-wallet/internal/core/application"
	"github.com/scp-network/scpx-wallet/internal/core/domain"
)

const (
	CmdWalletLoad           = "wallet-load"
	CmdWalletDump           = "wallet-dump"
	CmdWalletAddAddress     = "wallet-add-address"
	CmdWalletImportPrivKeys = "wallet-import-privkeys"
	CmdWalletRemoveAccounts = "wallet-remove-accounts"
	CmdWalletRefresh        = "wallet-refresh"
	CmdWalletValidateAddr   = "wallet-validate-address"
	CmdWalletBackup         = "wallet-backup"
)

// errBadParams is returned by commands whose params do not decode.
var errBadParams = errors.New("invalid command params")

type commandFn func(ctx context.Context, params json.RawMessage) (interface{}, error)

type walletHandler struct {
	walletSvc application.WalletService
	commands  map[string]commandFn
}

func newWalletHandler(walletSvc application.WalletService) *walletHandler {
	h := &walletHandler{walletSvc: walletSvc}
	h.commands = map[string]commandFn{
		CmdWalletLoad:           h.load,
		CmdWalletDump:           h.dump,
		CmdWalletAddAddress:     h.addAddress,
		CmdWalletImportPrivKeys: h.importPrivKeys,
		CmdWalletRemoveAccounts: h.removeAccounts,
		CmdWalletRefresh:        h.refresh,
		CmdWalletValidateAddr:   h.validateAddress,
		CmdWalletBackup:         h.backup,
	}
	return h
}

type loadParams struct {
	APK string `json:"apk"`
	MPK string `json:"mpk"`
}

type assetSummary struct {
	Name         string `json:"name"`
	Symbol       string `json:"symbol"`
	AddressCount int    `json:"addressCount"`
}

type loadResult struct {
	Ok     bool           `json:"ok"`
	Assets []assetSummary `json:"assets"`
}

func (h *walletHandler) load(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p loadParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	assets, err := h.walletSvc.Load(ctx, p.APK, p.MPK)
	if err != nil {
		return nil, err
	}
	summary := make([]assetSummary, 0, len(assets))
	for _, a := range assets {
		summary = append(summary, assetSummary{
			Name:         a.Name,
			Symbol:       a.Symbol,
			AddressCount: len(a.Addresses),
		})
	}
	return loadResult{Ok: true, Assets: summary}, nil
}

type dumpParams struct {
	Symbol   string `json:"symbol"`
	Txs      bool   `json:"txs"`
	PrivKeys bool   `json:"privKeys"`
}

func (h *walletHandler) dump(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p dumpParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	return h.walletSvc.Dump(ctx, application.DumpOpts{
		Symbol:   p.Symbol,
		Txs:      p.Txs,
		PrivKeys: p.PrivKeys,
	})
}

type symbolParams struct {
	Symbol string `json:"symbol"`
}

func (h *walletHandler) addAddress(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p symbolParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	return h.walletSvc.AddAddress(ctx, p.Symbol)
}

type importParams struct {
	Symbol   string   `json:"symbol"`
	PrivKeys []string `json:"privKeys"`
}

func (h *walletHandler) importPrivKeys(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p importParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	return h.walletSvc.ImportPrivKeys(ctx, p.Symbol, p.PrivKeys)
}

type removeParams struct {
	Symbol       string   `json:"symbol"`
	AccountNames []string `json:"accountNames"`
}

func (h *walletHandler) removeAccounts(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p removeParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	return h.walletSvc.RemoveImportedAccounts(ctx, p.Symbol, p.AccountNames)
}

type okResult struct {
	Ok bool `json:"ok"`
}

func (h *walletHandler) refresh(ctx context.Context, _ json.RawMessage) (interface{}, error) {
	if err := h.walletSvc.Refresh(ctx); err != nil {
		return nil, err
	}
	return okResult{Ok: true}, nil
}

type validateParams struct {
	Symbol string `json:"symbol"`
	Addr   string `json:"addr"`
}

type validateResult struct {
	IsValid bool `json:"isValid"`
}

func (h *walletHandler) validateAddress(_ context.Context, params json.RawMessage) (interface{}, error) {
	var p validateParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	valid, err := h.walletSvc.ValidateAddress(p.Symbol, p.Addr)
	if err != nil {
		return nil, err
	}
	return validateResult{IsValid: valid}, nil
}

type backupResult struct {
	Blob string `json:"blob"`
}

func (h *walletHandler) backup(ctx context.Context, _ json.RawMessage) (interface{}, error) {
	blob, err := h.walletSvc.Backup(ctx)
	if err != nil {
		return nil, err
	}
	return backupResult{Blob: blob}, nil
}

// decodeParams accepts a null or missing params object.
func decodeParams(raw json.RawMessage, dst interface{}) error {
	if len(raw) <= 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return &domain.ValidationError{Field: "params", Err: fmt.Errorf("%w: %s", errBadParams, err)}
	}
	return nil
}
