package main

import (
	"fmt"

	"github.com/scp-network/scpx-wallet/pkg/chain"
	"github.com/scp-network/scpx-wallet/pkg/wallet"
	"github.com/urfave/cli/v2"
)

var derive = cli.Command{
	Name:  "derive",
	Usage: "derive the default account addresses of an asset offline",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "symbol",
			Usage:    "asset symbol, ie. BTC",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "apk",
			Usage:    "the active public key of the wallet",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "mpk",
			Usage:    "the master private key of the wallet",
			Required: true,
		},
		&cli.UintFlag{
			Name:  "count",
			Usage: "number of addresses to derive",
			Value: 1,
		},
		&cli.BoolFlag{
			Name:  "privkeys",
			Usage: "print the private keys along with the addresses",
		},
	},
	Action: deriveAction,
}

type derivedAddress struct {
	Path    string `json:"path"`
	Addr    string `json:"addr"`
	PrivKey string `json:"privKey,omitempty"`
}

func deriveAction(ctx *cli.Context) error {
	addresses, err := deriveAddresses(
		chain.DefaultRegistry(),
		ctx.String("symbol"), ctx.String("apk"), ctx.String("mpk"),
		uint32(ctx.Uint("count")), ctx.Bool("privkeys"),
	)
	if err != nil {
		return err
	}
	return printJSON(addresses)
}

func deriveAddresses(
	registry *chain.Registry, symbol, apk, mpk string, count uint32, withKeys bool,
) ([]derivedAddress, error) {
	adapter, err := registry.BySymbol(symbol)
	if err != nil {
		return nil, err
	}
	if adapter.Meta().AddressType == chain.AddressTypeEOS {
		return nil, fmt.Errorf("%s keys are not derived from the master key", symbol)
	}

	hmpk, err := wallet.HashMasterKey(apk, mpk)
	if err != nil {
		return nil, err
	}
	defer wallet.Zero(hmpk)

	keys, err := wallet.DeriveKeys(wallet.DeriveKeysOpts{
		MasterSecret: hmpk,
		Encoder:      adapter,
		Count:        count,
	})
	if err != nil {
		return nil, err
	}

	addresses := make([]derivedAddress, 0, len(keys))
	for _, k := range keys {
		addr, err := adapter.AddressFromPrivKey(k.PrivKey)
		if err != nil {
			return nil, err
		}
		a := derivedAddress{Path: k.Path, Addr: addr}
		if withKeys {
			a.PrivKey = k.PrivKey
		}
		addresses = append(addresses, a)
	}
	return addresses, nil
}
