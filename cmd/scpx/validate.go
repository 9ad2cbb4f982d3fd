package main

import (
	"strings"

	"github.com/scp-network/scpx-wallet/pkg/chain"
	"github.com/urfave/cli/v2"
)

var validate = cli.Command{
	Name:  "validate",
	Usage: "check that an address is valid for the given asset",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "symbol",
			Usage:    "asset symbol, ie. BTC",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "addr",
			Usage:    "the address to validate",
			Required: true,
		},
	},
	Action: validateAction,
}

func validateAction(ctx *cli.Context) error {
	valid, err := validateAddress(chain.DefaultRegistry(), ctx.String("symbol"), ctx.String("addr"))
	if err != nil {
		return err
	}
	return printJSON(map[string]bool{"isValid": valid})
}

func validateAddress(registry *chain.Registry, symbol, addr string) (bool, error) {
	adapter, err := registry.BySymbol(symbol)
	if err != nil {
		return false, err
	}
	meta := adapter.Meta()
	return chain.ValidateAddress(strings.TrimSpace(addr), meta.AddressType, meta.Testnet), nil
}
