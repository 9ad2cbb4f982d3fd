package main

import (
	"fmt"

	"github.com/scp-network/scpx-wallet/pkg/wallet"
	"github.com/urfave/cli/v2"
)

var genmpk = cli.Command{
	Name:   "genmpk",
	Usage:  "generate a random master private key",
	Action: genMpkAction,
}

func genMpkAction(ctx *cli.Context) error {
	mpk, err := wallet.GenerateMasterKey()
	if err != nil {
		return err
	}
	fmt.Println(mpk)
	return nil
}
