package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

var (
	rpcServerFlag = cli.StringFlag{
		Name:    "rpcserver",
		Usage:   "url of the scpxd JSON-RPC interface",
		Value:   "http://localhost:4000",
		EnvVars: []string{"SCPX_RPC_SERVER"},
	}
	rpcUserFlag = cli.StringFlag{
		Name:    "rpcuser",
		Usage:   "rpc username",
		EnvVars: []string{"SCPX_RPC_USERNAME"},
	}
	rpcPasswordFlag = cli.StringFlag{
		Name:    "rpcpassword",
		Usage:   "rpc password",
		EnvVars: []string{"SCPX_RPC_PASSWORD"},
	}
)

func main() {
	app := cli.NewApp()

	app.Version = "0.1.0"
	app.Name = "scpx"
	app.Usage = "Command line interface for the scpxd wallet daemon"
	app.Flags = []cli.Flag{&rpcServerFlag, &rpcUserFlag, &rpcPasswordFlag}
	app.Commands = append(
		app.Commands,
		&rpc,
		&derive,
		&validate,
		&genmpk,
	)

	err := app.Run(os.Args)
	if err != nil {
		fatal(err)
	}
}

func printJSON(v interface{}) error {
	buf, err := json.MarshalIndent(v, "", "\t")
	if err != nil {
		return fmt.Errorf("unable to encode response: %w", err)
	}
	fmt.Println(string(buf))
	return nil
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "[scpx] %v\n", err)
	os.Exit(1)
}
