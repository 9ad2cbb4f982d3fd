package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/urfave/cli/v2"
)

var rpc = cli.Command{
	Name:      "rpc",
	Usage:     "execute a wallet command on the daemon",
	ArgsUsage: "<command> [json-params]",
	Action:    rpcAction,
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      int           `json:"id"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func rpcAction(ctx *cli.Context) error {
	if ctx.NArg() < 1 {
		return fmt.Errorf("missing command")
	}
	params := json.RawMessage("{}")
	if ctx.NArg() > 1 {
		params = json.RawMessage(ctx.Args().Get(1))
		if !json.Valid(params) {
			return fmt.Errorf("command params must be valid JSON")
		}
	}

	result, err := execRPC(
		&http.Client{Timeout: 10 * time.Minute},
		ctx.String(rpcServerFlag.Name),
		ctx.String(rpcUserFlag.Name), ctx.String(rpcPasswordFlag.Name),
		ctx.Args().First(), params,
	)
	if err != nil {
		return err
	}

	var out interface{}
	if err := json.Unmarshal(result, &out); err != nil {
		return err
	}
	return printJSON(out)
}

func execRPC(
	client *http.Client, url, username, password, cmd string, params json.RawMessage,
) (json.RawMessage, error) {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  "exec",
		Params: []interface{}{
			map[string]string{"username": username, "password": password},
			cmd,
			params,
		},
		ID: 1,
	})
	if err != nil {
		return nil, err
	}

	resp, err := client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("rpc: %s: %s", resp.Status, bytes.TrimSpace(msg))
	}

	var res rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, fmt.Errorf("rpc: invalid response: %w", err)
	}
	if res.Error != nil {
		return nil, fmt.Errorf("rpc error %d: %s", res.Error.Code, res.Error.Message)
	}
	return res.Result, nil
}
