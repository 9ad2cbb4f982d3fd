package chain

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const erc20TransferABI = `[{"constant":false,"inputs":[{"name":"_to","type":"address"},{"name":"_value","type":"uint256"}],"name":"transfer","outputs":[{"name":"","type":"bool"}],"type":"function"},{"constant":true,"inputs":[{"name":"_owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"balance","type":"uint256"}],"type":"function"}]`

// ERC20ABI is the subset of the ERC20 interface the wallet uses.
var ERC20ABI abi.ABI

func init() {
	parsed, err := abi.JSON(strings.NewReader(erc20TransferABI))
	if err != nil {
		panic(err)
	}
	ERC20ABI = parsed
}

// DecodeTransfer decodes transfer(address,uint256) calldata and returns the
// lowercase recipient and the raw amount.
func DecodeTransfer(input []byte) (string, *big.Int, error) {
	if len(input) < 4 {
		return "", nil, ErrNotTokenTransfer
	}
	method, err := ERC20ABI.MethodById(input[:4])
	if err != nil || method.Name != "transfer" {
		return "", nil, ErrNotTokenTransfer
	}
	args, err := method.Inputs.Unpack(input[4:])
	if err != nil || len(args) != 2 {
		return "", nil, ErrNotTokenTransfer
	}
	to, ok := args[0].(common.Address)
	if !ok {
		return "", nil, ErrNotTokenTransfer
	}
	value, ok := args[1].(*big.Int)
	if !ok {
		return "", nil, ErrNotTokenTransfer
	}
	return strings.ToLower(to.Hex()), value, nil
}

// PackTransfer encodes transfer(to, value) calldata.
func PackTransfer(to string, value *big.Int) ([]byte, error) {
	return ERC20ABI.Pack("transfer", common.HexToAddress(to), value)
}

// PackBalanceOf encodes balanceOf(owner) calldata.
func PackBalanceOf(owner string) ([]byte, error) {
	return ERC20ABI.Pack("balanceOf", common.HexToAddress(owner))
}
