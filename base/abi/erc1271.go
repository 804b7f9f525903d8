package abi

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

var ERC1271ABI abi.ABI

func init() {
	_abi, err := abi.JSON(strings.NewReader(erc1271ABIJson))
	if err != nil {
		panic("Failed to parse erc1271 abi")
	}
	ERC1271ABI = _abi
}

// isValidSignature returns 0x1626ba7e when the wallet accepts the signature
var erc1271ABIJson = `[{"type":"function","name":"isValidSignature","stateMutability":"view","inputs":[{"type":"bytes32","name":"hash"},{"type":"bytes","name":"signature"}],"outputs":[{"type":"bytes4","name":"magicValue"}]}]`
