package notary

import (
	_ "embed"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const (
	MethodNotarize = "notarizeDocument"
	MethodVerify   = "verifyDocument"
	MethodExists   = "documentExists"
)

//go:embed notary.abi.json
var abiJSON string

var (
	parsedABI abi.ABI
	parseErr  error
	parseOnce sync.Once
)

// ABI returns the parsed contract ABI.
func ABI() (abi.ABI, error) {
	parseOnce.Do(func() {
		parsedABI, parseErr = abi.JSON(strings.NewReader(abiJSON))
	})
	return parsedABI, parseErr
}

// verifyOutput mirrors the verifyDocument return tuple.
type verifyOutput struct {
	Exists      bool
	Timestamp   *big.Int
	Owner       common.Address
	Description string
}
