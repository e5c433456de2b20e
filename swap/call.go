package swap

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// The swap surface of the UniswapV2 Router02 contract. Only the methods the
// call builder can emit are declared.
const routerABIJSON = `[
	{"name":"swapExactTokensForTokens","type":"function","stateMutability":"nonpayable","inputs":[{"name":"amountIn","type":"uint256"},{"name":"amountOutMin","type":"uint256"},{"name":"path","type":"address[]"},{"name":"to","type":"address"},{"name":"deadline","type":"uint256"}],"outputs":[{"name":"amounts","type":"uint256[]"}]},
	{"name":"swapTokensForExactTokens","type":"function","stateMutability":"nonpayable","inputs":[{"name":"amountOut","type":"uint256"},{"name":"amountInMax","type":"uint256"},{"name":"path","type":"address[]"},{"name":"to","type":"address"},{"name":"deadline","type":"uint256"}],"outputs":[{"name":"amounts","type":"uint256[]"}]},
	{"name":"swapExactETHForTokens","type":"function","stateMutability":"payable","inputs":[{"name":"amountOutMin","type":"uint256"},{"name":"path","type":"address[]"},{"name":"to","type":"address"},{"name":"deadline","type":"uint256"}],"outputs":[{"name":"amounts","type":"uint256[]"}]},
	{"name":"swapTokensForExactETH","type":"function","stateMutability":"nonpayable","inputs":[{"name":"amountOut","type":"uint256"},{"name":"amountInMax","type":"uint256"},{"name":"path","type":"address[]"},{"name":"to","type":"address"},{"name":"deadline","type":"uint256"}],"outputs":[{"name":"amounts","type":"uint256[]"}]},
	{"name":"swapExactTokensForETH","type":"function","stateMutability":"nonpayable","inputs":[{"name":"amountIn","type":"uint256"},{"name":"amountOutMin","type":"uint256"},{"name":"path","type":"address[]"},{"name":"to","type":"address"},{"name":"deadline","type":"uint256"}],"outputs":[{"name":"amounts","type":"uint256[]"}]},
	{"name":"swapETHForExactTokens","type":"function","stateMutability":"payable","inputs":[{"name":"amountOut","type":"uint256"},{"name":"path","type":"address[]"},{"name":"to","type":"address"},{"name":"deadline","type":"uint256"}],"outputs":[{"name":"amounts","type":"uint256[]"}]}
]`

var routerABI = mustABI(routerABIJSON)

func mustABI(s string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(s))
	if err != nil {
		panic(fmt.Sprintf("bad ABI constant: %v", err))
	}
	return parsed
}

// routerMethod picks the router variant for (direction, native involvement).
// A closed set; anything outside it is rejected before encoding.
func routerMethod(direction Direction, nativeIn, nativeOut bool) (string, error) {
	switch direction {
	case ExactIn:
		switch {
		case nativeIn:
			return "swapExactETHForTokens", nil
		case nativeOut:
			return "swapExactTokensForETH", nil
		default:
			return "swapExactTokensForTokens", nil
		}
	case ExactOut:
		switch {
		case nativeIn:
			return "swapETHForExactTokens", nil
		case nativeOut:
			return "swapTokensForExactETH", nil
		default:
			return "swapTokensForExactTokens", nil
		}
	}
	return "", fmt.Errorf("unknown trade direction %d", direction)
}

// BuildCall encodes the router invocation for a priced trade. Deterministic
// and free of I/O: the same trade always yields the same payload. Value is
// the attached native amount, set only when the input asset is native (the
// fixed input for ExactIn, the slippage-bounded maximum for ExactOut).
func BuildCall(trade Trade, router, recipient common.Address) (CallParams, error) {
	input, output := trade.Route.Input, trade.Route.Output
	if input.Native && output.Native {
		return CallParams{}, errors.New("native asset on both sides of trade")
	}
	if recipient == (common.Address{}) {
		return CallParams{}, errors.New("recipient address is empty")
	}
	if trade.Amount == nil || trade.BoundAmount == nil || trade.Deadline == nil {
		return CallParams{}, errors.New("trade is not fully priced")
	}

	method, err := routerMethod(trade.Direction, input.Native, output.Native)
	if err != nil {
		return CallParams{}, err
	}

	value := new(big.Int)
	var args []interface{}
	switch method {
	case "swapExactTokensForTokens", "swapExactTokensForETH":
		args = []interface{}{trade.Amount, trade.BoundAmount, trade.Route.Path, recipient, trade.Deadline}
	case "swapExactETHForTokens":
		args = []interface{}{trade.BoundAmount, trade.Route.Path, recipient, trade.Deadline}
		value = trade.Amount
	case "swapTokensForExactTokens", "swapTokensForExactETH":
		args = []interface{}{trade.Amount, trade.BoundAmount, trade.Route.Path, recipient, trade.Deadline}
	case "swapETHForExactTokens":
		args = []interface{}{trade.Amount, trade.Route.Path, recipient, trade.Deadline}
		value = trade.BoundAmount
	}

	data, err := routerABI.Pack(method, args...)
	if err != nil {
		return CallParams{}, fmt.Errorf("encode %s: %w", method, err)
	}
	return CallParams{Method: method, To: router, Data: data, Value: value}, nil
}
