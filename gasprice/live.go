package gasprice

import (
	"context"
	"math/big"

	"github.com/chenzhijie/go-web3"

	"swapgate/swap"
)

// Live estimates fees from recent blocks through the node.
type Live struct {
	w3 *web3.Web3
}

func NewLive(rpcURL string, chainID int64) (*Live, error) {
	w3, err := web3.NewWeb3(rpcURL)
	if err != nil {
		return nil, &swap.RPCError{Op: "dial", Err: err}
	}
	w3.Eth.SetChainId(chainID)
	return &Live{w3: w3}, nil
}

func (l *Live) GasPriceGwei(_ context.Context) (uint64, error) {
	fee, err := l.w3.Eth.EstimateFee()
	if err != nil {
		return 0, &swap.RPCError{Op: "estimate fee", Err: err}
	}
	gwei := new(big.Int).Div(fee.MaxFeePerGas, big.NewInt(1_000_000_000))
	if gwei.Sign() <= 0 {
		return 1, nil
	}
	return gwei.Uint64(), nil
}

// FeeCaps exposes the raw EIP-1559 caps for the dynamic-fee submit path.
func (l *Live) FeeCaps(_ context.Context) (tipCap, feeCap *big.Int, err error) {
	fee, err := l.w3.Eth.EstimateFee()
	if err != nil {
		return nil, nil, &swap.RPCError{Op: "estimate fee", Err: err}
	}
	return fee.MaxPriorityFeePerGas, fee.MaxFeePerGas, nil
}
