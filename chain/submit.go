package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"swapgate/swap"
)

// SwapGasLimit is a fixed ceiling covering a two-hop router swap with room to
// spare. Predictable over cheap: unused gas is refunded, a too-low estimate
// loses the whole fee.
const SwapGasLimit = uint64(500_000)

var weiPerGwei = big.NewInt(1_000_000_000)

// Wallet signs transactions and knows its own address. Credentials stay on
// the caller's side of this interface.
type Wallet interface {
	Address() common.Address
	SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}

// Submit signs and broadcasts the call as a legacy transaction priced at
// gasPriceGwei. The returned hash only means the node accepted it into the
// pending pool; inclusion is confirmed separately via Receipt.
func (c *Client) Submit(ctx context.Context, w Wallet, call swap.CallParams, gasPriceGwei uint64) (common.Hash, error) {
	if gasPriceGwei == 0 {
		return common.Hash{}, fmt.Errorf("gas price must be positive")
	}
	gasPrice := new(big.Int).Mul(new(big.Int).SetUint64(gasPriceGwei), weiPerGwei)

	c.nonces.Lock()
	defer c.nonces.Unlock()
	nonce, err := c.nonces.Next(ctx, c.eth, w.Address())
	if err != nil {
		return common.Hash{}, err
	}

	to := call.To
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      SwapGasLimit,
		To:       &to,
		Value:    call.Value,
		Data:     call.Data,
	})
	signed, err := w.SignTx(tx, c.chainID)
	if err != nil {
		return common.Hash{}, fmt.Errorf("sign transaction: %w", err)
	}
	if err := c.eth.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, &swap.RPCError{Op: "eth_sendRawTransaction", Err: err}
	}
	c.nonces.Advance()

	c.sugar.Infow("transaction broadcast",
		"hash", signed.Hash(),
		"method", call.Method,
		"nonce", nonce,
		"gasPriceGwei", gasPriceGwei,
	)
	return signed.Hash(), nil
}

// SubmitDynamicFee is the EIP-1559 variant of Submit, fed tip and fee caps
// from a live estimator.
func (c *Client) SubmitDynamicFee(ctx context.Context, w Wallet, call swap.CallParams, tipCap, feeCap *big.Int) (common.Hash, error) {
	if tipCap == nil || feeCap == nil || feeCap.Sign() <= 0 {
		return common.Hash{}, fmt.Errorf("fee caps must be positive")
	}

	c.nonces.Lock()
	defer c.nonces.Unlock()
	nonce, err := c.nonces.Next(ctx, c.eth, w.Address())
	if err != nil {
		return common.Hash{}, err
	}

	to := call.To
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   c.chainID,
		Nonce:     nonce,
		GasTipCap: tipCap,
		GasFeeCap: feeCap,
		Gas:       SwapGasLimit,
		To:        &to,
		Value:     call.Value,
		Data:      call.Data,
	})
	signed, err := w.SignTx(tx, c.chainID)
	if err != nil {
		return common.Hash{}, fmt.Errorf("sign transaction: %w", err)
	}
	if err := c.eth.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, &swap.RPCError{Op: "eth_sendRawTransaction", Err: err}
	}
	c.nonces.Advance()

	c.sugar.Infow("transaction broadcast",
		"hash", signed.Hash(),
		"method", call.Method,
		"nonce", nonce,
		"tipCap", tipCap,
		"feeCap", feeCap,
	)
	return signed.Hash(), nil
}
