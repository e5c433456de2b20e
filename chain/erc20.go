package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"swapgate/swap"
)

// ApproveGasLimit covers an ERC-20 approve, fixed for the same reason as
// SwapGasLimit.
const ApproveGasLimit = uint64(100_000)

// BalanceOf reads an ERC-20 balance.
func (c *Client) BalanceOf(ctx context.Context, token, account common.Address) (*big.Int, error) {
	out, err := c.callView(ctx, token, erc20ABI, "balanceOf", account)
	if err != nil {
		return nil, err
	}
	balance, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("balanceOf: unexpected result type %T", out[0])
	}
	return balance, nil
}

// Allowance reads how much the spender may pull from the owner. The router
// needs allowance at least MaxInput before any token-for-X swap; checking is
// the caller's job, the engine assumes it holds.
func (c *Client) Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	out, err := c.callView(ctx, token, erc20ABI, "allowance", owner, spender)
	if err != nil {
		return nil, err
	}
	allowance, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("allowance: unexpected result type %T", out[0])
	}
	return allowance, nil
}

// Approve grants the spender an allowance on the token. Same submit path as a
// swap, smaller gas ceiling.
func (c *Client) Approve(ctx context.Context, w Wallet, token, spender common.Address, amount *big.Int, gasPriceGwei uint64) (common.Hash, error) {
	if amount == nil || amount.Sign() < 0 {
		return common.Hash{}, fmt.Errorf("approve amount must not be negative")
	}
	if gasPriceGwei == 0 {
		return common.Hash{}, fmt.Errorf("gas price must be positive")
	}
	data, err := erc20ABI.Pack("approve", spender, amount)
	if err != nil {
		return common.Hash{}, fmt.Errorf("encode approve: %w", err)
	}
	gasPrice := new(big.Int).Mul(new(big.Int).SetUint64(gasPriceGwei), weiPerGwei)

	c.nonces.Lock()
	defer c.nonces.Unlock()
	nonce, err := c.nonces.Next(ctx, c.eth, w.Address())
	if err != nil {
		return common.Hash{}, err
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      ApproveGasLimit,
		To:       &token,
		Value:    new(big.Int),
		Data:     data,
	})
	signed, err := w.SignTx(tx, c.chainID)
	if err != nil {
		return common.Hash{}, fmt.Errorf("sign transaction: %w", err)
	}
	if err := c.eth.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, &swap.RPCError{Op: "eth_sendRawTransaction", Err: err}
	}
	c.nonces.Advance()

	c.sugar.Infow("approval broadcast",
		"hash", signed.Hash(),
		"token", token,
		"spender", spender,
		"nonce", nonce,
	)
	return signed.Hash(), nil
}
