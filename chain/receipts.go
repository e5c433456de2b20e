package chain

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"swapgate/swap"
)

// Receipt looks up the transaction's receipt. A nil receipt with nil error
// means not yet included. Receipts are immutable once produced, so repeated
// calls after inclusion return identical results.
func (c *Client) Receipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	receipt, err := c.eth.TransactionReceipt(ctx, hash)
	if errors.Is(err, ethereum.NotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, &swap.RPCError{Op: "eth_getTransactionReceipt", Err: err}
	}
	return receipt, nil
}

// WaitMined polls until the transaction is included or the context ends.
// Transient poll failures are logged and polling continues; the context is
// the caller's timeout knob, independent of the trade deadline.
func (c *Client) WaitMined(ctx context.Context, hash common.Hash, interval time.Duration) (*types.Receipt, error) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		receipt, err := c.Receipt(ctx, hash)
		if err != nil {
			var rpcErr *swap.RPCError
			if !errors.As(err, &rpcErr) {
				return nil, err
			}
			c.sugar.Warnw("receipt poll failed", "hash", hash, "err", err)
		}
		if receipt != nil {
			return receipt, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Succeeded reports whether an included transaction executed without
// reverting. A reverted swap (slippage, expired deadline, missing allowance)
// still has a receipt and still cost gas; it is a failed result, not an
// error.
func Succeeded(receipt *types.Receipt) bool {
	return receipt != nil && receipt.Status == types.ReceiptStatusSuccessful
}
