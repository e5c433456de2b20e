// Package gateway wires the four engine operations (resolve-route,
// compute-trade, build-call, submit-and-poll) into the flows a request layer
// drives. All state here is request-scoped; the shared pieces (node
// connection, directory, nonce allocator) synchronize themselves.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"swapgate/chain"
	"swapgate/config"
	"swapgate/directory"
	"swapgate/gasprice"
	"swapgate/swap"
)

// Node is the chain access the engine needs: pair reads, broadcast, receipt
// lookup. *chain.Client implements it; tests substitute fakes.
type Node interface {
	swap.PairFetcher
	Submit(ctx context.Context, w chain.Wallet, call swap.CallParams, gasPriceGwei uint64) (common.Hash, error)
	Receipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
}

// dynamicFeeNode is the optional EIP-1559 submit path.
type dynamicFeeNode interface {
	SubmitDynamicFee(ctx context.Context, w chain.Wallet, call swap.CallParams, tipCap, feeCap *big.Int) (common.Hash, error)
}

// feeCapSource is a gas source that can also quote EIP-1559 caps.
type feeCapSource interface {
	FeeCaps(ctx context.Context) (tipCap, feeCap *big.Int, err error)
}

// tokenAuthority reads and grants ERC-20 allowances. *chain.Client implements
// it; the allowance gate is skipped when the node cannot serve it.
type tokenAuthority interface {
	Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error)
	Approve(ctx context.Context, w chain.Wallet, token, spender common.Address, amount *big.Int, gasPriceGwei uint64) (common.Hash, error)
}

// ErrInsufficientAllowance means the router may not pull the trade's maximum
// input from the wallet. Approve first, then swap.
var ErrInsufficientAllowance = errors.New("router allowance too low")

type Options struct {
	ToleranceBps uint32
	TTL          time.Duration
	PollInterval time.Duration
	DynamicFee   bool
}

type Engine struct {
	node   Node
	gas    gasprice.Source
	assets *directory.Directory
	net    config.Network
	opts   Options
	sugar  *zap.SugaredLogger
}

func New(node Node, gas gasprice.Source, assets *directory.Directory, net config.Network, opts Options, sugar *zap.SugaredLogger) *Engine {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 2 * time.Second
	}
	return &Engine{node: node, gas: gas, assets: assets, net: net, opts: opts, sugar: sugar}
}

// QuoteRequest names assets by symbol or address; Amount is in units of the
// fixed side (input for ExactIn, output for ExactOut).
type QuoteRequest struct {
	In        string
	Out       string
	Amount    string
	Direction swap.Direction
}

type Quote struct {
	Input  swap.Asset
	Output swap.Asset
	Trade  swap.Trade
}

// Quote resolves a route and prices the trade without touching a signer.
func (e *Engine) Quote(ctx context.Context, req QuoteRequest) (Quote, error) {
	input, err := e.assets.Lookup(req.In)
	if err != nil {
		return Quote{}, err
	}
	output, err := e.assets.Lookup(req.Out)
	if err != nil {
		return Quote{}, err
	}

	fixed := input
	if req.Direction == swap.ExactOut {
		fixed = output
	}
	amount, err := swap.ParseAmount(req.Amount, fixed.Decimals)
	if err != nil {
		return Quote{}, err
	}

	route, err := swap.ResolveRoute(ctx, e.node, e.net.WrappedNative, input, output)
	if err != nil {
		return Quote{}, err
	}
	trade, err := swap.ComputeTrade(route, req.Direction, amount, swap.TradeOptions{
		ToleranceBps: e.opts.ToleranceBps,
		TTL:          e.opts.TTL,
	})
	if err != nil {
		return Quote{}, err
	}

	e.sugar.Infow("quoted",
		"in", input.Symbol,
		"out", output.Symbol,
		"route", route.Kind.String(),
		"direction", req.Direction.String(),
		"amount", swap.FormatAmount(amount, fixed.Decimals),
		"counter", trade.CounterAmount,
		"bound", trade.BoundAmount,
		"deadline", trade.Deadline,
	)
	return Quote{Input: input, Output: output, Trade: trade}, nil
}

type SwapRequest struct {
	QuoteRequest
	// Recipient defaults to the wallet's own address.
	Recipient common.Address
}

type SwapResult struct {
	Quote Quote
	Hash  common.Hash
}

// Swap runs route → trade → build → submit. The hash comes back as soon as
// the node accepts the transaction; it says nothing about inclusion.
func (e *Engine) Swap(ctx context.Context, w chain.Wallet, req SwapRequest) (SwapResult, error) {
	quote, err := e.Quote(ctx, req.QuoteRequest)
	if err != nil {
		return SwapResult{}, err
	}

	recipient := req.Recipient
	if recipient == (common.Address{}) {
		recipient = w.Address()
	}
	call, err := swap.BuildCall(quote.Trade, e.net.Router, recipient)
	if err != nil {
		return SwapResult{}, err
	}

	// Token input is pulled by the router and needs prior approval; native
	// input rides on the transaction value and does not.
	if !quote.Input.Native {
		if ta, ok := e.node.(tokenAuthority); ok {
			allowance, err := ta.Allowance(ctx, quote.Input.Address, w.Address(), e.net.Router)
			if err != nil {
				return SwapResult{}, err
			}
			if allowance.Cmp(quote.Trade.MaxInput()) < 0 {
				return SwapResult{}, fmt.Errorf("%s allowance %s below required %s: %w",
					quote.Input.Symbol, allowance, quote.Trade.MaxInput(), ErrInsufficientAllowance)
			}
		}
	}

	hash, err := e.submit(ctx, w, call)
	if err != nil {
		return SwapResult{}, err
	}
	e.sugar.Infow("swap submitted", "hash", hash, "method", call.Method, "recipient", recipient)
	return SwapResult{Quote: quote, Hash: hash}, nil
}

func (e *Engine) submit(ctx context.Context, w chain.Wallet, call swap.CallParams) (common.Hash, error) {
	if e.opts.DynamicFee {
		dn, okNode := e.node.(dynamicFeeNode)
		fs, okGas := e.gas.(feeCapSource)
		if okNode && okGas {
			tipCap, feeCap, err := fs.FeeCaps(ctx)
			if err != nil {
				return common.Hash{}, err
			}
			return dn.SubmitDynamicFee(ctx, w, call, tipCap, feeCap)
		}
		e.sugar.Warnw("dynamic fee requested but unavailable, falling back to legacy pricing")
	}
	gwei, err := e.gas.GasPriceGwei(ctx)
	if err != nil {
		return common.Hash{}, err
	}
	return e.node.Submit(ctx, w, call, gwei)
}

// Approve grants the router an allowance of amount on the token, the
// precondition for any swap spending it.
func (e *Engine) Approve(ctx context.Context, w chain.Wallet, token, amount string) (common.Hash, error) {
	a, err := e.assets.Lookup(token)
	if err != nil {
		return common.Hash{}, err
	}
	if a.Native {
		return common.Hash{}, fmt.Errorf("%s is the native asset and needs no approval", a.Symbol)
	}
	ta, ok := e.node.(tokenAuthority)
	if !ok {
		return common.Hash{}, fmt.Errorf("node does not support token approvals")
	}
	base, err := swap.ParseAmount(amount, a.Decimals)
	if err != nil {
		return common.Hash{}, err
	}
	gwei, err := e.gas.GasPriceGwei(ctx)
	if err != nil {
		return common.Hash{}, err
	}
	hash, err := ta.Approve(ctx, w, a.Address, e.net.Router, base, gwei)
	if err != nil {
		return common.Hash{}, err
	}
	e.sugar.Infow("approval submitted", "token", a.Symbol, "spender", e.net.Router, "amount", amount, "hash", hash)
	return hash, nil
}

// TrackResult distinguishes "not yet confirmed" (Pending) from "confirmed but
// reverted" (Success false). A reverted swap executed and cost gas; it is
// reported, never raised.
type TrackResult struct {
	Pending bool
	Success bool
	Receipt *types.Receipt
}

// Track is one idempotent receipt poll.
func (e *Engine) Track(ctx context.Context, hash common.Hash) (TrackResult, error) {
	receipt, err := e.node.Receipt(ctx, hash)
	if err != nil {
		return TrackResult{}, err
	}
	if receipt == nil {
		return TrackResult{Pending: true}, nil
	}
	return TrackResult{Success: chain.Succeeded(receipt), Receipt: receipt}, nil
}

// SwapAndWait submits and then polls until inclusion or context expiry. The
// context bounds only the engine's own polling; once broadcast, the
// transaction itself cannot be withdrawn and the embedded deadline is what
// stops late execution.
func (e *Engine) SwapAndWait(ctx context.Context, w chain.Wallet, req SwapRequest) (SwapResult, TrackResult, error) {
	result, err := e.Swap(ctx, w, req)
	if err != nil {
		return SwapResult{}, TrackResult{}, err
	}

	ticker := time.NewTicker(e.opts.PollInterval)
	defer ticker.Stop()
	for {
		track, err := e.Track(ctx, result.Hash)
		if err != nil {
			return result, TrackResult{}, err
		}
		if !track.Pending {
			if !track.Success {
				e.sugar.Warnw("swap reverted on-chain", "hash", result.Hash, "block", track.Receipt.BlockNumber)
			} else {
				e.sugar.Infow("swap confirmed", "hash", result.Hash, "block", track.Receipt.BlockNumber, "gasUsed", track.Receipt.GasUsed)
			}
			return result, track, nil
		}
		select {
		case <-ctx.Done():
			return result, TrackResult{}, fmt.Errorf("waiting for receipt: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}
