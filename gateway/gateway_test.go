package gateway

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"swapgate/chain"
	"swapgate/config"
	"swapgate/directory"
	"swapgate/gasprice"
	"swapgate/swap"
)

var (
	tokenA     = common.HexToAddress("0xaa")
	tokenB     = common.HexToAddress("0xbb")
	wrappedNat = common.HexToAddress("0xee")
	traderAddr = common.HexToAddress("0xc0ffee")
)

type fakeNode struct {
	mu    sync.Mutex
	pools map[[2]common.Address]swap.Pair

	submitted    []swap.CallParams
	submitGwei   []uint64
	submitErr    error
	hash         common.Hash
	pendingPolls int
	polls        int
	receipt      *types.Receipt
	allowance    *big.Int
	approvals    []approval
}

type approval struct {
	token   common.Address
	spender common.Address
	amount  *big.Int
}

func pairKey(a, b common.Address) [2]common.Address {
	if b.Hex() < a.Hex() {
		a, b = b, a
	}
	return [2]common.Address{a, b}
}

func newFakeNode() *fakeNode {
	return &fakeNode{
		pools:     make(map[[2]common.Address]swap.Pair),
		hash:      common.HexToHash("0xdeadbeef"),
		allowance: big.NewInt(1_000_000_000),
	}
}

func (n *fakeNode) addPool(a, b common.Address, ra, rb int64) {
	n.pools[pairKey(a, b)] = swap.Pair{
		Address:  common.HexToAddress("0xf0"),
		Token0:   a,
		Token1:   b,
		Reserve0: big.NewInt(ra),
		Reserve1: big.NewInt(rb),
	}
}

func (n *fakeNode) FetchPair(_ context.Context, a, b common.Address) (swap.Pair, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if p, ok := n.pools[pairKey(a, b)]; ok {
		return p, nil
	}
	return swap.Pair{}, swap.ErrNoPool
}

func (n *fakeNode) Submit(_ context.Context, _ chain.Wallet, call swap.CallParams, gasPriceGwei uint64) (common.Hash, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.submitErr != nil {
		return common.Hash{}, n.submitErr
	}
	n.submitted = append(n.submitted, call)
	n.submitGwei = append(n.submitGwei, gasPriceGwei)
	return n.hash, nil
}

func (n *fakeNode) Allowance(_ context.Context, _, _, _ common.Address) (*big.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return new(big.Int).Set(n.allowance), nil
}

func (n *fakeNode) Approve(_ context.Context, _ chain.Wallet, token, spender common.Address, amount *big.Int, _ uint64) (common.Hash, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.approvals = append(n.approvals, approval{token: token, spender: spender, amount: amount})
	n.allowance = new(big.Int).Set(amount)
	return n.hash, nil
}

func (n *fakeNode) Receipt(context.Context, common.Hash) (*types.Receipt, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.polls++
	if n.polls <= n.pendingPolls {
		return nil, nil
	}
	return n.receipt, nil
}

type fakeWallet struct{}

func (fakeWallet) Address() common.Address { return traderAddr }
func (fakeWallet) SignTx(tx *types.Transaction, _ *big.Int) (*types.Transaction, error) {
	return tx, nil
}

func testNetwork() config.Network {
	return config.Network{
		ChainID:       1,
		Name:          "testnet",
		Router:        common.HexToAddress("0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D"),
		Factory:       common.HexToAddress("0xfac"),
		WrappedNative: wrappedNat,
		NativeSymbol:  "ETH",
	}
}

func testDirectory() *directory.Directory {
	d := directory.New(1)
	d.Register(swap.Asset{ChainID: 1, Address: tokenA, Symbol: "AAA", Decimals: 6})
	d.Register(swap.Asset{ChainID: 1, Address: tokenB, Symbol: "BBB", Decimals: 6})
	d.RegisterNative("ETH", wrappedNat)
	return d
}

func testEngine(node *fakeNode, opts Options) *Engine {
	return New(node, gasprice.Fixed(30), testDirectory(), testNetwork(), opts, zap.NewNop().Sugar())
}

func TestQuoteDirectRoute(t *testing.T) {
	node := newFakeNode()
	node.addPool(tokenA, tokenB, 1_000_000, 2_000_000)
	engine := testEngine(node, Options{})

	quote, err := engine.Quote(context.Background(), QuoteRequest{
		In: "AAA", Out: "BBB", Amount: "0.001", Direction: swap.ExactIn,
	})
	require.NoError(t, err)
	require.Equal(t, swap.RouteDirect, quote.Trade.Route.Kind)
	require.Equal(t, int64(1992), quote.Trade.CounterAmount.Int64())
	require.Equal(t, quote.Trade.CounterAmount, quote.Trade.BoundAmount)
}

func TestQuoteBridgedRoute(t *testing.T) {
	node := newFakeNode()
	node.addPool(tokenA, wrappedNat, 1_000_000, 1_000_000)
	node.addPool(wrappedNat, tokenB, 1_000_000, 1_000_000)
	engine := testEngine(node, Options{})

	quote, err := engine.Quote(context.Background(), QuoteRequest{
		In: "AAA", Out: "BBB", Amount: "0.001", Direction: swap.ExactIn,
	})
	require.NoError(t, err)
	require.Equal(t, swap.RouteBridged, quote.Trade.Route.Kind)
	require.Len(t, quote.Trade.Route.Pairs, 2)
}

func TestQuoteNoRoute(t *testing.T) {
	engine := testEngine(newFakeNode(), Options{})

	_, err := engine.Quote(context.Background(), QuoteRequest{
		In: "AAA", Out: "BBB", Amount: "0.001", Direction: swap.ExactIn,
	})
	require.ErrorIs(t, err, swap.ErrNoLiquidity)
}

func TestQuoteUnknownAsset(t *testing.T) {
	engine := testEngine(newFakeNode(), Options{})

	_, err := engine.Quote(context.Background(), QuoteRequest{
		In: "NOPE", Out: "BBB", Amount: "0.001", Direction: swap.ExactIn,
	})
	require.ErrorIs(t, err, directory.ErrNotFound)
}

func TestSwapSubmitsRouterCall(t *testing.T) {
	node := newFakeNode()
	node.addPool(tokenA, tokenB, 1_000_000, 2_000_000)
	engine := testEngine(node, Options{})

	result, err := engine.Swap(context.Background(), fakeWallet{}, SwapRequest{
		QuoteRequest: QuoteRequest{In: "AAA", Out: "BBB", Amount: "0.001", Direction: swap.ExactIn},
	})
	require.NoError(t, err)
	require.Equal(t, node.hash, result.Hash)
	require.Len(t, node.submitted, 1)
	require.Equal(t, "swapExactTokensForTokens", node.submitted[0].Method)
	require.Equal(t, uint64(30), node.submitGwei[0])
}

func TestSwapRejectsInsufficientAllowance(t *testing.T) {
	node := newFakeNode()
	node.addPool(tokenA, tokenB, 1_000_000, 2_000_000)
	node.allowance = big.NewInt(0)
	engine := testEngine(node, Options{})

	_, err := engine.Swap(context.Background(), fakeWallet{}, SwapRequest{
		QuoteRequest: QuoteRequest{In: "AAA", Out: "BBB", Amount: "0.001", Direction: swap.ExactIn},
	})
	require.ErrorIs(t, err, ErrInsufficientAllowance)
	require.Empty(t, node.submitted)
}

func TestApproveGrantsRouterAllowance(t *testing.T) {
	node := newFakeNode()
	engine := testEngine(node, Options{})

	hash, err := engine.Approve(context.Background(), fakeWallet{}, "AAA", "0.005")
	require.NoError(t, err)
	require.Equal(t, node.hash, hash)
	require.Len(t, node.approvals, 1)
	require.Equal(t, tokenA, node.approvals[0].token)
	require.Equal(t, testNetwork().Router, node.approvals[0].spender)
	require.Equal(t, int64(5000), node.approvals[0].amount.Int64())
}

func TestApproveRejectsNativeAsset(t *testing.T) {
	engine := testEngine(newFakeNode(), Options{})

	_, err := engine.Approve(context.Background(), fakeWallet{}, "ETH", "1")
	require.Error(t, err)
}

func TestSwapNativeInputUsesPayableVariant(t *testing.T) {
	node := newFakeNode()
	node.addPool(wrappedNat, tokenB, 1_000_000, 2_000_000)
	// Native input never needs an allowance.
	node.allowance = big.NewInt(0)
	engine := testEngine(node, Options{})

	_, err := engine.Swap(context.Background(), fakeWallet{}, SwapRequest{
		QuoteRequest: QuoteRequest{In: "ETH", Out: "BBB", Amount: "0.001", Direction: swap.ExactIn},
	})
	require.NoError(t, err)
	require.Len(t, node.submitted, 1)
	require.Equal(t, "swapExactETHForTokens", node.submitted[0].Method)
	require.Positive(t, node.submitted[0].Value.Sign())
}

func TestTrackPendingThenIdempotent(t *testing.T) {
	node := newFakeNode()
	node.pendingPolls = 2
	node.receipt = &types.Receipt{Status: types.ReceiptStatusSuccessful, BlockNumber: big.NewInt(42)}
	engine := testEngine(node, Options{})

	track, err := engine.Track(context.Background(), node.hash)
	require.NoError(t, err)
	require.True(t, track.Pending)
	require.Nil(t, track.Receipt)

	track, err = engine.Track(context.Background(), node.hash)
	require.NoError(t, err)
	require.True(t, track.Pending)

	first, err := engine.Track(context.Background(), node.hash)
	require.NoError(t, err)
	require.False(t, first.Pending)
	require.True(t, first.Success)

	// Receipts are immutable; every later poll returns the same one.
	second, err := engine.Track(context.Background(), node.hash)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Same(t, first.Receipt, second.Receipt)
}

func TestTrackRevertedIsResultNotError(t *testing.T) {
	node := newFakeNode()
	node.receipt = &types.Receipt{Status: types.ReceiptStatusFailed, BlockNumber: big.NewInt(42)}
	engine := testEngine(node, Options{})

	track, err := engine.Track(context.Background(), node.hash)
	require.NoError(t, err)
	require.False(t, track.Pending)
	require.False(t, track.Success)
	require.NotNil(t, track.Receipt)
}

func TestSwapAndWaitPollsUntilIncluded(t *testing.T) {
	node := newFakeNode()
	node.addPool(tokenA, tokenB, 1_000_000, 2_000_000)
	node.pendingPolls = 2
	node.receipt = &types.Receipt{Status: types.ReceiptStatusSuccessful, BlockNumber: big.NewInt(42)}
	engine := testEngine(node, Options{PollInterval: 5 * time.Millisecond})

	result, track, err := engine.SwapAndWait(context.Background(), fakeWallet{}, SwapRequest{
		QuoteRequest: QuoteRequest{In: "AAA", Out: "BBB", Amount: "0.001", Direction: swap.ExactIn},
	})
	require.NoError(t, err)
	require.Equal(t, node.hash, result.Hash)
	require.True(t, track.Success)
	require.GreaterOrEqual(t, node.polls, 3)
}

func TestSwapAndWaitHonorsContext(t *testing.T) {
	node := newFakeNode()
	node.addPool(tokenA, tokenB, 1_000_000, 2_000_000)
	node.pendingPolls = 1 << 30
	engine := testEngine(node, Options{PollInterval: 5 * time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, _, err := engine.SwapAndWait(ctx, fakeWallet{}, SwapRequest{
		QuoteRequest: QuoteRequest{In: "AAA", Out: "BBB", Amount: "0.001", Direction: swap.ExactIn},
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSwapPropagatesSubmitFailure(t *testing.T) {
	node := newFakeNode()
	node.addPool(tokenA, tokenB, 1_000_000, 2_000_000)
	node.submitErr = &swap.RPCError{Op: "eth_sendRawTransaction", Err: errors.New("nonce too low")}
	engine := testEngine(node, Options{})

	_, err := engine.Swap(context.Background(), fakeWallet{}, SwapRequest{
		QuoteRequest: QuoteRequest{In: "AAA", Out: "BBB", Amount: "0.001", Direction: swap.ExactIn},
	})
	var rpcErr *swap.RPCError
	require.ErrorAs(t, err, &rpcErr)
}
