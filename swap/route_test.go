package swap

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

// fakeFetcher serves pairs from a map keyed independently of argument order.
type fakeFetcher struct {
	mu    sync.Mutex
	pools map[[2]common.Address]Pair
	errs  map[[2]common.Address]error
	calls int
}

func pairKey(a, b common.Address) [2]common.Address {
	if b.Hex() < a.Hex() {
		a, b = b, a
	}
	return [2]common.Address{a, b}
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		pools: make(map[[2]common.Address]Pair),
		errs:  make(map[[2]common.Address]error),
	}
}

func (f *fakeFetcher) addPool(a, b common.Address) {
	f.pools[pairKey(a, b)] = Pair{
		Address:  common.HexToAddress("0xf0"),
		Token0:   a,
		Token1:   b,
		Reserve0: big.NewInt(1_000_000),
		Reserve1: big.NewInt(1_000_000),
	}
}

func (f *fakeFetcher) FetchPair(_ context.Context, a, b common.Address) (Pair, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err, ok := f.errs[pairKey(a, b)]; ok {
		return Pair{}, err
	}
	if p, ok := f.pools[pairKey(a, b)]; ok {
		return p, nil
	}
	return Pair{}, ErrNoPool
}

func TestResolveRouteDirect(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.addPool(tokenA, tokenB)

	route, err := ResolveRoute(context.Background(), fetcher, bridge, asset(tokenA, "AAA"), asset(tokenB, "BBB"))
	require.NoError(t, err)
	require.Equal(t, RouteDirect, route.Kind)
	require.Len(t, route.Pairs, 1)
	require.Equal(t, []common.Address{tokenA, tokenB}, route.Path)
}

func TestResolveRouteBridged(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.addPool(tokenA, bridge)
	fetcher.addPool(bridge, tokenB)

	route, err := ResolveRoute(context.Background(), fetcher, bridge, asset(tokenA, "AAA"), asset(tokenB, "BBB"))
	require.NoError(t, err)
	require.Equal(t, RouteBridged, route.Kind)
	require.Len(t, route.Pairs, 2)
	require.Equal(t, []common.Address{tokenA, bridge, tokenB}, route.Path)

	// The bridge appears exactly once in the path, shared by both hops.
	seen := 0
	for _, addr := range route.Path {
		if addr == bridge {
			seen++
		}
	}
	require.Equal(t, 1, seen)
	require.True(t, route.Pairs[0].HasToken(bridge))
	require.True(t, route.Pairs[1].HasToken(bridge))
}

func TestResolveRouteNoLiquidity(t *testing.T) {
	fetcher := newFakeFetcher()
	// Only one bridge leg exists.
	fetcher.addPool(tokenA, bridge)

	_, err := ResolveRoute(context.Background(), fetcher, bridge, asset(tokenA, "AAA"), asset(tokenB, "BBB"))
	require.ErrorIs(t, err, ErrNoLiquidity)

	_, err = ResolveRoute(context.Background(), newFakeFetcher(), bridge, asset(tokenA, "AAA"), asset(tokenB, "BBB"))
	require.ErrorIs(t, err, ErrNoLiquidity)
}

func TestResolveRoutePropagatesRPCFailure(t *testing.T) {
	fetcher := newFakeFetcher()
	rpcErr := &RPCError{Op: "getPair", Err: errors.New("connection reset")}
	fetcher.errs[pairKey(tokenA, tokenB)] = rpcErr

	_, err := ResolveRoute(context.Background(), fetcher, bridge, asset(tokenA, "AAA"), asset(tokenB, "BBB"))
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNoLiquidity)

	var got *RPCError
	require.ErrorAs(t, err, &got)
}

func TestResolveRouteBridgeEndpointHasNoFallback(t *testing.T) {
	// When one end is the bridge itself, the direct pool is the only
	// candidate; a missing pool cannot be bridged around.
	fetcher := newFakeFetcher()
	fetcher.addPool(bridge, tokenB)

	_, err := ResolveRoute(context.Background(), fetcher, bridge, asset(tokenA, "AAA"), asset(bridge, "WNAT"))
	require.ErrorIs(t, err, ErrNoLiquidity)

	route, err := ResolveRoute(context.Background(), fetcher, bridge, asset(bridge, "WNAT"), asset(tokenB, "BBB"))
	require.NoError(t, err)
	require.Equal(t, RouteDirect, route.Kind)
}

func TestResolveRouteSameAsset(t *testing.T) {
	_, err := ResolveRoute(context.Background(), newFakeFetcher(), bridge, asset(tokenA, "AAA"), asset(tokenA, "AAA"))
	require.Error(t, err)
}
