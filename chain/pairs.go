package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"swapgate/swap"
)

// FetchPair resolves the pool for (tokenA, tokenB) through the factory and
// reads its current reserves. swap.ErrNoPool when the factory has no pool.
// Implements swap.PairFetcher.
func (c *Client) FetchPair(ctx context.Context, tokenA, tokenB common.Address) (swap.Pair, error) {
	out, err := c.callView(ctx, c.factory, factoryABI, "getPair", tokenA, tokenB)
	if err != nil {
		return swap.Pair{}, err
	}
	pairAddr, ok := out[0].(common.Address)
	if !ok {
		return swap.Pair{}, fmt.Errorf("getPair: unexpected result type %T", out[0])
	}
	if pairAddr == (common.Address{}) {
		return swap.Pair{}, fmt.Errorf("%s/%s: %w", tokenA, tokenB, swap.ErrNoPool)
	}

	out, err = c.callView(ctx, pairAddr, pairABI, "token0")
	if err != nil {
		return swap.Pair{}, err
	}
	token0, ok := out[0].(common.Address)
	if !ok {
		return swap.Pair{}, fmt.Errorf("token0: unexpected result type %T", out[0])
	}
	token1 := tokenB
	if token0 == tokenB {
		token1 = tokenA
	}

	out, err = c.callView(ctx, pairAddr, pairABI, "getReserves")
	if err != nil {
		return swap.Pair{}, err
	}
	reserve0, ok0 := out[0].(*big.Int)
	reserve1, ok1 := out[1].(*big.Int)
	if !ok0 || !ok1 {
		return swap.Pair{}, fmt.Errorf("getReserves: unexpected result types %T, %T", out[0], out[1])
	}

	c.sugar.Debugw("fetched pair",
		"pair", pairAddr,
		"token0", token0,
		"reserve0", reserve0,
		"reserve1", reserve1,
	)
	return swap.Pair{
		Address:  pairAddr,
		Token0:   token0,
		Token1:   token1,
		Reserve0: reserve0,
		Reserve1: reserve1,
	}, nil
}
