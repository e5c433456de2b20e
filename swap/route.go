package swap

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// PairFetcher reads one pool's current state from the chain. Implementations
// return ErrNoPool when the factory has no pool for the pair and must be safe
// for concurrent use.
type PairFetcher interface {
	FetchPair(ctx context.Context, tokenA, tokenB common.Address) (Pair, error)
}

// ResolveRoute finds a path from input to output: the direct pool first, and
// only if that pool does not exist, a two-hop path through the bridge asset
// (the chain's wrapped native token). The two bridge legs are independent
// reads and are fetched concurrently. No deeper fallback is attempted.
func ResolveRoute(ctx context.Context, fetcher PairFetcher, bridge common.Address, input, output Asset) (Route, error) {
	if input.Address == output.Address {
		return Route{}, fmt.Errorf("input and output are the same asset %s", input.Address)
	}

	direct, err := fetcher.FetchPair(ctx, input.Address, output.Address)
	if err == nil {
		return Route{
			Kind:   RouteDirect,
			Input:  input,
			Output: output,
			Pairs:  []Pair{direct},
			Path:   []common.Address{input.Address, output.Address},
		}, nil
	}
	if !errors.Is(err, ErrNoPool) {
		return Route{}, err
	}

	// One end being the bridge leaves no distinct intermediate hop.
	if input.Address == bridge || output.Address == bridge {
		return Route{}, ErrNoLiquidity
	}

	var (
		wg            sync.WaitGroup
		legIn, legOut Pair
		errIn, errOut error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		legIn, errIn = fetcher.FetchPair(ctx, input.Address, bridge)
	}()
	go func() {
		defer wg.Done()
		legOut, errOut = fetcher.FetchPair(ctx, bridge, output.Address)
	}()
	wg.Wait()

	if errors.Is(errIn, ErrNoPool) || errors.Is(errOut, ErrNoPool) {
		return Route{}, ErrNoLiquidity
	}
	if errIn != nil {
		return Route{}, errIn
	}
	if errOut != nil {
		return Route{}, errOut
	}

	return Route{
		Kind:   RouteBridged,
		Input:  input,
		Output: output,
		Pairs:  []Pair{legIn, legOut},
		Path:   []common.Address{input.Address, bridge, output.Address},
	}, nil
}
