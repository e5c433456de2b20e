package swap

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidNetwork marks an unsupported or mismatched chain id. Fatal at
	// construction, never retried.
	ErrInvalidNetwork = errors.New("unsupported chain id")

	// ErrNoPool is returned by a pair fetch when the factory has no pool for
	// the pair. The route resolver treats it as a signal to fall back.
	ErrNoPool = errors.New("no liquidity pool for pair")

	// ErrNoLiquidity means neither a direct nor a bridged route exists.
	ErrNoLiquidity = errors.New("no route found")

	// ErrInsufficientLiquidity means a hop would need more than the pool
	// holds. A trade-sizing error, safe to retry with a smaller amount.
	ErrInsufficientLiquidity = errors.New("insufficient liquidity for trade size")
)

// RPCError wraps a transient node failure during fetch, submit or poll.
// Callers may retry at the I/O boundary; the pure components never see it.
type RPCError struct {
	Op  string
	Err error
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc %s: %v", e.Op, e.Err)
}

func (e *RPCError) Unwrap() error {
	return e.Err
}
