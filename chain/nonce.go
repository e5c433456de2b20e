package chain

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"swapgate/swap"
)

// NonceBackend is the node read the manager seeds itself from.
type NonceBackend interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
}

// NonceManager hands out consecutive nonces for one sending account. The
// caller holds the lock across the whole sign-and-broadcast so a failed send
// leaves no gap. Seeded lazily from the node's pending nonce.
type NonceManager struct {
	mu     sync.Mutex
	seeded bool
	next   uint64
}

func (m *NonceManager) Lock()   { m.mu.Lock() }
func (m *NonceManager) Unlock() { m.mu.Unlock() }

// Next returns the nonce the next transaction must use. Caller must hold the
// lock.
func (m *NonceManager) Next(ctx context.Context, backend NonceBackend, account common.Address) (uint64, error) {
	if !m.seeded {
		n, err := backend.PendingNonceAt(ctx, account)
		if err != nil {
			return 0, &swap.RPCError{Op: "eth_getTransactionCount", Err: err}
		}
		m.next = n
		m.seeded = true
	}
	return m.next, nil
}

// Advance marks the current nonce consumed after a successful broadcast.
// Caller must hold the lock.
func (m *NonceManager) Advance() {
	m.next++
}
