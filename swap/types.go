package swap

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Asset is chain-qualified token metadata. Identity is (ChainID, Address).
// Native marks the chain's native coin; its Address is the wrapped contract,
// which is what appears in swap paths.
type Asset struct {
	ChainID  int64
	Address  common.Address
	Symbol   string
	Decimals uint8
	Native   bool
}

// Pair is the reserve state of one pool, fetched fresh per request. Reserves
// move every block, so a Pair is never reused across requests.
type Pair struct {
	Address  common.Address
	Token0   common.Address
	Token1   common.Address
	Reserve0 *big.Int
	Reserve1 *big.Int
}

func (p Pair) HasToken(token common.Address) bool {
	return p.Token0 == token || p.Token1 == token
}

// Other returns the pool token opposite to the given one.
func (p Pair) Other(token common.Address) common.Address {
	if p.Token0 == token {
		return p.Token1
	}
	return p.Token0
}

// ReservesFor orients the reserves around the given input token.
func (p Pair) ReservesFor(input common.Address) (reserveIn, reserveOut *big.Int) {
	if p.Token0 == input {
		return p.Reserve0, p.Reserve1
	}
	return p.Reserve1, p.Reserve0
}

type RouteKind int

const (
	RouteDirect RouteKind = iota
	RouteBridged
)

func (k RouteKind) String() string {
	switch k {
	case RouteDirect:
		return "direct"
	case RouteBridged:
		return "bridged"
	}
	return "unknown"
}

// Route is a connected path of one or two pairs from Input to Output. Path is
// the token address sequence the router contract expects; for a bridged route
// the middle entry is the bridge asset, shared by both pairs.
type Route struct {
	Kind   RouteKind
	Input  Asset
	Output Asset
	Pairs  []Pair
	Path   []common.Address
}

type Direction int

const (
	ExactIn Direction = iota
	ExactOut
)

func (d Direction) String() string {
	switch d {
	case ExactIn:
		return "exact-in"
	case ExactOut:
		return "exact-out"
	}
	return "unknown"
}

// Trade is a priced swap. Amount is the user-fixed side, CounterAmount the
// computed side, BoundAmount the slippage limit on the computed side
// (minimum output for ExactIn, maximum input for ExactOut) and Deadline the
// unix timestamp after which the router must revert the swap.
type Trade struct {
	Route         Route
	Direction     Direction
	Amount        *big.Int
	CounterAmount *big.Int
	BoundAmount   *big.Int
	Deadline      *big.Int
}

// InputAmount is the amount entering the first hop.
func (t Trade) InputAmount() *big.Int {
	if t.Direction == ExactIn {
		return t.Amount
	}
	return t.CounterAmount
}

// OutputAmount is the amount leaving the last hop.
func (t Trade) OutputAmount() *big.Int {
	if t.Direction == ExactIn {
		return t.CounterAmount
	}
	return t.Amount
}

// MaxInput is the most the trader can be charged: the fixed input for
// ExactIn, the slippage-bounded input for ExactOut.
func (t Trade) MaxInput() *big.Int {
	if t.Direction == ExactIn {
		return t.Amount
	}
	return t.BoundAmount
}

// CallParams is a fully-formed router call, independent of any signer.
// Data carries the four-byte method selector followed by the ABI-encoded
// arguments; Value is the attached native amount.
type CallParams struct {
	Method string
	To     common.Address
	Data   []byte
	Value  *big.Int
}
