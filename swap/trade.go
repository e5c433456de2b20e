package swap

import (
	"fmt"
	"math/big"
	"time"
)

// Pool fee is 0.3%: the router keeps 997/1000 of the input leg.
const (
	feeNumerator   = 997
	feeDenominator = 1000
	bpsDenominator = 10000
)

// DefaultTTL is the window between quoting and the on-chain deadline.
const DefaultTTL = 60 * time.Second

// TradeOptions tune a single computation. The zero value means zero slippage
// tolerance (any adverse price movement reverts) and the default TTL.
type TradeOptions struct {
	// ToleranceBps is the slippage tolerance in basis points (100 = 1%).
	ToleranceBps uint32
	TTL          time.Duration
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// GetAmountOut prices an input amount against one pool with the constant
// product invariant, fee deducted from the input leg. Division truncates, so
// rounding only ever costs the trader.
func GetAmountOut(amountIn, reserveIn, reserveOut *big.Int) (*big.Int, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, fmt.Errorf("amount in must be positive")
	}
	if reserveIn == nil || reserveOut == nil || reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		return nil, ErrInsufficientLiquidity
	}
	amountInWithFee := new(big.Int).Mul(amountIn, big.NewInt(feeNumerator))
	numerator := new(big.Int).Mul(amountInWithFee, reserveOut)
	denominator := new(big.Int).Mul(reserveIn, big.NewInt(feeDenominator))
	denominator.Add(denominator, amountInWithFee)
	return numerator.Div(numerator, denominator), nil
}

// GetAmountIn inverts GetAmountOut: the input required to take amountOut from
// the pool. Fails when amountOut meets or exceeds the reserve. The trailing +1
// covers the truncated fraction, again against the trader.
func GetAmountIn(amountOut, reserveIn, reserveOut *big.Int) (*big.Int, error) {
	if amountOut == nil || amountOut.Sign() <= 0 {
		return nil, fmt.Errorf("amount out must be positive")
	}
	if reserveIn == nil || reserveOut == nil || reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		return nil, ErrInsufficientLiquidity
	}
	if amountOut.Cmp(reserveOut) >= 0 {
		return nil, ErrInsufficientLiquidity
	}
	numerator := new(big.Int).Mul(reserveIn, amountOut)
	numerator.Mul(numerator, big.NewInt(feeDenominator))
	denominator := new(big.Int).Sub(reserveOut, amountOut)
	denominator.Mul(denominator, big.NewInt(feeNumerator))
	amountIn := numerator.Div(numerator, denominator)
	return amountIn.Add(amountIn, big.NewInt(1)), nil
}

// ComputeTrade prices the route for the user-fixed amount: hops chained in
// order for ExactIn, in reverse for ExactOut. Pure; the clock is the only
// ambient input and is injectable through opts.
func ComputeTrade(route Route, direction Direction, amount *big.Int, opts TradeOptions) (Trade, error) {
	if amount == nil || amount.Sign() <= 0 {
		return Trade{}, fmt.Errorf("trade amount must be positive")
	}
	if len(route.Pairs) == 0 {
		return Trade{}, fmt.Errorf("route has no pairs")
	}
	if opts.ToleranceBps > bpsDenominator {
		return Trade{}, fmt.Errorf("slippage tolerance %d bps exceeds 100%%", opts.ToleranceBps)
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	counter := new(big.Int).Set(amount)
	switch direction {
	case ExactIn:
		token := route.Path[0]
		for _, pair := range route.Pairs {
			reserveIn, reserveOut := pair.ReservesFor(token)
			out, err := GetAmountOut(counter, reserveIn, reserveOut)
			if err != nil {
				return Trade{}, err
			}
			counter = out
			token = pair.Other(token)
		}
	case ExactOut:
		token := route.Path[len(route.Path)-1]
		for i := len(route.Pairs) - 1; i >= 0; i-- {
			pair := route.Pairs[i]
			reserveIn, reserveOut := pair.ReservesFor(pair.Other(token))
			in, err := GetAmountIn(counter, reserveIn, reserveOut)
			if err != nil {
				return Trade{}, err
			}
			counter = in
			token = pair.Other(token)
		}
	default:
		return Trade{}, fmt.Errorf("unknown trade direction %d", direction)
	}

	return Trade{
		Route:         route,
		Direction:     direction,
		Amount:        new(big.Int).Set(amount),
		CounterAmount: counter,
		BoundAmount:   boundAmount(counter, direction, opts.ToleranceBps),
		Deadline:      big.NewInt(now().Add(ttl).Unix()),
	}, nil
}

// boundAmount applies the slippage tolerance to the computed side:
// counter*(10000-bps)/10000 for a minimum output, counter*(10000+bps)/10000
// for a maximum input. Zero tolerance pins the bound to the quote exactly.
func boundAmount(counter *big.Int, direction Direction, toleranceBps uint32) *big.Int {
	if toleranceBps == 0 {
		return new(big.Int).Set(counter)
	}
	factor := int64(bpsDenominator)
	if direction == ExactIn {
		factor -= int64(toleranceBps)
	} else {
		factor += int64(toleranceBps)
	}
	bound := new(big.Int).Mul(counter, big.NewInt(factor))
	return bound.Div(bound, big.NewInt(bpsDenominator))
}
