// Package gasprice supplies gas prices to the submitter. The engine treats
// the value as opaque; it can come from configuration or a live estimator.
package gasprice

import "context"

// Source yields a gas price in gwei.
type Source interface {
	GasPriceGwei(ctx context.Context) (uint64, error)
}

// Fixed is a configured constant gas price.
type Fixed uint64

func (f Fixed) GasPriceGwei(context.Context) (uint64, error) {
	return uint64(f), nil
}
