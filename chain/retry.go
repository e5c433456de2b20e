package chain

import (
	"context"
	"time"
)

// Do runs fn up to attempts times, doubling the wait between tries. Used only
// at the RPC boundary; pure computation never retries.
func Do(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return err
}
