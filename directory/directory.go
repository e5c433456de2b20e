// Package directory resolves symbols and addresses to chain-qualified asset
// metadata. Fed out-of-band from a token-list file or URL; staleness is this
// package's problem, not the engine's.
package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"swapgate/swap"
)

var ErrNotFound = errors.New("asset not found in directory")

// tokenList is the standard token-list JSON shape.
type tokenList struct {
	Name   string       `json:"name"`
	Tokens []tokenEntry `json:"tokens"`
}

type tokenEntry struct {
	ChainID  int64  `json:"chainId"`
	Address  string `json:"address"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

type Directory struct {
	chainID int64

	mu        sync.RWMutex
	bySymbol  map[string]swap.Asset
	byAddress map[common.Address]swap.Asset
}

func New(chainID int64) *Directory {
	return &Directory{
		chainID:   chainID,
		bySymbol:  make(map[string]swap.Asset),
		byAddress: make(map[common.Address]swap.Asset),
	}
}

// Register adds one asset. Later registrations win, which is what a refresh
// wants.
func (d *Directory) Register(a swap.Asset) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.bySymbol[strings.ToUpper(a.Symbol)] = a
	d.byAddress[a.Address] = a
}

// RegisterNative maps the chain's native symbol to the wrapped contract with
// the Native flag set. Symbol lookup returns the native alias; address lookup
// still returns the wrapped ERC-20.
func (d *Directory) RegisterNative(symbol string, wrapped common.Address) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.bySymbol[strings.ToUpper(symbol)] = swap.Asset{
		ChainID:  d.chainID,
		Address:  wrapped,
		Symbol:   strings.ToUpper(symbol),
		Decimals: 18,
		Native:   true,
	}
}

// Lookup resolves a symbol or a hex address. Case-insensitive on symbols.
func (d *Directory) Lookup(symbolOrAddress string) (swap.Asset, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if common.IsHexAddress(symbolOrAddress) {
		if a, ok := d.byAddress[common.HexToAddress(symbolOrAddress)]; ok {
			return a, nil
		}
		return swap.Asset{}, fmt.Errorf("%s: %w", symbolOrAddress, ErrNotFound)
	}
	if a, ok := d.bySymbol[strings.ToUpper(symbolOrAddress)]; ok {
		return a, nil
	}
	return swap.Asset{}, fmt.Errorf("%s: %w", symbolOrAddress, ErrNotFound)
}

func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.byAddress)
}

// LoadFile merges a token-list file. Entries for other chains are skipped.
func (d *Directory) LoadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read token list: %w", err)
	}
	return d.merge(raw)
}

// LoadURL merges a token list fetched from a remote URL.
func (d *Directory) LoadURL(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("fetch token list: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch token list: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch token list: status %s", resp.Status)
	}
	var list tokenList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return fmt.Errorf("decode token list: %w", err)
	}
	d.add(list)
	return nil
}

// Refresh reloads the URL on an interval until the context ends. Failures
// keep the previous entries; a stale directory beats an empty one.
func (d *Directory) Refresh(ctx context.Context, url string, every time.Duration, sugar *zap.SugaredLogger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := d.LoadURL(ctx, url); err != nil {
				sugar.Warnw("token list refresh failed", "url", url, "err", err)
				continue
			}
			sugar.Debugw("token list refreshed", "url", url, "assets", d.Len())
		}
	}
}

func (d *Directory) merge(raw []byte) error {
	var list tokenList
	if err := json.Unmarshal(raw, &list); err != nil {
		return fmt.Errorf("decode token list: %w", err)
	}
	d.add(list)
	return nil
}

func (d *Directory) add(list tokenList) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, t := range list.Tokens {
		if t.ChainID != d.chainID || !common.IsHexAddress(t.Address) {
			continue
		}
		a := swap.Asset{
			ChainID:  t.ChainID,
			Address:  common.HexToAddress(t.Address),
			Symbol:   strings.ToUpper(t.Symbol),
			Decimals: t.Decimals,
		}
		d.bySymbol[a.Symbol] = a
		d.byAddress[a.Address] = a
	}
}
