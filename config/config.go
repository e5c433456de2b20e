package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"

	"swapgate/swap"
)

// Network carries the per-chain contract addresses the gateway needs. The
// registry is the closed set of chains this build supports; anything else is
// ErrInvalidNetwork at load time.
type Network struct {
	ChainID       int64
	Name          string
	Router        common.Address
	Factory       common.Address
	WrappedNative common.Address
	NativeSymbol  string
}

var networks = map[int64]Network{
	1: {
		ChainID:       1,
		Name:          "mainnet",
		Router:        common.HexToAddress("0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D"),
		Factory:       common.HexToAddress("0x5C69bEe701ef814a2B6a3EDD4B1652CB9cc5aA6f"),
		WrappedNative: common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"),
		NativeSymbol:  "ETH",
	},
	5: {
		ChainID:       5,
		Name:          "goerli",
		Router:        common.HexToAddress("0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D"),
		Factory:       common.HexToAddress("0x5C69bEe701ef814a2B6a3EDD4B1652CB9cc5aA6f"),
		WrappedNative: common.HexToAddress("0xB4FBF271143F4FBf7B91A5ded31805e42b2208d6"),
		NativeSymbol:  "ETH",
	},
	137: {
		ChainID:       137,
		Name:          "polygon",
		Router:        common.HexToAddress("0xa5E0829CaCEd8fFDD4De3c43696c57F7D7A678ff"),
		Factory:       common.HexToAddress("0x5757371414417b8C6CAad45bAeF941aBc7d3Ab32"),
		WrappedNative: common.HexToAddress("0x0d500B1d8E8eF31E21C99d1Db9A6444d3ADf1270"),
		NativeSymbol:  "MATIC",
	},
	80001: {
		ChainID:       80001,
		Name:          "mumbai",
		Router:        common.HexToAddress("0x8954AfA98594b838bda56FE4C12a09D7739D179b"),
		Factory:       common.HexToAddress("0x5757371414417b8C6CAad45bAeF941aBc7d3Ab32"),
		WrappedNative: common.HexToAddress("0x9c3C9283D3e44854697Cd22D3Faa240Cfb032889"),
		NativeSymbol:  "MATIC",
	},
}

// NetworkFor resolves a chain id against the registry.
func NetworkFor(chainID int64) (Network, error) {
	n, ok := networks[chainID]
	if !ok {
		return Network{}, fmt.Errorf("chain %d: %w", chainID, swap.ErrInvalidNetwork)
	}
	return n, nil
}

// Config is the immutable process configuration, loaded once from the
// environment (a .env file is honored) and passed explicitly to whoever
// needs it.
type Config struct {
	RPCURL     string
	ChainID    int64
	Network    Network
	PrivateKey string

	TokenListPath string
	TokenListURL  string
	// TokenListRefresh of 0 disables periodic reloads of the URL list.
	TokenListRefresh time.Duration

	// GasPriceGwei of 0 selects the live estimator.
	GasPriceGwei uint64
	DynamicFee   bool

	ToleranceBps uint32
	DeadlineTTL  time.Duration
	PollInterval time.Duration
}

func Load() (Config, error) {
	godotenv.Load()

	chainID, err := envInt64("CHAIN_ID", 1)
	if err != nil {
		return Config{}, err
	}
	network, err := NetworkFor(chainID)
	if err != nil {
		return Config{}, err
	}

	gasGwei, err := envInt64("GAS_PRICE_GWEI", 0)
	if err != nil {
		return Config{}, err
	}
	toleranceBps, err := envInt64("TOLERANCE_BPS", 0)
	if err != nil {
		return Config{}, err
	}
	ttlSeconds, err := envInt64("DEADLINE_TTL_SECONDS", 60)
	if err != nil {
		return Config{}, err
	}
	pollMillis, err := envInt64("POLL_INTERVAL_MS", 2000)
	if err != nil {
		return Config{}, err
	}
	refreshSeconds, err := envInt64("TOKEN_LIST_REFRESH_SECONDS", 0)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		RPCURL:           os.Getenv("RPC_URL_HTTP"),
		ChainID:          chainID,
		Network:          network,
		PrivateKey:       os.Getenv("PRIVATE_KEY"),
		TokenListPath:    os.Getenv("TOKEN_LIST_PATH"),
		TokenListURL:     os.Getenv("TOKEN_LIST_URL"),
		TokenListRefresh: time.Duration(refreshSeconds) * time.Second,
		GasPriceGwei:     uint64(gasGwei),
		DynamicFee:       os.Getenv("DYNAMIC_FEE") == "true",
		ToleranceBps:     uint32(toleranceBps),
		DeadlineTTL:      time.Duration(ttlSeconds) * time.Second,
		PollInterval:     time.Duration(pollMillis) * time.Millisecond,
	}
	if cfg.RPCURL == "" {
		return Config{}, fmt.Errorf("RPC_URL_HTTP is required")
	}
	return cfg, nil
}

func envInt64(name string, def int64) (int64, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("%s must not be negative", name)
	}
	return v, nil
}
