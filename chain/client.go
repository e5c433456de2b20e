// Package chain is the node-facing side of the gateway: pair reads,
// transaction broadcast and receipt polling over a single shared JSON-RPC
// connection. Everything pure lives in package swap; this package only does
// I/O.
package chain

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"swapgate/swap"
)

const (
	rpcAttempts = 3
	rpcBackoff  = 250 * time.Millisecond
)

// Client wraps one ethclient connection. Safe for concurrent use by multiple
// in-flight swap requests; the underlying connection pools internally.
type Client struct {
	eth     *ethclient.Client
	chainID *big.Int
	factory common.Address
	nonces  *NonceManager
	sugar   *zap.SugaredLogger
}

// Dial connects to the node and verifies it serves the configured chain.
// A mismatch is swap.ErrInvalidNetwork and fatal.
func Dial(ctx context.Context, rpcURL string, chainID int64, factory common.Address, sugar *zap.SugaredLogger) (*Client, error) {
	eth, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, &swap.RPCError{Op: "dial", Err: err}
	}
	nodeID, err := eth.ChainID(ctx)
	if err != nil {
		eth.Close()
		return nil, &swap.RPCError{Op: "eth_chainId", Err: err}
	}
	if nodeID.Int64() != chainID {
		eth.Close()
		return nil, fmt.Errorf("node reports chain %d, configured %d: %w", nodeID.Int64(), chainID, swap.ErrInvalidNetwork)
	}
	return &Client{
		eth:     eth,
		chainID: nodeID,
		factory: factory,
		nonces:  &NonceManager{},
		sugar:   sugar,
	}, nil
}

func (c *Client) ChainID() *big.Int {
	return new(big.Int).Set(c.chainID)
}

func (c *Client) Close() {
	c.eth.Close()
}

// NativeBalance reads the account's native coin balance at the latest block.
func (c *Client) NativeBalance(ctx context.Context, account common.Address) (*big.Int, error) {
	var balance *big.Int
	err := Do(ctx, rpcAttempts, rpcBackoff, func() error {
		var err error
		balance, err = c.eth.BalanceAt(ctx, account, nil)
		return err
	})
	if err != nil {
		return nil, &swap.RPCError{Op: "eth_getBalance", Err: err}
	}
	return balance, nil
}

// callView runs a read-only contract call and unpacks the result.
func (c *Client) callView(ctx context.Context, to common.Address, parsed abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &to, Data: data}
	var raw []byte
	err = Do(ctx, rpcAttempts, rpcBackoff, func() error {
		var err error
		raw, err = c.eth.CallContract(ctx, msg, nil)
		return err
	})
	if err != nil {
		return nil, &swap.RPCError{Op: method, Err: err}
	}
	out, err := parsed.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", method, err)
	}
	return out, nil
}
