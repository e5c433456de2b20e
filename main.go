package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"

	"github.com/ethereum/go-ethereum/common"

	"swapgate/chain"
	"swapgate/config"
	"swapgate/directory"
	"swapgate/gasprice"
	"swapgate/gateway"
	"swapgate/logging"
	"swapgate/swap"
	"swapgate/wallet"
)

func main() {
	var (
		inFlag    = flag.String("in", "", "input asset, symbol or address")
		outFlag   = flag.String("out", "", "output asset, symbol or address")
		amount    = flag.String("amount", "", "amount of the fixed side, in asset units")
		exactOut  = flag.Bool("exact-out", false, "fix the output amount instead of the input")
		recipient = flag.String("recipient", "", "recipient address, defaults to the wallet")
		quoteOnly = flag.Bool("quote", false, "print the quote and exit without submitting")
		approve   = flag.Bool("approve", false, "grant the router an allowance of -amount on -in and exit")
	)
	flag.Parse()
	if *approve {
		if *inFlag == "" || *amount == "" {
			flag.Usage()
			os.Exit(2)
		}
	} else if *inFlag == "" || *outFlag == "" || *amount == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	sugar, err := logging.NewSugar(os.Getenv("LOG_LEVEL"))
	if err != nil {
		log.Fatal(err)
	}
	defer sugar.Sync()

	ctx := context.Background()

	assets := directory.New(cfg.ChainID)
	assets.RegisterNative(cfg.Network.NativeSymbol, cfg.Network.WrappedNative)
	if cfg.TokenListPath != "" {
		if err := assets.LoadFile(cfg.TokenListPath); err != nil {
			sugar.Fatalw("load token list", "err", err)
		}
	}
	if cfg.TokenListURL != "" {
		if err := assets.LoadURL(ctx, cfg.TokenListURL); err != nil {
			sugar.Fatalw("load token list", "err", err)
		}
	}
	if cfg.TokenListURL != "" && cfg.TokenListRefresh > 0 {
		go assets.Refresh(ctx, cfg.TokenListURL, cfg.TokenListRefresh, sugar)
	}
	sugar.Infow("directory ready", "chain", cfg.Network.Name, "assets", assets.Len())

	client, err := chain.Dial(ctx, cfg.RPCURL, cfg.ChainID, cfg.Network.Factory, sugar)
	if err != nil {
		sugar.Fatalw("connect to node", "err", err)
	}
	defer client.Close()

	var gas gasprice.Source
	if cfg.GasPriceGwei > 0 {
		gas = gasprice.Fixed(cfg.GasPriceGwei)
	} else {
		live, err := gasprice.NewLive(cfg.RPCURL, cfg.ChainID)
		if err != nil {
			sugar.Fatalw("gas estimator", "err", err)
		}
		gas = live
	}

	engine := gateway.New(client, gas, assets, cfg.Network, gateway.Options{
		ToleranceBps: cfg.ToleranceBps,
		TTL:          cfg.DeadlineTTL,
		PollInterval: cfg.PollInterval,
		DynamicFee:   cfg.DynamicFee,
	}, sugar)

	if *approve {
		w, err := wallet.New(cfg.PrivateKey)
		if err != nil {
			sugar.Fatalw("wallet", "err", err)
		}
		hash, err := engine.Approve(ctx, w, *inFlag, *amount)
		if err != nil {
			sugar.Fatalw("approve", "err", err)
		}
		receipt, err := client.WaitMined(ctx, hash, cfg.PollInterval)
		if err != nil {
			sugar.Fatalw("approve", "err", err)
		}
		if !chain.Succeeded(receipt) {
			sugar.Fatalw("approval reverted", "hash", hash)
		}
		sugar.Infow("approved", "hash", hash, "block", receipt.BlockNumber)
		return
	}

	direction := swap.ExactIn
	if *exactOut {
		direction = swap.ExactOut
	}
	req := gateway.QuoteRequest{In: *inFlag, Out: *outFlag, Amount: *amount, Direction: direction}

	if *quoteOnly {
		quote, err := engine.Quote(ctx, req)
		if err != nil {
			sugar.Fatalw("quote", "err", err)
		}
		counterDecimals := quote.Output.Decimals
		if direction == swap.ExactOut {
			counterDecimals = quote.Input.Decimals
		}
		sugar.Infow("quote",
			"route", quote.Trade.Route.Kind.String(),
			"counterAmount", swap.FormatAmount(quote.Trade.CounterAmount, counterDecimals),
			"boundAmount", swap.FormatAmount(quote.Trade.BoundAmount, counterDecimals),
			"deadline", quote.Trade.Deadline,
		)
		return
	}

	w, err := wallet.New(cfg.PrivateKey)
	if err != nil {
		sugar.Fatalw("wallet", "err", err)
	}
	if balance, err := client.NativeBalance(ctx, w.Address()); err != nil {
		sugar.Warnw("read native balance", "err", err)
	} else {
		sugar.Infow("wallet ready", "address", w.Address(), "nativeBalance", swap.FormatAmount(balance, 18))
	}

	swapReq := gateway.SwapRequest{QuoteRequest: req}
	if *recipient != "" {
		if !common.IsHexAddress(*recipient) {
			sugar.Fatalw("bad recipient address", "recipient", *recipient)
		}
		swapReq.Recipient = common.HexToAddress(*recipient)
	}

	result, track, err := engine.SwapAndWait(ctx, w, swapReq)
	if errors.Is(err, gateway.ErrInsufficientAllowance) {
		sugar.Fatalw("router not approved for the input token, run with -approve first", "err", err)
	}
	if err != nil {
		sugar.Fatalw("swap", "err", err)
	}
	if !track.Success {
		sugar.Fatalw("swap reverted", "hash", result.Hash)
	}
	sugar.Infow("done", "hash", result.Hash, "block", track.Receipt.BlockNumber)
}
