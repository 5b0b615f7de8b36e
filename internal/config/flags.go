package config

import (
	"fmt"
	"math"

	"github.com/urfave/cli/v2"
)

// Flag names, shared between the flag table and FromCLI.
const (
	FlagPort             = "port"
	FlagAccounts         = "accounts"
	FlagBalance          = "balance"
	FlagMnemonic         = "mnemonic"
	FlagDerivationPath   = "derivation-path"
	FlagSilent           = "silent"
	FlagHardfork         = "hardfork"
	FlagBlockTime        = "block-time"
	FlagConfigOut        = "config-out"
	FlagNoMining         = "no-mining"
	FlagHost             = "host"
	FlagOrder            = "order"
	FlagForkURL          = "fork-url"
	FlagForkBlockNumber  = "fork-block-number"
	FlagForkRetryBackoff = "fork-retry-backoff"
	FlagNoStorageCaching = "no-storage-caching"
	FlagGasLimit         = "gas-limit"
	FlagGasPrice         = "gas-price"
	FlagBaseFee          = "block-base-fee-per-gas"
	FlagChainID          = "chain-id"
)

// Flags is the full CLI surface of the node.
var Flags = []cli.Flag{
	&cli.UintFlag{
		Name:  FlagPort,
		Usage: "port number to listen on",
		Value: uint(DefaultPort),
	},
	&cli.Uint64Flag{
		Name:  FlagAccounts,
		Usage: "number of dev accounts to generate and fund",
		Value: DefaultAccounts,
	},
	&cli.Uint64Flag{
		Name:  FlagBalance,
		Usage: "balance of every dev account, in ether",
		Value: DefaultBalance,
	},
	&cli.StringFlag{
		Name:    FlagMnemonic,
		Aliases: []string{"m"},
		Usage:   "BIP-39 mnemonic phrase used for generating accounts",
	},
	&cli.StringFlag{
		Name:  FlagDerivationPath,
		Usage: "derivation path prefix of the child keys (default: m/44'/60'/0'/0)",
	},
	&cli.BoolFlag{
		Name:  FlagSilent,
		Usage: "don't print anything on startup",
	},
	&cli.StringFlag{
		Name:  FlagHardfork,
		Usage: "the EVM hardfork to use",
		Value: string(HardforkLatest),
	},
	&cli.Uint64Flag{
		Name:    FlagBlockTime,
		Aliases: []string{"b", "blockTime"},
		Usage:   "block time in seconds for interval mining",
	},
	&cli.StringFlag{
		Name:  FlagConfigOut,
		Usage: "write the effective node configuration as JSON to the given file",
	},
	&cli.BoolFlag{
		Name:    FlagNoMining,
		Aliases: []string{"no-mine"},
		Usage:   "disable auto and interval mining, and mine on demand instead",
	},
	&cli.StringFlag{
		Name:    FlagHost,
		Usage:   "the host the server will listen on",
		EnvVars: []string{HostEnvVar},
	},
	&cli.StringFlag{
		Name:  FlagOrder,
		Usage: "how transactions are sorted in the mempool (fees, fifo)",
		Value: string(OrderFees),
	},
	&cli.StringFlag{
		Name:    FlagForkURL,
		Aliases: []string{"f", "rpc-url"},
		Usage:   "fetch state over a remote endpoint instead of starting from an empty state",
	},
	&cli.Uint64Flag{
		Name:  FlagForkBlockNumber,
		Usage: "fetch state from a specific block number over a remote endpoint",
	},
	&cli.Uint64Flag{
		Name:  FlagForkRetryBackoff,
		Usage: "initial retry backoff in seconds on encountering remote errors",
	},
	&cli.BoolFlag{
		Name:  FlagNoStorageCaching,
		Usage: "disable RPC caching; all storage slots are read from the endpoint",
	},
	&cli.Uint64Flag{
		Name:  FlagGasLimit,
		Usage: "the block gas limit",
	},
	&cli.Uint64Flag{
		Name:  FlagGasPrice,
		Usage: "the gas price, in wei",
	},
	&cli.Uint64Flag{
		Name:    FlagBaseFee,
		Aliases: []string{"base-fee"},
		Usage:   "the base fee in a block, in wei",
	},
	&cli.Uint64Flag{
		Name:  FlagChainID,
		Usage: "the chain id",
	},
}

// FromCLI maps parsed flag values onto Args. It resolves the closed
// enumerations and rejects out-of-range values the flag types cannot express;
// cross-field rules are left to Args.Validate.
func FromCLI(c *cli.Context) (Args, error) {
	port := c.Uint(FlagPort)
	if port > math.MaxUint16 {
		return Args{}, fmt.Errorf("--port must fit in 16 bits, got %d", port)
	}

	hardfork, err := ParseHardfork(c.String(FlagHardfork))
	if err != nil {
		return Args{}, fmt.Errorf("--hardfork: %w", err)
	}
	order, err := ParseTxOrder(c.String(FlagOrder))
	if err != nil {
		return Args{}, fmt.Errorf("--order: %w", err)
	}

	return Args{
		Port:             uint16(port),
		Accounts:         c.Uint64(FlagAccounts),
		Balance:          c.Uint64(FlagBalance),
		Mnemonic:         c.String(FlagMnemonic),
		DerivationPath:   c.String(FlagDerivationPath),
		Silent:           c.Bool(FlagSilent),
		Hardfork:         hardfork,
		BlockTime:        optUint64(c, FlagBlockTime),
		ConfigOut:        c.String(FlagConfigOut),
		NoMining:         c.Bool(FlagNoMining),
		Host:             c.String(FlagHost),
		Order:            order,
		ForkURL:          c.String(FlagForkURL),
		ForkBlockNumber:  optUint64(c, FlagForkBlockNumber),
		ForkRetryBackoff: optUint64(c, FlagForkRetryBackoff),
		NoStorageCaching: c.Bool(FlagNoStorageCaching),
		GasLimit:         optUint64(c, FlagGasLimit),
		GasPrice:         optUint64(c, FlagGasPrice),
		BaseFee:          optUint64(c, FlagBaseFee),
		ChainID:          optUint64(c, FlagChainID),
	}, nil
}

// optUint64 returns the flag value, or nil when the flag was not supplied.
func optUint64(c *cli.Context, name string) *uint64 {
	if !c.IsSet(name) {
		return nil
	}
	v := c.Uint64(name)
	return &v
}
