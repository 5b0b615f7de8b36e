package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/params"
	"github.com/forgekit/anvilgo/internal/accounts"
	"github.com/holiman/uint256"
)

// NodeConfig is the immutable runtime configuration of the node. It is a pure
// function of validated Args: Build performs no I/O, so equal Args always
// yield value-equal configurations. The value is owned by the caller that
// spawns the node runtime and is never mutated after construction.
type NodeConfig struct {
	// Port is the HTTP-RPC listen port.
	Port uint16 `json:"port"`

	// Host is the resolved HTTP-RPC listen address.
	Host string `json:"host"`

	// ChainID is the resolved chain id of the dev chain.
	ChainID uint64 `json:"chainId"`

	// Hardfork is the resolved EVM rule set; never "latest".
	Hardfork Hardfork `json:"hardfork"`

	// GenesisBalance is the initial balance of every dev account, in wei.
	GenesisBalance *uint256.Int `json:"genesisBalance"`

	// Accounts describes how the dev accounts are derived.
	Accounts accounts.Spec `json:"accounts"`

	// GasLimit is the block gas limit.
	GasLimit uint64 `json:"gasLimit"`

	// GasPrice is the minimum gas price in wei, nil for the node default.
	GasPrice *uint64 `json:"gasPrice,omitempty"`

	// BaseFee is the genesis base fee in wei, nil for the protocol default.
	BaseFee *uint64 `json:"baseFee,omitempty"`

	// BlockTime is the interval-mining period, nil when interval mining is
	// off. Mutually exclusive with NoMining, enforced during validation.
	BlockTime *time.Duration `json:"blockTime,omitempty"`

	// NoMining disables automatic block production.
	NoMining bool `json:"noMining"`

	// Order is the mempool transaction ordering policy, carried through as an
	// opaque selector for the mempool.
	Order TxOrder `json:"order"`

	// Silent suppresses the startup banner.
	Silent bool `json:"silent"`

	// ConfigOut is the path the effective configuration is written to,
	// empty when no artifact was requested.
	ConfigOut string `json:"configOut,omitempty"`

	// ForkURL is the remote endpoint backing the chain state, empty when the
	// node starts from an empty genesis.
	ForkURL string `json:"forkUrl,omitempty"`

	// ForkBlockNumber pins the fork to a remote block, nil for the remote
	// head at startup.
	ForkBlockNumber *uint64 `json:"forkBlockNumber,omitempty"`

	// ForkRetryBackoff is the initial backoff for retrying failed remote
	// calls, nil for the fork client default.
	ForkRetryBackoff *time.Duration `json:"forkRetryBackoff,omitempty"`

	// NoStorageCaching disables the on-disk fork cache.
	NoStorageCaching bool `json:"noStorageCaching"`
}

// Build transforms validated Args into a NodeConfig. The transform is pure
// and side-effect free: defaults are resolved from the central table, the
// per-account balance is converted to wei with saturating 256-bit
// multiplication, and the remaining optional fields pass through with only
// type conversion. Cross-field validation has already happened in
// Args.Validate and is not repeated here.
func Build(args Args) NodeConfig {
	balance := SaturatingEtherToWei(uint256.NewInt(args.Balance))

	chainID := DefaultChainID
	if args.ChainID != nil {
		chainID = *args.ChainID
	}

	phrase := DefaultMnemonic
	if args.Mnemonic != "" {
		phrase = args.Mnemonic
	}
	path := DefaultDerivationPath
	if args.DerivationPath != "" {
		path = args.DerivationPath
	}

	host := DefaultHost
	if args.Host != "" {
		host = args.Host
	}

	gasLimit := DefaultGasLimit
	if args.GasLimit != nil {
		gasLimit = *args.GasLimit
	}

	return NodeConfig{
		Port:     args.Port,
		Host:     host,
		ChainID:  chainID,
		Hardfork: args.Hardfork,

		GenesisBalance: balance,
		Accounts: accounts.Spec{
			Count:          args.Accounts,
			Mnemonic:       phrase,
			DerivationPath: path,
			ChainID:        chainID,
		},

		GasLimit: gasLimit,
		GasPrice: args.GasPrice,
		BaseFee:  args.BaseFee,

		BlockTime: secondsToDuration(args.BlockTime),
		NoMining:  args.NoMining,
		Order:     args.Order,

		Silent:    args.Silent,
		ConfigOut: args.ConfigOut,

		ForkURL:          args.ForkURL,
		ForkBlockNumber:  args.ForkBlockNumber,
		ForkRetryBackoff: secondsToDuration(args.ForkRetryBackoff),
		NoStorageCaching: args.NoStorageCaching,
	}
}

// WriteFile serializes the configuration as indented JSON to path. The value
// written is the receiver itself, so the artifact can never drift from the
// configuration in effect.
func (c NodeConfig) WriteFile(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal node config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write node config: %w", err)
	}
	return nil
}

// SaturatingEtherToWei converts a whole-ether amount to wei. Overflow clamps
// to the maximum representable 256-bit value instead of wrapping or aborting.
func SaturatingEtherToWei(ether *uint256.Int) *uint256.Int {
	wei, overflow := new(uint256.Int).MulOverflow(ether, uint256.NewInt(params.Ether))
	if overflow {
		wei.SetAllOne()
	}
	return wei
}

func secondsToDuration(secs *uint64) *time.Duration {
	if secs == nil {
		return nil
	}
	d := time.Duration(*secs) * time.Second
	return &d
}
