package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Args holds the raw, user-supplied launch parameters after flag parsing and
// before any interpretation. Validate is called exactly once at process start;
// the value is never mutated afterward.
//
// Optional numeric parameters are pointers so that "not supplied" is
// distinguishable from an explicit zero.
type Args struct {
	// Port is the HTTP-RPC listen port.
	Port uint16

	// Accounts is the number of dev accounts to derive and fund.
	Accounts uint64

	// Balance is the balance of every dev account, in whole ether.
	Balance uint64

	// Mnemonic is the BIP-39 phrase accounts are derived from.
	// Empty means the well-known default phrase.
	Mnemonic string

	// DerivationPath is the HD path prefix the account index is appended to.
	// Empty means the standard Ethereum path.
	DerivationPath string

	// Silent suppresses the startup banner.
	Silent bool

	// Hardfork is the EVM rule set name, already checked against the closed
	// enumeration by flag parsing.
	Hardfork Hardfork

	// BlockTime is the interval-mining period in seconds. Nil disables
	// interval mining; transactions are then mined as they arrive.
	BlockTime *uint64 `validate:"omitempty,gt=0"`

	// ConfigOut, when non-empty, is the path the effective node configuration
	// is serialized to.
	ConfigOut string

	// NoMining disables automatic block production entirely.
	NoMining bool

	// Host is the HTTP-RPC listen address. Empty falls back to the
	// ANVILGO_IP_ADDR environment variable, then to the loopback address.
	Host string `validate:"omitempty,ip"`

	// Order selects the mempool transaction ordering policy.
	Order TxOrder

	// ForkURL, when non-empty, backs the chain with the state of a remote
	// endpoint instead of an empty genesis.
	ForkURL string `validate:"omitempty,url"`

	// ForkBlockNumber pins the fork to a specific remote block.
	// Only valid together with ForkURL.
	ForkBlockNumber *uint64

	// ForkRetryBackoff is the initial backoff in seconds for retrying failed
	// remote calls. Only valid together with ForkURL.
	ForkRetryBackoff *uint64 `validate:"omitempty,gt=0"`

	// NoStorageCaching disables the on-disk fork cache; every remote slot is
	// then read from the endpoint. Only valid together with ForkURL.
	NoStorageCaching bool

	// GasLimit overrides the block gas limit.
	GasLimit *uint64 `validate:"omitempty,gt=0"`

	// GasPrice overrides the minimum gas price, in wei.
	GasPrice *uint64

	// BaseFee overrides the genesis block base fee, in wei.
	BaseFee *uint64

	// ChainID overrides the chain id of the dev chain.
	ChainID *uint64 `validate:"omitempty,gt=0"`
}

// Validate checks field constraints and the cross-field rules that flag
// parsing cannot express: interval mining conflicts with disabled mining, and
// the fork-only options require a fork endpoint. It is called once, before
// the node configuration is built.
func (a Args) Validate() error {
	if err := validator.New().Struct(a); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	if a.BlockTime != nil && a.NoMining {
		return fmt.Errorf("--block-time conflicts with --no-mining, supply at most one")
	}
	if a.ForkURL == "" {
		if a.ForkBlockNumber != nil {
			return fmt.Errorf("--fork-block-number requires --fork-url")
		}
		if a.ForkRetryBackoff != nil {
			return fmt.Errorf("--fork-retry-backoff requires --fork-url")
		}
		if a.NoStorageCaching {
			return fmt.Errorf("--no-storage-caching requires --fork-url")
		}
	}
	return nil
}
