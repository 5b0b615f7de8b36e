package config

// Central defaults table for all launch parameters. Every default lives here
// so that the flag surface, the validator, and Build agree on a single value.
const (
	// DefaultPort is the HTTP-RPC listen port.
	DefaultPort uint16 = 8545

	// DefaultHost is the HTTP-RPC listen address when neither --host nor the
	// environment override is supplied.
	DefaultHost = "127.0.0.1"

	// HostEnvVar overrides the listen address when --host is absent.
	HostEnvVar = "ANVILGO_IP_ADDR"

	// DefaultAccounts is the number of dev accounts derived at startup.
	DefaultAccounts uint64 = 10

	// DefaultBalance is the balance of every dev account, in whole ether.
	DefaultBalance uint64 = 10000

	// DefaultChainID is used when --chain-id is not given. 31337 is the
	// conventional local dev chain id.
	DefaultChainID uint64 = 31337

	// DefaultMnemonic is the well-known, publicly documented dev phrase.
	// Accounts derived from it hold no value on any real network.
	DefaultMnemonic = "test test test test test test test test test test test junk"

	// DefaultDerivationPath is the standard Ethereum path prefix. The
	// zero-based account index is appended as the final path segment.
	DefaultDerivationPath = "m/44'/60'/0'/0"

	// DefaultGasLimit is the block gas limit when --gas-limit is not given.
	DefaultGasLimit uint64 = 30_000_000
)
