package config_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/forgekit/anvilgo/internal/config"
	"github.com/forgekit/anvilgo/internal/testutils"
)

func uint64ptr(v uint64) *uint64 { return &v }

// TestBuildIsPure verifies referential transparency: equal Args produce
// value-equal configurations.
func TestBuildIsPure(t *testing.T) {
	args := config.Args{
		Port:            8545,
		Accounts:        3,
		Balance:         100,
		Hardfork:        config.HardforkShanghai,
		Order:           config.OrderFIFO,
		BlockTime:       uint64ptr(12),
		ChainID:         uint64ptr(1),
		ForkURL:         "http://localhost:8545",
		ForkBlockNumber: uint64ptr(17_000_000),
		GasPrice:        uint64ptr(1_000_000_000),
	}

	first := config.Build(args)
	second := config.Build(args)
	require.True(t, reflect.DeepEqual(first, second),
		"building twice from equal arguments must yield equal configurations")
}

// TestGenesisBalanceConversion verifies the ether-to-wei conversion,
// including the saturating clamp on overflow.
func TestGenesisBalanceConversion(t *testing.T) {
	cfg := config.Build(config.Args{Balance: 1})
	require.Equal(t, uint256.NewInt(1e18), cfg.GenesisBalance,
		"one ether should convert to 10^18 wei")

	max := new(uint256.Int).SetAllOne()
	require.Equal(t, max, config.SaturatingEtherToWei(max),
		"conversion must clamp to the maximum representable value, not wrap")

	small := config.SaturatingEtherToWei(uint256.NewInt(10000))
	require.Equal(t, uint256.MustFromDecimal("10000000000000000000000"), small)
}

// TestBuildResolvesDefaults verifies the centralized defaults flow into the
// configuration when the corresponding arguments are absent.
func TestBuildResolvesDefaults(t *testing.T) {
	cfg := config.Build(config.Args{Port: config.DefaultPort, Accounts: config.DefaultAccounts, Balance: config.DefaultBalance})

	require.Equal(t, config.DefaultChainID, cfg.ChainID)
	require.Equal(t, config.DefaultHost, cfg.Host)
	require.Equal(t, config.DefaultGasLimit, cfg.GasLimit)
	require.Equal(t, config.DefaultMnemonic, cfg.Accounts.Mnemonic)
	require.Equal(t, config.DefaultDerivationPath, cfg.Accounts.DerivationPath)
	require.Equal(t, config.DefaultAccounts, cfg.Accounts.Count)
	require.Equal(t, cfg.ChainID, cfg.Accounts.ChainID,
		"the account spec must carry the resolved chain id")
	require.Nil(t, cfg.BlockTime)
	require.Nil(t, cfg.ForkBlockNumber)
}

// TestBuildExplicitOverrides verifies explicit values win over defaults and
// pass through with only type conversion.
func TestBuildExplicitOverrides(t *testing.T) {
	args := config.Args{
		Accounts:         5,
		Balance:          1,
		Mnemonic:         "legal winner thank year wave sausage worth useful legal winner thank yellow",
		DerivationPath:   "m/44'/60'/1'/0",
		Host:             "0.0.0.0",
		ChainID:          uint64ptr(777),
		BlockTime:        uint64ptr(3),
		ForkRetryBackoff: uint64ptr(2),
		ForkURL:          "http://localhost:8545",
		GasLimit:         uint64ptr(12_345_678),
	}
	cfg := config.Build(args)

	require.Equal(t, args.Mnemonic, cfg.Accounts.Mnemonic)
	require.Equal(t, "m/44'/60'/1'/0", cfg.Accounts.DerivationPath)
	require.Equal(t, "0.0.0.0", cfg.Host)
	require.EqualValues(t, 777, cfg.ChainID)
	require.EqualValues(t, 777, cfg.Accounts.ChainID)
	require.Equal(t, 3*time.Second, *cfg.BlockTime, "seconds should convert to a duration")
	require.Equal(t, 2*time.Second, *cfg.ForkRetryBackoff)
	require.EqualValues(t, 12_345_678, cfg.GasLimit)
}

// TestWriteFileMatchesEffectiveConfig verifies the config-out artifact
// round-trips to the exact configuration in effect, with no field drift.
func TestWriteFileMatchesEffectiveConfig(t *testing.T) {
	cfg := config.Build(config.Args{
		Port:      9999,
		Accounts:  2,
		Balance:   42,
		Hardfork:  config.HardforkCancun,
		Order:     config.OrderFees,
		BlockTime: uint64ptr(7),
		ChainID:   uint64ptr(1337),
	})

	path := filepath.Join(testutils.NewTempDir(t).Path(), "config.json")
	require.NoError(t, cfg.WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded config.NodeConfig
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.True(t, reflect.DeepEqual(cfg, decoded),
		"the serialized configuration must match the one in effect")
}
