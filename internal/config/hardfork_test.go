package config_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/forgekit/anvilgo/internal/config"
)

// TestParseHardforkLatest verifies "latest" resolves to the newest fork.
func TestParseHardforkLatest(t *testing.T) {
	h, err := config.ParseHardfork("latest")
	require.NoError(t, err)
	require.Equal(t, config.HardforkCancun, h)
}

// TestPostMergeBoundary verifies the proof-of-stake boundary sits at paris.
func TestPostMergeBoundary(t *testing.T) {
	require.False(t, config.HardforkGrayGlacier.PostMerge())
	require.True(t, config.HardforkParis.PostMerge())
	require.True(t, config.HardforkCancun.PostMerge())
}

// TestChainConfigActivation verifies only the rule changes up to the selected
// fork are active.
func TestChainConfigActivation(t *testing.T) {
	istanbul := config.HardforkIstanbul.ChainConfig(1337)
	require.NotNil(t, istanbul.IstanbulBlock, "istanbul rules should be active")
	require.Nil(t, istanbul.BerlinBlock, "berlin must not be active yet")
	require.Nil(t, istanbul.TerminalTotalDifficulty, "istanbul is pre-merge")
	require.EqualValues(t, 1337, istanbul.ChainID.Uint64())

	cancun := config.HardforkCancun.ChainConfig(1)
	require.NotNil(t, cancun.TerminalTotalDifficulty, "cancun is post-merge")
	require.NotNil(t, cancun.ShanghaiTime)
	require.NotNil(t, cancun.CancunTime)
}
