package config

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/params"
)

// Hardfork selects the EVM rule set the dev chain runs with. The set is
// closed; ParseHardfork rejects anything outside it.
type Hardfork string

const (
	HardforkFrontier       Hardfork = "frontier"
	HardforkHomestead      Hardfork = "homestead"
	HardforkTangerine      Hardfork = "tangerine"
	HardforkSpuriousDragon Hardfork = "spuriousdragon"
	HardforkByzantium      Hardfork = "byzantium"
	HardforkConstantinople Hardfork = "constantinople"
	HardforkPetersburg     Hardfork = "petersburg"
	HardforkIstanbul       Hardfork = "istanbul"
	HardforkMuirGlacier    Hardfork = "muirglacier"
	HardforkBerlin         Hardfork = "berlin"
	HardforkLondon         Hardfork = "london"
	HardforkArrowGlacier   Hardfork = "arrowglacier"
	HardforkGrayGlacier    Hardfork = "grayglacier"
	HardforkParis          Hardfork = "paris"
	HardforkShanghai       Hardfork = "shanghai"
	HardforkCancun         Hardfork = "cancun"

	// HardforkLatest aliases the newest supported fork.
	HardforkLatest Hardfork = "latest"
)

// hardforkOrder maps each fork to its activation ordinal. Higher ordinals
// include every rule change of lower ones.
var hardforkOrder = map[Hardfork]int{
	HardforkFrontier:       0,
	HardforkHomestead:      1,
	HardforkTangerine:      2,
	HardforkSpuriousDragon: 3,
	HardforkByzantium:      4,
	HardforkConstantinople: 5,
	HardforkPetersburg:     6,
	HardforkIstanbul:       7,
	HardforkMuirGlacier:    8,
	HardforkBerlin:         9,
	HardforkLondon:         10,
	HardforkArrowGlacier:   11,
	HardforkGrayGlacier:    12,
	HardforkParis:          13,
	HardforkShanghai:       14,
	HardforkCancun:         15,
}

// ParseHardfork converts a user-supplied name into a Hardfork.
// Matching is case-insensitive; "latest" resolves to the newest fork.
func ParseHardfork(s string) (Hardfork, error) {
	h := Hardfork(strings.ToLower(strings.TrimSpace(s)))
	if h == HardforkLatest || h == "" {
		return HardforkCancun, nil
	}
	if _, ok := hardforkOrder[h]; !ok {
		return "", fmt.Errorf("unknown hardfork %q", s)
	}
	return h, nil
}

// ordinal returns the activation ordinal of the fork. "latest" and unknown
// values map to the newest fork; ParseHardfork keeps the latter out.
func (h Hardfork) ordinal() int {
	if ord, ok := hardforkOrder[h]; ok {
		return ord
	}
	return hardforkOrder[HardforkCancun]
}

// PostMerge reports whether the fork runs under proof-of-stake rules and
// therefore needs a (simulated) beacon to produce blocks.
func (h Hardfork) PostMerge() bool {
	return h.ordinal() >= hardforkOrder[HardforkParis]
}

// ChainConfig builds the go-ethereum chain config with every fork up to and
// including h active from genesis.
func (h Hardfork) ChainConfig(chainID uint64) *params.ChainConfig {
	var (
		ord  = h.ordinal()
		zero = big.NewInt(0)
		t0   = uint64(0)
	)
	cfg := &params.ChainConfig{ChainID: new(big.Int).SetUint64(chainID)}

	if ord >= hardforkOrder[HardforkHomestead] {
		cfg.HomesteadBlock = zero
	}
	if ord >= hardforkOrder[HardforkTangerine] {
		cfg.EIP150Block = zero
	}
	if ord >= hardforkOrder[HardforkSpuriousDragon] {
		cfg.EIP155Block = zero
		cfg.EIP158Block = zero
	}
	if ord >= hardforkOrder[HardforkByzantium] {
		cfg.ByzantiumBlock = zero
	}
	if ord >= hardforkOrder[HardforkConstantinople] {
		cfg.ConstantinopleBlock = zero
	}
	if ord >= hardforkOrder[HardforkPetersburg] {
		cfg.PetersburgBlock = zero
	}
	if ord >= hardforkOrder[HardforkIstanbul] {
		cfg.IstanbulBlock = zero
	}
	if ord >= hardforkOrder[HardforkMuirGlacier] {
		cfg.MuirGlacierBlock = zero
	}
	if ord >= hardforkOrder[HardforkBerlin] {
		cfg.BerlinBlock = zero
	}
	if ord >= hardforkOrder[HardforkLondon] {
		cfg.LondonBlock = zero
	}
	if ord >= hardforkOrder[HardforkArrowGlacier] {
		cfg.ArrowGlacierBlock = zero
	}
	if ord >= hardforkOrder[HardforkGrayGlacier] {
		cfg.GrayGlacierBlock = zero
	}
	if ord >= hardforkOrder[HardforkParis] {
		cfg.MergeNetsplitBlock = zero
		cfg.TerminalTotalDifficulty = zero
	}
	if ord >= hardforkOrder[HardforkShanghai] {
		cfg.ShanghaiTime = &t0
	}
	if ord >= hardforkOrder[HardforkCancun] {
		cfg.CancunTime = &t0
		// go-ethereum rejects any Cancun-enabled config without a blob
		// schedule entry for the fork.
		cfg.BlobScheduleConfig = &params.BlobScheduleConfig{
			Cancun: params.DefaultCancunBlobConfig,
		}
	}
	return cfg
}
