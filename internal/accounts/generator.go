// Package accounts derives the node's initial set of funded dev accounts
// from a BIP-39 mnemonic. Derivation is deterministic: identical inputs
// always yield the identical ordered sequence of accounts, which is what
// makes local test environments reproducible when the well-known default
// phrase is used.
package accounts

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	gethaccounts "github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	bip39 "github.com/tyler-smith/go-bip39"
)

// ErrInvalidMnemonic indicates the phrase failed its BIP-39 checksum.
var ErrInvalidMnemonic = errors.New("invalid mnemonic phrase")

// Spec fully determines a set of derived accounts. It is assembled by the
// configuration builder and consumed once when the node runtime starts.
type Spec struct {
	// Count is the number of accounts to derive.
	Count uint64 `json:"count"`

	// Mnemonic is the BIP-39 phrase the key hierarchy grows from.
	Mnemonic string `json:"mnemonic"`

	// DerivationPath is the path prefix the zero-based account index is
	// appended to. A trailing separator is tolerated.
	DerivationPath string `json:"derivationPath"`

	// ChainID binds the derived identities to a network for downstream
	// signing.
	ChainID uint64 `json:"chainId"`
}

// Account is one derived identity.
type Account struct {
	Address    common.Address
	PrivateKey *ecdsa.PrivateKey
}

// Generator derives accounts from a validated Spec. The mnemonic checksum
// and the path template are checked once at construction; derivation itself
// works on the typed path and cannot fail on malformed input.
type Generator struct {
	count    uint64
	seed     []byte
	basePath gethaccounts.DerivationPath
	chainID  uint64
}

// NewGenerator validates spec and returns a Generator for it.
// Returns ErrInvalidMnemonic if the phrase fails its checksum, or a
// descriptive error if the derivation path template does not parse.
func NewGenerator(spec Spec) (*Generator, error) {
	if !bip39.IsMnemonicValid(spec.Mnemonic) {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrInvalidMnemonic)
	}

	path, err := gethaccounts.ParseDerivationPath(strings.TrimSuffix(spec.DerivationPath, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid derivation path %q: %w", spec.DerivationPath, err)
	}

	return &Generator{
		count:    spec.Count,
		seed:     bip39.NewSeed(spec.Mnemonic, ""),
		basePath: path,
		chainID:  spec.ChainID,
	}, nil
}

// Accounts derives the ordered sequence of accounts. The i-th account is the
// child key at the base path with i substituted as the final index segment.
// A zero count yields an empty slice.
func (g *Generator) Accounts() ([]Account, error) {
	master, err := hdkeychain.NewMaster(g.seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, fmt.Errorf("derive master key: %w", err)
	}

	out := make([]Account, 0, g.count)
	for i := uint64(0); i < g.count; i++ {
		key, err := deriveKey(master, g.indexPath(uint32(i)))
		if err != nil {
			return nil, fmt.Errorf("derive account %d: %w", i, err)
		}
		out = append(out, Account{
			Address:    crypto.PubkeyToAddress(key.PublicKey),
			PrivateKey: key,
		})
	}
	return out, nil
}

// ChainID returns the network context the accounts are bound to.
func (g *Generator) ChainID() uint64 { return g.chainID }

// Signer returns the transaction signer matching the generator's chain id,
// for callers that sign with the derived keys.
func (g *Generator) Signer() types.Signer {
	return types.LatestSignerForChainID(new(big.Int).SetUint64(g.chainID))
}

// indexPath returns the base path with index appended as the final segment.
func (g *Generator) indexPath(index uint32) gethaccounts.DerivationPath {
	path := make(gethaccounts.DerivationPath, len(g.basePath)+1)
	copy(path, g.basePath)
	path[len(g.basePath)] = index
	return path
}

// deriveKey walks the extended key down the given path and returns the leaf
// as an ECDSA private key.
func deriveKey(master *hdkeychain.ExtendedKey, path gethaccounts.DerivationPath) (*ecdsa.PrivateKey, error) {
	key := master
	for _, segment := range path {
		var err error
		key, err = key.Derive(segment)
		if err != nil {
			return nil, fmt.Errorf("derive segment %d: %w", segment, err)
		}
	}
	priv, err := key.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("extract private key: %w", err)
	}
	return priv.ToECDSA(), nil
}
