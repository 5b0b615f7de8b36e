// Package fork backs the dev chain with the state of a remote endpoint.
// Remote reads go through a read-guarded, disk-backed cache so repeated
// lookups of the same slot do not hit the endpoint again.
package fork

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/rs/zerolog"
)

// AccountSnapshot is the cached remote state of one account.
type AccountSnapshot struct {
	Nonce   uint64        `json:"nonce"`
	Balance *uint256.Int  `json:"balance"`
	Code    hexutil.Bytes `json:"code,omitempty"`
}

// Database caches remote chain state fetched while forking. All access goes
// through the RWMutex; lookups and the shutdown flush take the read lock,
// insertions take the write lock. No caller holds the lock across a blocking
// call, so the flush performed on the interrupt path cannot deadlock against
// the node's own tasks.
type Database struct {
	log       zerolog.Logger
	cachePath string
	caching   bool

	mu       sync.RWMutex
	accounts map[common.Address]AccountSnapshot
	storage  map[common.Address]map[common.Hash]common.Hash
}

// cacheFile is the on-disk layout of a flushed cache.
type cacheFile struct {
	Accounts map[common.Address]AccountSnapshot             `json:"accounts"`
	Storage  map[common.Address]map[common.Hash]common.Hash `json:"storage"`
}

// NewDatabase creates a fork cache backed by the file at cachePath. When
// caching is enabled and a previous cache file exists, it seeds the in-memory
// state; when disabled, the database is purely in-memory for the lifetime of
// the process and FlushCache is a no-op.
func NewDatabase(log zerolog.Logger, cachePath string, caching bool) *Database {
	db := &Database{
		log:       log.With().Str("component", "fork-db").Logger(),
		cachePath: cachePath,
		caching:   caching,
		accounts:  make(map[common.Address]AccountSnapshot),
		storage:   make(map[common.Address]map[common.Hash]common.Hash),
	}
	if caching {
		db.load()
	}
	return db
}

// Account returns the cached snapshot for addr, if any.
func (db *Database) Account(addr common.Address) (AccountSnapshot, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	snap, ok := db.accounts[addr]
	return snap, ok
}

// StoreAccount caches the snapshot for addr.
func (db *Database) StoreAccount(addr common.Address, snap AccountSnapshot) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.accounts[addr] = snap
}

// StorageAt returns the cached value of the given storage slot, if any.
func (db *Database) StorageAt(addr common.Address, slot common.Hash) (common.Hash, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	value, ok := db.storage[addr][slot]
	return value, ok
}

// StoreStorage caches the value of the given storage slot.
func (db *Database) StoreStorage(addr common.Address, slot common.Hash, value common.Hash) {
	db.mu.Lock()
	defer db.mu.Unlock()
	slots, ok := db.storage[addr]
	if !ok {
		slots = make(map[common.Hash]common.Hash)
		db.storage[addr] = slots
	}
	slots[slot] = value
}

// FlushCache writes the cached remote state to the cache file. It takes only
// the read lock, so in-flight lookups keep running. A no-op when caching is
// disabled. Safe to call from the interrupt path.
func (db *Database) FlushCache() {
	if !db.caching {
		return
	}

	db.mu.RLock()
	data, err := json.Marshal(cacheFile{Accounts: db.accounts, Storage: db.storage})
	db.mu.RUnlock()
	if err != nil {
		db.log.Error().Err(err).Msg("failed to encode fork cache")
		return
	}

	if err := os.MkdirAll(filepath.Dir(db.cachePath), 0755); err != nil {
		db.log.Error().Err(err).Msg("failed to create fork cache dir")
		return
	}
	if err := os.WriteFile(db.cachePath, data, 0644); err != nil {
		db.log.Error().Err(err).Msg("failed to write fork cache")
		return
	}
	db.log.Info().Str("path", db.cachePath).Msg("flushed fork cache")
}

// load seeds the cache from a previous run's flush, if present.
func (db *Database) load() {
	data, err := os.ReadFile(db.cachePath)
	if err != nil {
		if !os.IsNotExist(err) {
			db.log.Warn().Err(err).Msg("failed to read fork cache")
		}
		return
	}
	var file cacheFile
	if err := json.Unmarshal(data, &file); err != nil {
		db.log.Warn().Err(err).Msg("ignoring corrupt fork cache")
		return
	}
	if file.Accounts != nil {
		db.accounts = file.Accounts
	}
	if file.Storage != nil {
		db.storage = file.Storage
	}
	db.log.Debug().Int("accounts", len(db.accounts)).Msg("loaded fork cache")
}

// DefaultCachePath returns the conventional cache file location for a fork of
// the given chain pinned at the given block.
func DefaultCachePath(chainID, blockNumber uint64) string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, "anvilgo", fmt.Sprintf("fork-%d-%d.json", chainID, blockNumber))
}
