package fork_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/forgekit/anvilgo/internal/fork"
	"github.com/forgekit/anvilgo/internal/testutils"
)

var (
	testAddr = common.HexToAddress("0x000000000000000000000000000000000000dEaD")
	testSlot = common.HexToHash("0x01")
)

// TestStoreAndLookup verifies cached account and storage reads.
func TestStoreAndLookup(t *testing.T) {
	db := fork.NewDatabase(testutils.Logger(t), "", false)

	_, ok := db.Account(testAddr)
	require.False(t, ok, "empty cache should miss")

	snap := fork.AccountSnapshot{Nonce: 7, Balance: uint256.NewInt(1e18)}
	db.StoreAccount(testAddr, snap)
	got, ok := db.Account(testAddr)
	require.True(t, ok)
	require.Equal(t, snap, got)

	_, ok = db.StorageAt(testAddr, testSlot)
	require.False(t, ok)
	db.StoreStorage(testAddr, testSlot, common.HexToHash("0x02"))
	value, ok := db.StorageAt(testAddr, testSlot)
	require.True(t, ok)
	require.Equal(t, common.HexToHash("0x02"), value)
}

// TestFlushAndReload verifies a flushed cache seeds the next run.
func TestFlushAndReload(t *testing.T) {
	path := filepath.Join(testutils.NewTempDir(t).Path(), "fork-cache.json")

	db := fork.NewDatabase(testutils.Logger(t), path, true)
	db.StoreAccount(testAddr, fork.AccountSnapshot{Nonce: 3, Balance: uint256.NewInt(42)})
	db.StoreStorage(testAddr, testSlot, common.HexToHash("0x0badcafe"))
	db.FlushCache()

	_, err := os.Stat(path)
	require.NoError(t, err, "flush should create the cache file")

	reloaded := fork.NewDatabase(testutils.Logger(t), path, true)
	snap, ok := reloaded.Account(testAddr)
	require.True(t, ok, "reloaded cache should contain the flushed account")
	require.EqualValues(t, 3, snap.Nonce)
	require.Equal(t, uint256.NewInt(42), snap.Balance)

	value, ok := reloaded.StorageAt(testAddr, testSlot)
	require.True(t, ok)
	require.Equal(t, common.HexToHash("0x0badcafe"), value)
}

// TestCachingDisabledSkipsFlush verifies FlushCache is a no-op when caching
// is disabled.
func TestCachingDisabledSkipsFlush(t *testing.T) {
	path := filepath.Join(testutils.NewTempDir(t).Path(), "fork-cache.json")

	db := fork.NewDatabase(testutils.Logger(t), path, false)
	db.StoreAccount(testAddr, fork.AccountSnapshot{Nonce: 1, Balance: uint256.NewInt(1)})
	db.FlushCache()

	_, err := os.Stat(path)
	require.True(t, os.IsNotExist(err), "disabled caching must not write a cache file")
}

// TestFlushDuringConcurrentWrites verifies the flush path only needs the read
// lock and does not race concurrent insertions.
func TestFlushDuringConcurrentWrites(t *testing.T) {
	path := filepath.Join(testutils.NewTempDir(t).Path(), "fork-cache.json")
	db := fork.NewDatabase(testutils.Logger(t), path, true)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			db.StoreStorage(testAddr, common.BigToHash(uint256.NewInt(uint64(i)).ToBig()), testSlot)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 10; i++ {
			db.FlushCache()
		}
	}()
	wg.Wait()

	_, err := os.Stat(path)
	require.NoError(t, err)
}

// TestCorruptCacheIgnored verifies a corrupt cache file is ignored rather
// than failing startup.
func TestCorruptCacheIgnored(t *testing.T) {
	path := filepath.Join(testutils.NewTempDir(t).Path(), "fork-cache.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	db := fork.NewDatabase(testutils.Logger(t), path, true)
	_, ok := db.Account(testAddr)
	require.False(t, ok, "corrupt cache should yield an empty database")
}
