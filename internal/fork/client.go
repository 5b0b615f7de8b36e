package fork

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/holiman/uint256"
	"github.com/rs/zerolog"
)

// defaultRetryBackoff is used when no --fork-retry-backoff was supplied.
const defaultRetryBackoff = time.Second

// Client reads remote chain state for fork mode. Every read is pinned to the
// fork block, and results are cached in the Database so a slot is fetched at
// most once per process (and, with caching enabled, at most once across runs).
type Client struct {
	log          zerolog.Logger
	eth          *ethclient.Client
	db           *Database
	url          string
	blockNumber  uint64
	retryBackoff time.Duration
}

// Options configures Dial.
type Options struct {
	// URL is the remote endpoint.
	URL string

	// BlockNumber pins the fork block; nil pins the remote head at startup.
	BlockNumber *uint64

	// RetryBackoff is the initial backoff for retrying a failed remote call
	// once; nil selects the default.
	RetryBackoff *time.Duration

	// Caching enables the on-disk cache.
	Caching bool

	// ChainID names the local chain in the cache file location.
	ChainID uint64
}

// Dial connects to the fork endpoint, pins the fork block and sets up the
// backing cache. The cache file location is derived from the chain id and the
// pinned block, so re-forking the same block reuses a previous run's cache.
func Dial(ctx context.Context, log zerolog.Logger, opts Options) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, opts.URL)
	if err != nil {
		return nil, fmt.Errorf("dial fork endpoint %q: %w", opts.URL, err)
	}
	eth := ethclient.NewClient(rpcClient)

	c := &Client{
		log:          log.With().Str("component", "fork-client").Logger(),
		eth:          eth,
		url:          opts.URL,
		retryBackoff: defaultRetryBackoff,
	}
	if opts.RetryBackoff != nil {
		c.retryBackoff = *opts.RetryBackoff
	}

	if opts.BlockNumber != nil {
		c.blockNumber = *opts.BlockNumber
	} else {
		head, err := eth.BlockNumber(ctx)
		if err != nil {
			eth.Close()
			return nil, fmt.Errorf("fetch remote head: %w", err)
		}
		c.blockNumber = head
	}

	c.db = NewDatabase(log, DefaultCachePath(opts.ChainID, c.blockNumber), opts.Caching)

	c.log.Info().Str("url", opts.URL).Uint64("block", c.blockNumber).Msg("forking remote state")
	return c, nil
}

// Database returns the read-guarded cache backing this client. The shutdown
// path flushes it through this accessor.
func (c *Client) Database() *Database { return c.db }

// BlockNumber returns the pinned fork block.
func (c *Client) BlockNumber() uint64 { return c.blockNumber }

// URL returns the fork endpoint.
func (c *Client) URL() string { return c.url }

// Account returns the remote account state at the fork block, consulting the
// cache first.
func (c *Client) Account(ctx context.Context, addr common.Address) (AccountSnapshot, error) {
	if snap, ok := c.db.Account(addr); ok {
		return snap, nil
	}

	block := new(big.Int).SetUint64(c.blockNumber)
	var snap AccountSnapshot
	err := c.withRetry(ctx, func() error {
		balance, err := c.eth.BalanceAt(ctx, addr, block)
		if err != nil {
			return fmt.Errorf("balance of %s: %w", addr, err)
		}
		nonce, err := c.eth.NonceAt(ctx, addr, block)
		if err != nil {
			return fmt.Errorf("nonce of %s: %w", addr, err)
		}
		code, err := c.eth.CodeAt(ctx, addr, block)
		if err != nil {
			return fmt.Errorf("code of %s: %w", addr, err)
		}
		bal, _ := uint256.FromBig(balance)
		snap = AccountSnapshot{Nonce: nonce, Balance: bal, Code: code}
		return nil
	})
	if err != nil {
		return AccountSnapshot{}, err
	}

	c.db.StoreAccount(addr, snap)
	return snap, nil
}

// StorageAt returns the remote value of a storage slot at the fork block,
// consulting the cache first.
func (c *Client) StorageAt(ctx context.Context, addr common.Address, slot common.Hash) (common.Hash, error) {
	if value, ok := c.db.StorageAt(addr, slot); ok {
		return value, nil
	}

	var value common.Hash
	err := c.withRetry(ctx, func() error {
		raw, err := c.eth.StorageAt(ctx, addr, slot, new(big.Int).SetUint64(c.blockNumber))
		if err != nil {
			return fmt.Errorf("storage %s[%s]: %w", addr, slot, err)
		}
		value = common.BytesToHash(raw)
		return nil
	})
	if err != nil {
		return common.Hash{}, err
	}

	c.db.StoreStorage(addr, slot, value)
	return value, nil
}

// Close releases the underlying connection. It does not flush the cache;
// that is the shutdown coordinator's single responsibility.
func (c *Client) Close() {
	c.eth.Close()
}

// withRetry runs fn and retries it once after the configured backoff.
func (c *Client) withRetry(ctx context.Context, fn func() error) error {
	err := fn()
	if err == nil {
		return nil
	}
	c.log.Warn().Err(err).Dur("backoff", c.retryBackoff).Msg("remote call failed, retrying")

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.retryBackoff):
	}
	return fn()
}
