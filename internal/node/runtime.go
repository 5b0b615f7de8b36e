// Package node runs the in-process dev chain. It consumes the immutable
// NodeConfig produced at startup and exposes a Handle to await and an API
// carrying the capabilities the orchestrator needs (fork cache, dev
// accounts, on-demand mining).
package node

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/eth"
	"github.com/ethereum/go-ethereum/eth/catalyst"
	"github.com/ethereum/go-ethereum/eth/downloader"
	"github.com/ethereum/go-ethereum/eth/ethconfig"
	gethnode "github.com/ethereum/go-ethereum/node"
	"github.com/ethereum/go-ethereum/p2p"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/rs/zerolog"

	"github.com/forgekit/anvilgo/internal/accounts"
	"github.com/forgekit/anvilgo/internal/config"
	"github.com/forgekit/anvilgo/internal/fork"
)

// manualMiningPeriod keeps the simulated beacon idle when automatic mining is
// disabled; blocks are then produced only through API.Mine.
const manualMiningPeriod uint64 = 365 * 24 * 3600

// rpcReadyTimeout bounds the startup wait for the HTTP-RPC endpoint.
const rpcReadyTimeout = 5 * time.Second

// Runtime spawns dev chain instances from node configurations.
type Runtime struct {
	log zerolog.Logger
}

// NewRuntime constructs a Runtime.
func NewRuntime(log zerolog.Logger) *Runtime {
	return &Runtime{log: log.With().Str("component", "node-runtime").Logger()}
}

// Spawn derives the dev accounts, builds the genesis block funding them,
// starts the in-process node with HTTP-RPC enabled and waits until the
// endpoint is reachable. In fork mode it also dials the remote endpoint and
// wires the fork cache into the returned API.
func (r *Runtime) Spawn(ctx context.Context, cfg config.NodeConfig) (*API, *Handle, error) {
	gen, err := accounts.NewGenerator(cfg.Accounts)
	if err != nil {
		return nil, nil, fmt.Errorf("account generator: %w", err)
	}
	accts, err := gen.Accounts()
	if err != nil {
		return nil, nil, fmt.Errorf("derive accounts: %w", err)
	}

	stack, err := gethnode.New(&gethnode.Config{
		Name:              "anvilgo",
		DataDir:           "", // ephemeral, chain state lives in memory
		HTTPHost:          cfg.Host,
		HTTPPort:          int(cfg.Port),
		HTTPModules:       []string{"eth", "net", "web3"},
		HTTPCors:          []string{"*"},
		HTTPVirtualHosts:  []string{"*"},
		UseLightweightKDF: true,
		P2P: p2p.Config{
			NoDiscovery: true,
			MaxPeers:    0,
		},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("new node: %w", err)
	}

	ethCfg := ethconfig.Defaults
	ethCfg.NetworkId = cfg.ChainID
	ethCfg.Genesis = buildGenesis(cfg, accts)
	ethCfg.SyncMode = downloader.FullSync
	ethCfg.Miner.GasCeil = cfg.GasLimit
	if cfg.GasPrice != nil {
		ethCfg.Miner.GasPrice = new(big.Int).SetUint64(*cfg.GasPrice)
	}

	backend, err := eth.New(stack, &ethCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("new eth service: %w", err)
	}

	var beacon *catalyst.SimulatedBeacon
	if cfg.Hardfork.PostMerge() {
		beacon, err = catalyst.NewSimulatedBeacon(miningPeriod(cfg), common.Address{}, backend)
		if err != nil {
			return nil, nil, fmt.Errorf("new simulated beacon: %w", err)
		}
		catalyst.RegisterSimulatedBeaconAPIs(stack, beacon)
		stack.RegisterLifecycle(beacon)
	} else {
		r.log.Warn().Str("hardfork", string(cfg.Hardfork)).
			Msg("pre-merge hardfork selected, automatic block production disabled")
	}

	if err := stack.Start(); err != nil {
		return nil, nil, fmt.Errorf("start node: %w", err)
	}

	if err := waitRPCReady(ctx, cfg); err != nil {
		_ = stack.Close()
		return nil, nil, err
	}

	var forkClient *fork.Client
	if cfg.ForkURL != "" {
		forkClient, err = fork.Dial(ctx, r.log, fork.Options{
			URL:          cfg.ForkURL,
			BlockNumber:  cfg.ForkBlockNumber,
			RetryBackoff: cfg.ForkRetryBackoff,
			Caching:      !cfg.NoStorageCaching,
			ChainID:      cfg.ChainID,
		})
		if err != nil {
			_ = stack.Close()
			return nil, nil, fmt.Errorf("fork setup: %w", err)
		}
	}

	r.log.Info().
		Str("endpoint", stack.HTTPEndpoint()).
		Uint64("chainId", cfg.ChainID).
		Str("order", string(cfg.Order)).
		Msg("node started")

	api := &API{cfg: cfg, accounts: accts, fork: forkClient, beacon: beacon}
	return api, newHandle(r.log, stack, forkClient), nil
}

// buildGenesis funds every derived account with the configured genesis
// balance under the selected hardfork's rule set.
func buildGenesis(cfg config.NodeConfig, accts []accounts.Account) *core.Genesis {
	alloc := make(types.GenesisAlloc, len(accts))
	for _, acct := range accts {
		alloc[acct.Address] = types.Account{Balance: cfg.GenesisBalance.ToBig()}
	}

	genesis := &core.Genesis{
		Config:     cfg.Hardfork.ChainConfig(cfg.ChainID),
		GasLimit:   cfg.GasLimit,
		Difficulty: big.NewInt(0),
		Alloc:      alloc,
	}
	if cfg.BaseFee != nil {
		genesis.BaseFee = new(big.Int).SetUint64(*cfg.BaseFee)
	}
	return genesis
}

// miningPeriod maps the mining mode onto the simulated beacon's period:
// interval mining uses the configured block time, on-demand mining parks the
// beacon, and the default is instant mining (a block per arriving
// transaction, period zero).
func miningPeriod(cfg config.NodeConfig) uint64 {
	switch {
	case cfg.NoMining:
		return manualMiningPeriod
	case cfg.BlockTime != nil:
		return uint64(cfg.BlockTime.Seconds())
	default:
		return 0
	}
}

// waitRPCReady polls the HTTP endpoint until it accepts connections.
func waitRPCReady(ctx context.Context, cfg config.NodeConfig) error {
	url := fmt.Sprintf("http://%s:%d", cfg.Host, cfg.Port)
	deadline := time.Now().Add(rpcReadyTimeout)
	for {
		if time.Now().After(deadline) {
			return fmt.Errorf("rpc %q never came up", url)
		}
		client, err := rpc.DialContext(ctx, url)
		if err == nil {
			client.Close()
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
}
