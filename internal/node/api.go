package node

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/eth/catalyst"

	"github.com/forgekit/anvilgo/internal/accounts"
	"github.com/forgekit/anvilgo/internal/config"
	"github.com/forgekit/anvilgo/internal/fork"
)

// API exposes the running node's capabilities to the orchestrator: the dev
// accounts, on-demand mining, and, in fork mode, the fork cache the shutdown
// path flushes.
type API struct {
	cfg      config.NodeConfig
	accounts []accounts.Account
	fork     *fork.Client
	beacon   *catalyst.SimulatedBeacon
}

// Config returns the configuration the node was started with.
func (a *API) Config() config.NodeConfig { return a.cfg }

// Accounts returns the derived dev accounts, in derivation order.
func (a *API) Accounts() []accounts.Account { return a.accounts }

// Fork returns the fork client, or nil when the node is not in fork mode.
func (a *API) Fork() *fork.Client { return a.fork }

// ForkMode reports whether the node is backed by remote state.
func (a *API) ForkMode() bool { return a.fork != nil }

// Mine produces one block on demand. Returns the zero hash when the chain
// has no block producer (pre-merge hardforks).
func (a *API) Mine() common.Hash {
	if a.beacon == nil {
		return common.Hash{}
	}
	return a.beacon.Commit()
}
