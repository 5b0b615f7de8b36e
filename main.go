package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/forgekit/anvilgo/internal/config"
	"github.com/forgekit/anvilgo/internal/node"
	"github.com/forgekit/anvilgo/internal/shutdown"
)

func main() {
	app := &cli.App{
		Name:   "anvilgo",
		Usage:  "local Ethereum development node",
		Flags:  config.Flags,
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// run is the startup sequence: validate the arguments, build the immutable
// node configuration, spawn the runtime, write the config artifact, arm the
// shutdown coordinator and block on the running node. The coordinator is
// armed strictly after the runtime exists, so no interrupt is acted upon
// before there is anything to clean up.
func run(c *cli.Context) error {
	args, err := config.FromCLI(c)
	if err != nil {
		return err
	}
	if err := args.Validate(); err != nil {
		return err
	}
	cfg := config.Build(args)

	log := newLogger(cfg.Silent)

	runtime := node.NewRuntime(log)
	api, handle, err := runtime.Spawn(c.Context, cfg)
	if err != nil {
		return err
	}

	if cfg.ConfigOut != "" {
		// Serialize the exact configuration in effect, not a reconstruction.
		if err := cfg.WriteFile(cfg.ConfigOut); err != nil {
			_ = handle.Close()
			return err
		}
	}

	banner(log, cfg, api, handle)

	var flush func()
	if api.ForkMode() {
		flush = api.Fork().Database().FlushCache
	}
	shutdown.NewCoordinator(log, flush).Arm()

	return handle.Await(c.Context)
}

// newLogger builds the process logger. Silent mode disables all output.
func newLogger(silent bool) zerolog.Logger {
	if silent {
		return zerolog.Nop()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger().
		Level(zerolog.InfoLevel)
}

// banner logs the derived accounts and the listening endpoint at startup.
func banner(log zerolog.Logger, cfg config.NodeConfig, api *node.API, handle *node.Handle) {
	for i, acct := range api.Accounts() {
		log.Info().
			Int("index", i).
			Str("address", acct.Address.Hex()).
			Str("balance", cfg.GenesisBalance.Dec()).
			Msg("dev account")
	}
	log.Info().
		Str("mnemonic", cfg.Accounts.Mnemonic).
		Str("derivationPath", cfg.Accounts.DerivationPath).
		Msg("wallet")
	log.Info().Str("endpoint", handle.Endpoint()).Msg("listening")
}
