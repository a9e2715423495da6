// Command arbengine runs one delta-neutral arbitrage bot process. Flags
// name the config file and, when more than one bot is defined in it,
// which entry to run.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"arbengine/internal/config"
	"arbengine/internal/supervisor"
	"arbengine/pkg/utils"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code: 0 on clean shutdown via signal,
// non-zero only on unrecoverable init failure (config missing,
// credentials absent, initial connects fail past retry).
func run() int {
	configPath := flag.String("config", "config.yaml", "path to the bots YAML config")
	botID := flag.String("bot", "", "bot id to run (required only if the config defines more than one)")
	metricsAddr := flag.String("metrics-addr", ":9090", "address to serve Prometheus /metrics on, empty to disable")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "arbengine: fatal:", err)
		return 1
	}

	log := utils.InitGlobalLogger(utils.LogConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	defer log.Sync()

	bot, err := cfg.BotByID(*botID)
	if err != nil {
		log.Error("fatal config error", utils.Err(err))
		return 1
	}

	credsA, err := config.LoadVenueCredentials(envPrefix(bot.DexA))
	if err != nil {
		log.Error("fatal: missing venue A credentials", utils.Err(err))
		return 1
	}
	credsB, err := config.LoadVenueCredentials(envPrefix(bot.DexB))
	if err != nil {
		log.Error("fatal: missing venue B credentials", utils.Err(err))
		return 1
	}

	b, err := supervisor.Build(bot, supervisor.BuildOptions{
		CredsA:      credsA,
		CredsB:      credsB,
		Log:         log,
		MetricsAddr: *metricsAddr,
	})
	if err != nil {
		log.Error("fatal: bot build failed", utils.Err(err))
		return 1
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := b.Run(ctx); err != nil {
		log.Error("fatal: bot run failed", utils.Err(err))
		return 1
	}

	log.Info("clean shutdown")
	return 0
}

// envPrefix upper-cases a venue name into its credential env-var
// namespace, e.g. "vest" -> "VEST", matching config.LoadVenueCredentials'
// VENUE_PREFIX_ADDRESS convention.
func envPrefix(venue string) string {
	out := make([]byte, len(venue))
	for i := 0; i < len(venue); i++ {
		c := venue[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}
