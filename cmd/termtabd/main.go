package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/grafana/dskit/services"

	"github.com/loxia-systems/termtab/internal/httpapi"
	"github.com/loxia-systems/termtab/internal/linhash"
	"github.com/loxia-systems/termtab/internal/registry"
	"github.com/loxia-systems/termtab/internal/scheduler"
	"github.com/loxia-systems/termtab/internal/termtabrpc"
)

const appName = "termtabd"

func main() {
	configPath := flag.String("config", "", "path to a termtabd YAML config file")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed parsing config: %v\n", err)
		os.Exit(1)
	}

	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	logger = level.NewFilter(logger, parseLevelOption(cfg.LogLevel))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)

	level.Info(logger).Log("msg", "starting "+appName)

	reg := registry.New(logger)
	if err := services.StartAndAwaitRunning(context.Background(), reg); err != nil {
		level.Error(logger).Log("msg", "failed starting registry", "err", err)
		os.Exit(1)
	}

	for _, tc := range cfg.Tables {
		opts := linhash.DefaultOptions()
		opts.Semantics = parseSemantics(tc.Semantics)
		if tc.KeyPos > 0 {
			opts.KeyPos = tc.KeyPos
		}
		opts.Compressed = tc.Compressed
		if _, err := reg.Create(tc.Name, opts); err != nil {
			level.Error(logger).Log("msg", "failed creating configured table", "name", tc.Name, "err", err)
			os.Exit(1)
		}
	}

	pool := scheduler.New(scheduler.DefaultConfig())
	pool.Ticker(30*time.Second, func() error {
		for _, name := range reg.Names() {
			tbl, ok := reg.Lookup(name)
			if !ok {
				continue
			}
			st := tbl.Stats()
			level.Debug(logger).Log("msg", "table stats", "table", name, "size", st.Size, "slots", st.NumSlots, "fix_count", st.FixCount)
		}
		return nil
	})

	rpcSrv, err := termtabrpc.NewServer(cfg.RPCAddr, reg, logger)
	if err != nil {
		level.Error(logger).Log("msg", "failed starting rpc server", "err", err)
		os.Exit(1)
	}
	go func() {
		if err := rpcSrv.Serve(); err != nil {
			level.Error(logger).Log("msg", "rpc server stopped", "err", err)
		}
	}()

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: httpapi.NewRouter(reg)}
	go func() {
		level.Info(logger).Log("msg", "http admin listening", "addr", cfg.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			level.Error(logger).Log("msg", "http server stopped", "err", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	level.Info(logger).Log("msg", "shutting down "+appName)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(shutdownCtx)
	_ = rpcSrv.Close()
	pool.Close()
	_ = services.StopAndAwaitTerminated(context.Background(), reg)
}

func parseLevelOption(s string) level.Option {
	switch s {
	case "debug":
		return level.AllowDebug()
	case "warn":
		return level.AllowWarn()
	case "error":
		return level.AllowError()
	default:
		return level.AllowInfo()
	}
}

func parseSemantics(s string) linhash.Semantics {
	switch s {
	case "set_unique":
		return linhash.SetUniqueFailOnClash
	case "bag":
		return linhash.BagSemantics
	case "dbag":
		return linhash.DBagSemantics
	default:
		return linhash.SetSemantics
	}
}
