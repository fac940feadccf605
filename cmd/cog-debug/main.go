// Command cog-debug is the daemon and client binary for the unified
// debugging service.
//
// Invoked with -daemon it runs the long-lived daemon: Session Manager,
// Tool Dispatcher, Event Bus sink, and Daemon Transport listening on a
// local socket. Invoked without -daemon it is a thin client: it
// autostarts a daemon if none is listening, sends one call_tool
// request built from -tool/-args, prints the response, and exits.
//
// # Configuration
//
// Environment variables:
//
//	COG_DEBUG_SOCKET            - client transport socket path
//	COG_DEBUG_DASHBOARD_SOCKET  - dashboard observer socket path
//	COG_DEBUG_PID_FILE          - daemon PID file path
//	COG_DEBUG_ADAPTER_TIMEOUT   - adapter request timeout (default 10s)
//	COG_DEBUG_ORPHAN_INTERVAL   - orphan watchdog sweep interval (default 2s)
//	COG_DEBUG_AUTOSTART_TIMEOUT - client autostart socket poll timeout (default 2s)
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	stdlog "log"
	"os"

	"goa.design/clue/log"

	"github.com/cog-debug/cog-debug/internal/config"
	"github.com/cog-debug/cog-debug/internal/daemon"
	"github.com/cog-debug/cog-debug/internal/dispatch"
	"github.com/cog-debug/cog-debug/internal/eventbus"
	"github.com/cog-debug/cog-debug/internal/session"
	"github.com/cog-debug/cog-debug/internal/telemetry"
)

func main() {
	if err := run(); err != nil {
		stdlog.Fatal(err)
	}
}

func run() error {
	daemonMode := flag.Bool("daemon", false, "run as the long-lived daemon")
	tool := flag.String("tool", "", "tool name to invoke (client mode)")
	args := flag.String("args", "{}", "JSON-encoded tool arguments (client mode)")
	flag.Parse()

	cfg := config.Load()

	if *daemonMode {
		return runDaemon(cfg)
	}
	return runClient(cfg, *tool, *args)
}

func runDaemon(cfg config.Config) error {
	ctx := log.Context(context.Background())
	logger := telemetry.NewClueLogger()
	metrics := telemetry.NewClueMetrics()
	tracer := telemetry.NewClueTracer()

	if err := daemon.WritePIDFile(cfg.PIDFile); err != nil {
		logger.Warn(ctx, "daemon: write pid file failed", "path", cfg.PIDFile, "error", err.Error())
	}
	defer daemon.RemovePIDFile(cfg.PIDFile)

	manager := session.NewManager(logger, metrics, cfg.OrphanWatchdogInterval)
	defer manager.Shutdown()

	sink := eventbus.New(cfg.DashboardSocketPath, logger)
	defer sink.Close()

	dispatcher, err := dispatch.New(manager,
		dispatch.WithLogger(logger),
		dispatch.WithMetrics(metrics),
		dispatch.WithTracer(tracer),
		dispatch.WithEventSink(sink),
		dispatch.WithAdapterTimeout(cfg.AdapterRequestTimeout),
	)
	if err != nil {
		return fmt.Errorf("build dispatcher: %w", err)
	}

	srv := &daemon.Server{
		SocketPath: cfg.SocketPath,
		Dispatcher: dispatcher,
		Logger:     logger,
	}
	log.Printf(ctx, "cog-debug daemon listening on %s", cfg.SocketPath)
	return srv.Run(ctx)
}

func runClient(cfg config.Config, tool, rawArgs string) error {
	if tool == "" {
		return fmt.Errorf("usage: cog-debug -tool <name> [-args '{...}']")
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
		return fmt.Errorf("parse -args: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.AutostartPollTimeout)
	defer cancel()

	client, err := daemon.DialAutostart(ctx, cfg.SocketPath, []string{"-daemon"}, cfg.AutostartPollTimeout)
	if err != nil {
		return fmt.Errorf("connect to daemon: %w", err)
	}
	defer client.Close()

	result, err := client.Call(tool, args)
	if err != nil {
		return fmt.Errorf("call %s: %w", tool, err)
	}

	enc := json.NewEncoder(os.Stdout)
	return enc.Encode(result)
}
