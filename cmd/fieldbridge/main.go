// Package main implements the entry point for the FieldBridge gateway.
// FieldBridge bridges BACnet/IP field devices to an MQTT message bus:
// it polls configured points, publishes readings to the enabled sinks,
// and executes validated write commands received from the bus.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/c360/fieldbridge/config"
	"github.com/c360/fieldbridge/metric"
	"github.com/c360/fieldbridge/service"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "fieldbridge"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("Gateway failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run() error {
	cliCfg, shouldExit, err := initializeCLI()
	if shouldExit || err != nil {
		return err
	}

	cfg, err := config.Load(cliCfg.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if cliCfg.Validate {
		slog.Info("Configuration is valid")
		return nil
	}

	registry := metric.NewMetricsRegistry()

	gateway, err := service.NewGateway(service.GatewayDeps{
		Config:   cfg,
		Logger:   slog.Default(),
		Registry: registry,
		Version:  Version,
	})
	if err != nil {
		return fmt.Errorf("create gateway: %w", err)
	}

	if err := gateway.Initialize(); err != nil {
		return fmt.Errorf("initialize gateway: %w", err)
	}

	return runWithSignalHandling(gateway, cliCfg.ShutdownTimeout)
}

// initializeCLI parses flags and sets up logging
func initializeCLI() (*CLIConfig, bool, error) {
	cliCfg := parseFlags()
	if err := validateFlags(cliCfg); err != nil {
		return nil, false, fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil, true, nil
	}

	if cliCfg.ShowHelp {
		printDetailedHelp()
		return nil, true, nil
	}

	logger := setupLogger(cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	slog.Info("Starting FieldBridge (BACnet/IP to message bus gateway)",
		"version", Version,
		"build_time", BuildTime,
		"config_path", cliCfg.ConfigPath)

	return cliCfg, false, nil
}

// runWithSignalHandling starts the gateway and blocks until a shutdown
// signal arrives.
func runWithSignalHandling(gateway *service.Gateway, shutdownTimeout time.Duration) error {
	signalCtx, signalCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer signalCancel()

	if err := gateway.Start(signalCtx); err != nil {
		return fmt.Errorf("start gateway: %w", err)
	}
	slog.Info("FieldBridge started", "bus_state", gateway.Bus().State().String())

	<-signalCtx.Done()
	slog.Info("Received shutdown signal")

	if err := gateway.Stop(shutdownTimeout); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	slog.Info("FieldBridge shutdown complete")
	return nil
}
