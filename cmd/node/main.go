// Package main runs a worker node.
//
// The node waits for the master to accept connections, registers itself,
// then reports a simulated load every few seconds and a heartbeat every ten,
// while serving its status over HTTP.
//
// Configuration is layered: defaults, an optional YAML file (--config),
// environment variables, then flags.
//
// Environment:
//   - NODE_ID: node identifier (default: random UUID)
//   - NODE_PORT: HTTP port, also sent at registration (default: 9000)
//   - NODE_ADVERTISE_ADDR: address sent at registration (default: "0.0.0.0")
//   - MASTER_ADDR: master host (default: "master")
//   - MASTER_PORT: master socket port (default: 8081)
//   - MQTT_BROKER: optional broker URL for the load mirror
//
// Example usage:
//
//	MASTER_ADDR=localhost ./node --port 9001
//	curl localhost:9001/api/health
package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dreamware/workernode/internal/config"
	"github.com/dreamware/workernode/internal/node"
)

// logFatal is a variable to allow mocking log.Fatal in tests.
var logFatal = log.Fatalf

type options struct {
	configPath string
	id         string
	masterAddr string
	port       int
	masterPort int
}

func main() {
	if err := newRootCmd(os.Getenv).Execute(); err != nil {
		logFatal("node: %v", err)
	}
}

func newRootCmd(getenv func(string) string) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:           "node",
		Short:         "Run a worker node that reports load to the master",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, opts, getenv)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return node.New(cfg).Run(ctx)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.configPath, "config", "", "YAML config file")
	f.StringVar(&opts.id, "id", "", "node identifier (default: random)")
	f.IntVar(&opts.port, "port", config.DefaultPort, "HTTP port")
	f.StringVar(&opts.masterAddr, "master-addr", config.DefaultMasterAddress, "master host")
	f.IntVar(&opts.masterPort, "master-port", config.DefaultMasterPort, "master socket port")

	return cmd
}

// loadConfig merges file, environment and explicitly set flags, then
// validates and normalizes the result.
func loadConfig(cmd *cobra.Command, opts options, getenv func(string) string) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if err := config.ApplyEnv(cfg, getenv); err != nil {
		return nil, err
	}

	f := cmd.Flags()
	if f.Changed("id") {
		cfg.Node.ID = opts.id
	}
	if f.Changed("port") {
		cfg.Node.Port = opts.port
	}
	if f.Changed("master-addr") {
		cfg.Master.Address = opts.masterAddr
	}
	if f.Changed("master-port") {
		cfg.Master.Port = opts.masterPort
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	config.Normalize(cfg)
	return cfg, nil
}
