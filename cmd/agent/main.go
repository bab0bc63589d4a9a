package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	flag "github.com/spf13/pflag"

	"github.com/benmeehan/aziot-sas-agent/internal/errkind"
	"github.com/benmeehan/aziot-sas-agent/internal/services"
	"github.com/benmeehan/aziot-sas-agent/internal/utils"
	"github.com/benmeehan/aziot-sas-agent/pkg/file"
	"github.com/benmeehan/aziot-sas-agent/pkg/identity"
	"github.com/benmeehan/aziot-sas-agent/pkg/keys"
	"github.com/benmeehan/aziot-sas-agent/pkg/mqtt"
	"github.com/benmeehan/aziot-sas-agent/pkg/sas"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "configs/config.yaml", "Path to the agent configuration file")
	logLevel := flag.String("log-level", "", "Log level, overrides logging.level")
	logFormat := flag.String("log-format", "", "Log format (json or console), overrides logging.format")
	flag.Parse()

	// Initialize file operations handler
	fileClient := file.NewFileService()

	// Load configuration from file
	config, err := utils.LoadConfig(*configPath, fileClient)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		return errkind.ExitCode(err)
	}
	if flag.CommandLine.Changed("log-level") {
		config.Logging.Level = *logLevel
	}
	if flag.CommandLine.Changed("log-format") {
		config.Logging.Format = *logFormat
	}

	logger, err := utils.NewLogger(config.Logging.Level, config.Logging.Format, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		return errkind.ExitCode(err)
	}
	logger = logger.With().Str("run_id", uuid.New().String()).Logger()

	resolver := identity.NewResolver(config.Identity.SocketPath, logger)
	signer := sas.NewSigner(keys.NewKeyService(config.Keys.SocketPath, logger), logger)
	mqttService := mqtt.NewMqttService(fileClient, config.MQTT.TrustStore, config.MQTT.DisconnectTimeout, logger)

	telemetryService := services.NewTelemetryService(resolver, signer, mqttService, services.Timeouts{
		Identity:   config.Identity.Timeout,
		Sign:       config.Keys.Timeout,
		Connect:    config.MQTT.ConnectTimeout,
		Publish:    config.MQTT.PublishTimeout,
		Disconnect: config.MQTT.DisconnectTimeout,
	}, logger)

	// Abort the in-flight step on SIGINT or SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := telemetryService.Run(ctx); err != nil {
		logger.Error().
			Err(err).
			Str("kind", errkind.KindOf(err).String()).
			Str("state", string(telemetryService.State())).
			Msg("Telemetry flow failed")
		return errkind.ExitCode(err)
	}
	return 0
}
