// Command gateway runs a WioLTE modem as a network service: a REST API
// for SMS, signal, identity and position, Prometheus metrics, and
// forwarding of received SMS to an MQTT broker.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LassiHeikkila/WioLTE/module"
	"github.com/LassiHeikkila/WioLTE/output"
)

func main() {
	flag.String("serial-port", "/dev/ttyUSB2", "Serial port to connect to the modem")
	flag.Int("baud-rate", 115200, "Baud rate for serial communication")
	flag.String("bind-address", "0.0.0.0:8080", "Bind address for the HTTP server")
	flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.String("apn", "", "Access point name; empty leaves packet data off")
	flag.String("allowed-origins", "*", "Comma separated CORS origins")
	flag.String("mqtt-broker", "", "MQTT broker for received SMS, e.g. tcp://localhost:1883")
	flag.String("mqtt-topic", "sms/inbound", "MQTT topic for received SMS")
	flag.Duration("inbox-interval", 30*time.Second, "How often to check for received SMS")
	flag.Parse()

	config, err := LoadConfig(WithDefaults(), WithEnv(), WithFlags(flag.CommandLine))
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel(config.LogLevel)}))
	if config.LogLevel == "debug" {
		output.SetWriter(os.Stderr)
	}

	if err := run(config, logger); err != nil {
		logger.Error("Gateway failed", "error", err)
		os.Exit(1)
	}
}

func logLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func run(config *Config, logger *slog.Logger) error {
	m, err := module.Open(module.Settings{
		SerialPort: config.SerialPort,
		BaudRate:   config.BaudRate,
	})
	if err != nil {
		return err
	}
	defer m.Close()

	logger.Info("Bringing up modem", "port", config.SerialPort)
	if err := m.BringUp(30 * time.Second); err != nil {
		return err
	}
	if config.APN != "" {
		logger.Info("Activating PDP context", "apn", config.APN)
		if err := m.Activate(config.APN, config.Username, config.Password, 2*time.Minute); err != nil {
			return err
		}
		defer m.Deactivate()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	metrics := NewMetrics()
	device := NewDevice(m, metrics)

	if config.MQTTBroker != "" {
		pub, err := newMQTTPublisher(config, logger.With("component", "mqtt"))
		if err != nil {
			return err
		}
		defer pub.Close()
		f := &Forwarder{
			Logger:    logger.With("component", "forwarder"),
			Device:    device,
			Publisher: pub,
			Topic:     config.MQTTTopic,
			Interval:  config.InboxInterval,
		}
		go f.Run(ctx)
	}

	server := &Server{
		Logger:         logger.With("component", "server"),
		Device:         device,
		Metrics:        metrics,
		AllowedOrigins: config.AllowedOrigins,
	}
	httpServer := &http.Server{
		Addr:              config.BindAddress,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	logger.Info("Closing HTTP server")
	return httpServer.Shutdown(shutdownCtx)
}
