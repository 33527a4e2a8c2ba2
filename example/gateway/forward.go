package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/LassiHeikkila/WioLTE/sms"
)

// Publisher delivers a payload to a topic
type Publisher interface {
	Publish(topic string, payload []byte) error
}

type mqttPublisher struct {
	client  mqtt.Client
	timeout time.Duration
}

func newMQTTPublisher(cfg *Config, logger *slog.Logger) (*mqttPublisher, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.MQTTBroker)
	opts.SetClientID(cfg.MQTTClientID)
	if cfg.MQTTUsername != "" {
		opts.SetUsername(cfg.MQTTUsername)
		opts.SetPassword(cfg.MQTTPassword)
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("MQTT connection lost", "error", err)
	})
	opts.SetOnConnectHandler(func(mqtt.Client) {
		logger.Info("MQTT connected", "broker", cfg.MQTTBroker)
	})

	client := mqtt.NewClient(opts)
	t := client.Connect()
	if !t.WaitTimeout(30 * time.Second) {
		return nil, fmt.Errorf("connect to %s: timed out", cfg.MQTTBroker)
	}
	if err := t.Error(); err != nil {
		return nil, fmt.Errorf("connect to %s: %w", cfg.MQTTBroker, err)
	}
	return &mqttPublisher{client: client, timeout: 10 * time.Second}, nil
}

func (p *mqttPublisher) Publish(topic string, payload []byte) error {
	t := p.client.Publish(topic, 1, false, payload)
	if !t.WaitTimeout(p.timeout) {
		return fmt.Errorf("publish to %s: timed out", topic)
	}
	return t.Error()
}

func (p *mqttPublisher) Close() {
	p.client.Disconnect(500)
}

// Forwarder moves received SMS from the SIM storage to a Publisher.
// A message is deleted only after it has been published.
type Forwarder struct {
	Logger    *slog.Logger
	Device    *Device
	Publisher Publisher
	Topic     string
	Interval  time.Duration
}

// Run drains the storage every Interval until ctx is done.
func (f *Forwarder) Run(ctx context.Context) {
	ticker := time.NewTicker(f.Interval)
	defer ticker.Stop()
	for {
		if n, err := f.Drain(); err != nil {
			f.Logger.Error("Forwarding stopped", "forwarded", n, "error", err)
		} else if n > 0 {
			f.Logger.Info("Forwarded messages", "count", n)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Drain forwards stored messages until the storage is empty and returns
// how many were forwarded.
func (f *Forwarder) Drain() (int, error) {
	n := 0
	for {
		msg, err := f.Device.NextMessage()
		if err != nil {
			return n, err
		}
		if msg.Index == sms.NoMessage {
			return n, nil
		}

		payload, err := json.Marshal(newInboundSMS(msg))
		if err != nil {
			return n, err
		}
		if err := f.Publisher.Publish(f.Topic, payload); err != nil {
			f.Device.metrics.forwardFailures.Inc()
			return n, fmt.Errorf("publish message %d: %w", msg.Index, err)
		}
		f.Device.metrics.inboundTotal.Inc()
		if err := f.Device.DeleteMessage(); err != nil {
			return n, err
		}
		n++
	}
}
