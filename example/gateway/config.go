package main

import (
	"errors"
	"flag"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the gateway configuration
type Config struct {
	// BindAddress is the address the REST API listens on (e.g. "0.0.0.0:8080")
	BindAddress string
	// SerialPort is the path to the modem's AT port (e.g. "/dev/ttyUSB2")
	SerialPort string
	// BaudRate is the baud rate for serial communication with the modem
	BaudRate int
	// LogLevel sets the logging level ("debug", "info", "warn", "error")
	LogLevel string
	// APN, Username and Password configure the PDP context. An empty APN
	// leaves packet data inactive.
	APN      string
	Username string
	Password string
	// AllowedOrigins lists the CORS origins allowed to call the API
	AllowedOrigins []string
	// MQTTBroker is the broker inbound SMS are published to. Empty disables MQTT.
	MQTTBroker   string
	MQTTClientID string
	MQTTTopic    string
	MQTTUsername string
	MQTTPassword string
	// InboxInterval is how often the SIM storage is checked for new messages
	InboxInterval time.Duration
}

// ConfigOption is a function that modifies a Config
type ConfigOption func(*Config) error

// LoadConfig creates a new config by applying the given options in order
// and validates the result
func LoadConfig(opts ...ConfigOption) (*Config, error) {
	config := &Config{}

	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, err
		}
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// WithDefaults applies default configuration values
func WithDefaults() ConfigOption {
	return func(c *Config) error {
		c.BindAddress = "0.0.0.0:8080"
		c.SerialPort = "/dev/ttyUSB2"
		c.BaudRate = 115200
		c.LogLevel = "info"
		c.AllowedOrigins = []string{"*"}
		c.MQTTClientID = "wiolte-gw"
		c.MQTTTopic = "sms/inbound"
		c.InboxInterval = 30 * time.Second
		return nil
	}
}

// WithEnv loads configuration from environment variables
func WithEnv() ConfigOption {
	return func(c *Config) error {
		if addr := os.Getenv("BIND_ADDRESS"); addr != "" {
			c.BindAddress = addr
		}

		if serial := os.Getenv("SERIAL_PORT"); serial != "" {
			c.SerialPort = serial
		}

		if baud := os.Getenv("BAUD_RATE"); baud != "" {
			b, err := strconv.Atoi(baud)
			if err != nil {
				return errors.New("BAUD_RATE must be a number")
			}
			c.BaudRate = b
		}

		if level := os.Getenv("LOG_LEVEL"); level != "" {
			c.LogLevel = level
		}

		if apn := os.Getenv("APN"); apn != "" {
			c.APN = apn
		}
		if user := os.Getenv("APN_USERNAME"); user != "" {
			c.Username = user
		}
		if pass := os.Getenv("APN_PASSWORD"); pass != "" {
			c.Password = pass
		}

		if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
			c.AllowedOrigins = splitList(origins)
		}

		if broker := os.Getenv("MQTT_BROKER"); broker != "" {
			c.MQTTBroker = broker
		}
		if id := os.Getenv("MQTT_CLIENT_ID"); id != "" {
			c.MQTTClientID = id
		}
		if topic := os.Getenv("MQTT_TOPIC"); topic != "" {
			c.MQTTTopic = topic
		}
		if user := os.Getenv("MQTT_USERNAME"); user != "" {
			c.MQTTUsername = user
		}
		if pass := os.Getenv("MQTT_PASSWORD"); pass != "" {
			c.MQTTPassword = pass
		}

		if interval := os.Getenv("INBOX_INTERVAL"); interval != "" {
			d, err := time.ParseDuration(interval)
			if err != nil {
				return errors.New("INBOX_INTERVAL must be a duration")
			}
			c.InboxInterval = d
		}

		return nil
	}
}

// WithFlags loads configuration from command-line flags that were set
func WithFlags(fSet *flag.FlagSet) ConfigOption {
	return func(c *Config) error {
		var err error
		fSet.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "bind-address":
				c.BindAddress = f.Value.String()
			case "serial-port":
				c.SerialPort = f.Value.String()
			case "baud-rate":
				if b, perr := strconv.Atoi(f.Value.String()); perr == nil {
					c.BaudRate = b
				} else {
					err = errors.New("baud-rate must be a number")
				}
			case "log-level":
				c.LogLevel = f.Value.String()
			case "apn":
				c.APN = f.Value.String()
			case "allowed-origins":
				c.AllowedOrigins = splitList(f.Value.String())
			case "mqtt-broker":
				c.MQTTBroker = f.Value.String()
			case "mqtt-topic":
				c.MQTTTopic = f.Value.String()
			case "inbox-interval":
				if d, perr := time.ParseDuration(f.Value.String()); perr == nil {
					c.InboxInterval = d
				} else {
					err = errors.New("inbox-interval must be a duration")
				}
			}
		})
		return err
	}
}

func (c *Config) validate() error {
	if c.SerialPort == "" {
		return errors.New("serial port is required")
	}
	if c.BaudRate <= 0 {
		return errors.New("baud rate must be positive")
	}
	if c.BindAddress == "" {
		return errors.New("bind address is required")
	}
	if c.InboxInterval < time.Second {
		return errors.New("inbox interval must be at least 1s")
	}
	if c.MQTTBroker != "" && c.MQTTTopic == "" {
		return errors.New("mqtt topic is required when a broker is set")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
