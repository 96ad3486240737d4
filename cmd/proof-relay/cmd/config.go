package cmd

import (
	"fmt"
	"math"
	"strings"

	"github.com/docker/go-units"
	logging "github.com/ipfs/go-log/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/onflow/proof-relay/engine/sassafras/bridge"
	"github.com/onflow/proof-relay/model/hash"
	"github.com/onflow/proof-relay/network/p2p"
)

const envPrefix = "PROOF_RELAY"

const (
	flagConfig           = "config"
	flagListenAddrs      = "listen-addrs"
	flagBootstrapPeers   = "bootstrap-peers"
	flagMaxMessageSize   = "max-msg-size"
	flagKnownMessages    = "known-messages-cache-size"
	flagHashing          = "hashing"
	flagTopicName        = "topic-name"
	flagOutboundCapacity = "outbound-capacity"
	flagInboundCapacity  = "inbound-capacity"
	flagRestAddr         = "rest-addr"
	flagRestRateLimit    = "rest-rate-limit"
	flagRestBurst        = "rest-burst"
	flagMetricsPort      = "metrics-port"
	flagProfiler         = "profiler-enabled"
	flagLogLevel         = "loglevel"
	flagP2PLogLevel      = "p2p-loglevel"
)

// Config is the configuration of a proof relay node.
type Config struct {
	ListenAddrs            []string `mapstructure:"listen-addrs"`
	BootstrapPeers         []string `mapstructure:"bootstrap-peers"`
	MaxMessageSize         string   `mapstructure:"max-msg-size"`
	KnownMessagesCacheSize int      `mapstructure:"known-messages-cache-size"`
	Hashing                string   `mapstructure:"hashing"`
	TopicName              string   `mapstructure:"topic-name"`
	OutboundCapacity       int      `mapstructure:"outbound-capacity"`
	InboundCapacity        int      `mapstructure:"inbound-capacity"`
	RestAddr               string   `mapstructure:"rest-addr"`
	RestRateLimit          float64  `mapstructure:"rest-rate-limit"`
	RestBurst              int      `mapstructure:"rest-burst"`
	MetricsPort            uint     `mapstructure:"metrics-port"`
	ProfilerEnabled        bool     `mapstructure:"profiler-enabled"`
	LogLevel               string   `mapstructure:"loglevel"`
	P2PLogLevel            string   `mapstructure:"p2p-loglevel"`
}

// addFlags registers the node flags on fs. Defaults are taken from the
// component configurations.
func addFlags(fs *pflag.FlagSet) {
	p2pDefaults := p2p.DefaultConfig()
	bridgeDefaults := bridge.DefaultConfig()

	fs.String(flagConfig, "", "path to a YAML configuration file")
	fs.StringSlice(flagListenAddrs, []string{"/ip4/0.0.0.0/tcp/30333"}, "multiaddrs the libp2p host listens on")
	fs.StringSlice(flagBootstrapPeers, nil, "multiaddrs (with /p2p/<peer-id>) of the peers to dial at startup")
	fs.String(flagMaxMessageSize, units.BytesSize(float64(p2pDefaults.MaxMessageSize)), "maximum size of a gossiped message, e.g. 512KiB or 1MiB")
	fs.Int(flagKnownMessages, p2pDefaults.KnownMessagesCacheSize, "number of messages remembered to avoid republishing them")
	fs.String(flagHashing, hash.DefaultHasher.Name(), fmt.Sprintf("hashing function of the chain's block header (%s|%s)", hash.NameBlake2b256, hash.NameKeccak256))
	fs.String(flagTopicName, bridgeDefaults.TopicName, "name hashed to derive the proof topic")
	fs.Int(flagOutboundCapacity, bridgeDefaults.OutboundCapacity, "capacity of the outbound proof queue, 0 for unbounded")
	fs.Int(flagInboundCapacity, bridgeDefaults.InboundCapacity, "capacity of the inbound proof queue, 0 for unbounded")
	fs.String(flagRestAddr, "127.0.0.1:8080", "listen address of the proof REST API")
	fs.Float64(flagRestRateLimit, 0, "maximum requests per second served by the REST API, 0 for unlimited")
	fs.Int(flagRestBurst, 10, "maximum burst of requests served by the REST API when rate limited")
	fs.Uint(flagMetricsPort, 8081, "port of the prometheus metrics server, 0 to disable")
	fs.Bool(flagProfiler, false, "serve pprof endpoints on the metrics server")
	fs.String(flagLogLevel, "info", "level of the node logger")
	fs.String(flagP2PLogLevel, "error", "level of the libp2p loggers")
}

// loadConfig resolves the node configuration from, by decreasing priority, the
// flags set on the command line, PROOF_RELAY_* environment variables, the
// configuration file and the flag defaults.
func loadConfig(v *viper.Viper, fs *pflag.FlagSet) (Config, error) {
	var cfg Config

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return cfg, fmt.Errorf("could not bind flags: %w", err)
	}

	if path := v.GetString(flagConfig); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return cfg, fmt.Errorf("could not read config file %s: %w", path, err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("could not decode config: %w", err)
	}
	// list values from the environment are whitespace separated
	cfg.ListenAddrs = v.GetStringSlice(flagListenAddrs)
	cfg.BootstrapPeers = v.GetStringSlice(flagBootstrapPeers)

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if _, err := hash.FromName(c.Hashing); err != nil {
		return fmt.Errorf("invalid %s: %w", flagHashing, err)
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel)); err != nil {
		return fmt.Errorf("invalid %s: %w", flagLogLevel, err)
	}
	if _, err := logging.LevelFromString(c.P2PLogLevel); err != nil {
		return fmt.Errorf("invalid %s: %w", flagP2PLogLevel, err)
	}
	if _, err := c.maxMessageSize(); err != nil {
		return fmt.Errorf("invalid %s: %w", flagMaxMessageSize, err)
	}
	if c.OutboundCapacity < 0 || c.InboundCapacity < 0 {
		return fmt.Errorf("queue capacities must not be negative")
	}
	if c.RestRateLimit < 0 {
		return fmt.Errorf("invalid %s: must not be negative", flagRestRateLimit)
	}
	return nil
}

// maxMessageSize parses the human readable message size, in binary units.
func (c Config) maxMessageSize() (int, error) {
	size, err := units.RAMInBytes(c.MaxMessageSize)
	if err != nil {
		return 0, err
	}
	if size <= 0 || size > math.MaxInt32 {
		return 0, fmt.Errorf("size out of range: %s", c.MaxMessageSize)
	}
	return int(size), nil
}

// P2PConfig returns the configuration of the libp2p node.
func (c Config) P2PConfig() p2p.Config {
	cfg := p2p.DefaultConfig()
	cfg.ListenAddrs = c.ListenAddrs
	cfg.BootstrapPeers = c.BootstrapPeers
	// validated by loadConfig
	cfg.MaxMessageSize, _ = c.maxMessageSize()
	cfg.KnownMessagesCacheSize = c.KnownMessagesCacheSize
	return cfg
}

// BridgeConfig returns the configuration of the proof relay.
func (c Config) BridgeConfig() bridge.Config {
	return bridge.Config{
		OutboundCapacity: c.OutboundCapacity,
		InboundCapacity:  c.InboundCapacity,
		TopicName:        c.TopicName,
	}
}
