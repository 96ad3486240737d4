package p2p

import (
	"fmt"
	"time"

	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/multiformats/go-multiaddr"
)

const (
	// DefaultMaxMessageSize is the default maximum size of a gossiped message.
	DefaultMaxMessageSize = 1 << 20 // 1 MiB

	// DefaultKnownMessagesCacheSize is the default number of messages a gossip
	// engine remembers for deduplicating its own publications.
	DefaultKnownMessagesCacheSize = 8192
)

// Config is the configuration of a libp2p gossip node.
type Config struct {
	// ListenAddrs are the multiaddrs the host listens on.
	ListenAddrs []string
	// BootstrapPeers are full multiaddrs (including /p2p/<peer-id>) dialled at startup.
	BootstrapPeers []string
	// MaxMessageSize bounds the size of messages accepted by the gossipsub router.
	MaxMessageSize int
	// KnownMessagesCacheSize is the size of the per-engine known-message cache.
	KnownMessagesCacheSize int
	// DialRetryBase is the initial backoff between bootstrap dial attempts.
	DialRetryBase time.Duration
	// DialMaxRetries is the number of retries per bootstrap peer.
	DialMaxRetries uint64
}

// DefaultConfig returns the configuration of a node listening on an ephemeral
// TCP port on all interfaces, without bootstrap peers.
func DefaultConfig() Config {
	return Config{
		ListenAddrs:            []string{"/ip4/0.0.0.0/tcp/0"},
		MaxMessageSize:         DefaultMaxMessageSize,
		KnownMessagesCacheSize: DefaultKnownMessagesCacheSize,
		DialRetryBase:          500 * time.Millisecond,
		DialMaxRetries:         5,
	}
}

func (c Config) listenAddrs() ([]multiaddr.Multiaddr, error) {
	addrs := make([]multiaddr.Multiaddr, 0, len(c.ListenAddrs))
	for _, s := range c.ListenAddrs {
		addr, err := multiaddr.NewMultiaddr(s)
		if err != nil {
			return nil, fmt.Errorf("invalid listen address %q: %w", s, err)
		}
		addrs = append(addrs, addr)
	}
	return addrs, nil
}

func (c Config) bootstrapPeers() ([]peer.AddrInfo, error) {
	infos := make([]peer.AddrInfo, 0, len(c.BootstrapPeers))
	for _, s := range c.BootstrapPeers {
		addr, err := multiaddr.NewMultiaddr(s)
		if err != nil {
			return nil, fmt.Errorf("invalid bootstrap address %q: %w", s, err)
		}
		info, err := peer.AddrInfoFromP2pAddr(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid bootstrap peer %q: %w", s, err)
		}
		infos = append(infos, *info)
	}
	return infos, nil
}

func (c Config) validate() error {
	if c.MaxMessageSize <= 0 {
		return fmt.Errorf("max message size must be positive, got %d", c.MaxMessageSize)
	}
	if c.KnownMessagesCacheSize <= 0 {
		return fmt.Errorf("known messages cache size must be positive, got %d", c.KnownMessagesCacheSize)
	}
	if c.DialRetryBase <= 0 {
		return fmt.Errorf("dial retry base must be positive, got %s", c.DialRetryBase)
	}
	return nil
}
