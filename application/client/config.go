package client

import (
	"fmt"
	"time"

	"github.com/keylink-sys/keylink-go/application"
	"github.com/keylink-sys/keylink-go/protocol"
	"github.com/keylink-sys/keylink-go/utils"
)

// Config contains the client's configuration needed to reach its node:
// the direct address for its own node, the p2p address whose proxy route
// tunnels to other nodes, and the node's identifier, used to tell local
// storage providers from remote ones.
//
// Note that if P2PAddress is empty, the client falls back to using
// Address for proxied requests too.
type Config struct {
	*application.CommonConfig

	Address    string `toml:"address"`
	P2PAddress string `toml:"p2p_address,omitempty"`
	ServerID   string `toml:"server_id"`
	// Timeout of a single request, in seconds.
	Timeout int `toml:"timeout,omitempty"`
	// ChainDBPath enables chain pinning when set. A relative path is
	// resolved against the config file.
	ChainDBPath string `toml:"chain_db_path,omitempty"`

	serverID protocol.NodeID
}

var _ application.AppConfig = (*Config)(nil)

// NewConfig initializes a new client configuration at the
// given file path, with the given config encoding,
// node addresses and node identifier.
func NewConfig(file, encoding string, addr, p2pAddr string,
	serverID protocol.NodeID, logger *application.LoggerConfig) *Config {
	var conf = Config{
		CommonConfig: application.NewCommonConfig(file, encoding, logger),
		Address:      addr,
		P2PAddress:   p2pAddr,
		ServerID:     serverID.String(),
		Timeout:      int(application.DefaultTimeout / time.Second),
		serverID:     serverID,
	}

	return &conf
}

// Load initializes a client's configuration from the given file
// using the given encoding.
// It parses the node identifier and resolves the chain database path.
func (conf *Config) Load(file, encoding string) error {
	conf.CommonConfig = application.NewCommonConfig(file, encoding, nil)
	if err := conf.GetLoader().Decode(conf); err != nil {
		return err
	}

	if conf.Address == "" {
		return fmt.Errorf("Config %s: address is required", file)
	}
	id, err := protocol.ParseNodeID(conf.ServerID)
	if err != nil {
		return fmt.Errorf("Config %s: bad server_id: %v", file, err)
	}
	conf.serverID = id
	if conf.ChainDBPath != "" {
		conf.ChainDBPath = utils.ResolvePath(conf.ChainDBPath, file)
	}
	return nil
}

// Save writes a client's configuration.
func (conf *Config) Save() error {
	return conf.GetLoader().Encode(conf)
}

// GetPath returns the client's configuration file path.
func (conf *Config) GetPath() string {
	return conf.Path
}

// NodeID returns the parsed identifier of the client's node.
func (conf *Config) NodeID() protocol.NodeID {
	return conf.serverID
}

// P2P returns the address proxied requests are sent to.
func (conf *Config) P2P() string {
	if conf.P2PAddress == "" {
		return conf.Address
	}
	return conf.P2PAddress
}

// RequestTimeout returns the timeout of a single request.
func (conf *Config) RequestTimeout() time.Duration {
	if conf.Timeout <= 0 {
		return application.DefaultTimeout
	}
	return time.Duration(conf.Timeout) * time.Second
}
