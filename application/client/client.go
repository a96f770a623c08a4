// Package client wires a keylink client together from its Config: the
// identity resolver, optionally checked against pinned chains, and the
// pointer router.
package client

import (
	"github.com/keylink-sys/keylink-go/application"
	"github.com/keylink-sys/keylink-go/application/corenode"
	"github.com/keylink-sys/keylink-go/application/mutable"
	"github.com/keylink-sys/keylink-go/protocol/client"
	"github.com/keylink-sys/keylink-go/storage/kv"
	"github.com/keylink-sys/keylink-go/storage/kv/leveldbkv"
)

// A Client is the set of services a keylink client talks to.
type Client struct {
	Core     corenode.CoreNode
	Pointers *mutable.ProxyingMutablePointers
	Logger   *application.Logger

	db kv.DB
}

// New builds a Client from conf. The caller must Close it.
func New(conf *Config) (*Client, error) {
	logger := application.NewNopLogger()
	if conf.Logger != nil {
		logger = application.NewLogger(conf.Logger)
	}

	direct := application.NewHTTPPoster(conf.Address, conf.RequestTimeout())
	p2p := application.NewHTTPPoster(conf.P2P(), conf.RequestTimeout())

	var core corenode.CoreNode = corenode.NewHTTPCoreNode(direct, p2p, logger.Named("core"))
	var db kv.DB
	if conf.ChainDBPath != "" {
		var err error
		if db, err = leveldbkv.OpenDB(conf.ChainDBPath); err != nil {
			return nil, err
		}
		core = corenode.NewPinningCoreNode(core, client.New(db, nil))
		logger.Debug("Chain pinning enabled", "path", conf.ChainDBPath)
	}

	store := mutable.NewHTTPMutablePointers(direct, p2p, logger.Named("mutable"))
	return &Client{
		Core:     core,
		Pointers: mutable.NewProxyingMutablePointers(conf.NodeID(), core, store, logger.Named("router")),
		Logger:   logger,
		db:       db,
	}, nil
}

// Close releases the chain database, if any, and flushes the logger.
func (c *Client) Close() error {
	c.Logger.Sync()
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}
