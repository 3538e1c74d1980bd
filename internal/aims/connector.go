// Package aims manages connectivity to the AIMS/SoluM vendor API for
// the active store. The vendor API itself is opaque: the platform
// server brokers credentials and hands the client a resolved
// configuration plus a vendor token.
package aims

import (
	"context"
	"sync"

	"github.com/electisspace/spacectl/internal/api"
	"github.com/electisspace/spacectl/internal/log"
	"github.com/electisspace/spacectl/internal/metrics"
)

// Connector tracks AIMS connectivity for the active store.
type Connector struct {
	client  *api.Client
	logger  *log.Logger
	metrics *metrics.Metrics

	mu        sync.RWMutex
	connected bool
	storeID   string
	config    *api.AIMSConfig
}

// NewConnector creates a disconnected connector.
func NewConnector(client *api.Client, logger *log.Logger, m *metrics.Metrics) *Connector {
	return &Connector{
		client:  client,
		logger:  logger.WithGroup("aims"),
		metrics: m,
	}
}

// AutoConnect attempts to establish AIMS connectivity for the store.
// Best-effort: failures are logged and reported as false, never as an
// error. Manual connect remains available, so an auto-connect failure
// must not block the login or context-switch flow it rides on.
func (c *Connector) AutoConnect(ctx context.Context, storeID string) bool {
	resp, err := c.client.SolumConnect(ctx, storeID)
	if err != nil {
		c.metrics.AIMSConnects.WithLabelValues(metrics.ResultError).Inc()
		c.logger.Warn("auto-connect failed", "store_id", storeID, "error", err)
		c.setDisconnected()
		return false
	}

	c.mu.Lock()
	c.connected = resp.Connected
	c.storeID = storeID
	c.config = &resp.Config
	c.mu.Unlock()

	if resp.Connected {
		c.metrics.AIMSConnects.WithLabelValues(metrics.ResultOK).Inc()
		c.logger.Info("connected", "store_id", storeID, "cluster", resp.Config.Cluster)
	} else {
		c.metrics.AIMSConnects.WithLabelValues(metrics.ResultError).Inc()
		c.logger.Warn("server reported not connected", "store_id", storeID)
	}
	return resp.Connected
}

// Status returns the current connectivity and, when connected, the
// resolved vendor configuration.
func (c *Connector) Status() (connected bool, storeID string, config *api.AIMSConfig) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected, c.storeID, c.config
}

// Disconnect clears local connectivity state. Called on logout and
// before reconnecting to a different store.
func (c *Connector) Disconnect() {
	c.setDisconnected()
}

func (c *Connector) setDisconnected() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
	c.storeID = ""
	c.config = nil
}

// ConnectionInfo looks up a store's AIMS configuration status and the
// admin contacts who can fix it. Used by the store-required guard.
func (c *Connector) ConnectionInfo(ctx context.Context, storeID string) (*api.ConnectionInfo, error) {
	return c.client.StoreConnectionInfo(ctx, storeID)
}
