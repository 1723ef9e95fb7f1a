package metrics

import (
	"context"
	"time"

	"asset-ingest/internal/logging"
)

// StatsProvider reports catalog totals for the gauges.
type StatsProvider interface {
	CatalogStats(ctx context.Context) (Stats, error)
}

// Stats holds the current catalog totals
type Stats struct {
	TotalFolders int
	TotalImages  int
	TotalBinary  int
}

// Collector periodically collects and updates metrics
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
	log           logging.Logger
	stopChan      chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, interval time.Duration, log logging.Logger) *Collector {
	return &Collector{
		statsProvider: provider,
		interval:      interval,
		log:           log,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	// Collect immediately on start
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.statsProvider == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stats, err := c.statsProvider.CatalogStats(ctx)
	if err != nil {
		c.log.Warn("Failed to collect catalog stats: %v", err)
		return
	}

	CatalogFilesTotal.WithLabelValues("image").Set(float64(stats.TotalImages))
	CatalogFilesTotal.WithLabelValues("binary").Set(float64(stats.TotalBinary))
	CatalogFoldersTotal.Set(float64(stats.TotalFolders))

	c.log.Debug("Metrics collected: folders=%d, images=%d, binary=%d",
		stats.TotalFolders, stats.TotalImages, stats.TotalBinary)
}
