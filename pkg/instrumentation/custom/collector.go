package custom

import (
	"context"
	"time"

	"github.com/MaxGiu67/nexa-version-management-api/pkg/dao"
	"github.com/MaxGiu67/nexa-version-management-api/pkg/instrumentation"
	"github.com/MaxGiu67/nexa-version-management-api/pkg/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const tickerDelay = 30 // in seconds // could be good to match this with the scrapper frequency

// SessionCounter reports the in-flight chunked upload sessions.
type SessionCounter interface {
	ActiveSessions() int
}

type Collector struct {
	context  context.Context
	metrics  *instrumentation.Metrics
	dao      dao.VersionDao
	sessions SessionCounter
}

func NewCollector(context context.Context, metrics *instrumentation.Metrics, db *gorm.DB, sessions SessionCounter) *Collector {
	if context == nil {
		return nil
	}
	if metrics == nil {
		return nil
	}
	if db == nil {
		return nil
	}
	return &Collector{
		context:  context,
		metrics:  metrics,
		dao:      dao.GetVersionDao(db),
		sessions: sessions,
	}
}

func (c *Collector) iterate() {
	ctx := c.context
	info, err := c.dao.StorageInfo(ctx)
	if err != nil {
		log.Error().Err(err).Msg("metrics collector could not read storage info")
		return
	}
	c.metrics.VersionsTotal.Set(float64(info.TotalVersions))
	c.metrics.DownloadsTotal.Set(float64(info.TotalDownloads))
	c.metrics.StoredBytes.With(prometheus.Labels{"storage_kind": models.StorageInline}).Set(float64(info.InlineBytes))
	c.metrics.StoredBytes.With(prometheus.Labels{"storage_kind": models.StorageVolume}).Set(float64(info.VolumeBytes))
	if c.sessions != nil {
		c.metrics.UploadSessionsActive.Set(float64(c.sessions.ActiveSessions()))
	}
}

func (c *Collector) Run() {
	log.Info().Msg("Starting metrics collector go routine")
	ticker := time.NewTicker(tickerDelay * time.Second)
	for {
		select {
		case <-ticker.C:
			c.iterate()
		case <-c.context.Done():
			log.Info().Msgf("Stopping metrics collector go routine")
			ticker.Stop()
			return
		}
	}
}
