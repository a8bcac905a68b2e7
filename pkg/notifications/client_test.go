package notifications

import (
	"testing"

	"github.com/MaxGiu67/nexa-version-management-api/pkg/api"
	"github.com/MaxGiu67/nexa-version-management-api/pkg/config"
	"github.com/MaxGiu67/nexa-version-management-api/pkg/instrumentation"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestEventNameString(t *testing.T) {
	assert.Equal(t, "version-published", VersionPublished.String())
	assert.Equal(t, "version-deleted", VersionDeleted.String())
	assert.Equal(t, "version-flags-set", VersionFlagsSet.String())
	assert.Equal(t, "version-downloaded", VersionDownloaded.String())
	assert.Equal(t, "", EventName("bogus").String())
}

func TestSendNotificationWithoutBrokers(t *testing.T) {
	config.Load()
	assert.NotPanics(t, func() {
		SendNotification(nil, VersionPublished, VersionEvent{AppIdentifier: "com.example.app"})
	})
}

func TestSendNotificationCountsFailedDelivery(t *testing.T) {
	t.Setenv("KAFKA_BOOTSTRAP_SERVERS", "localhost:1")
	config.Load()
	defer func() {
		t.Setenv("KAFKA_BOOTSTRAP_SERVERS", "")
		config.Load()
	}()

	metrics := instrumentation.NewMetrics(prometheus.NewRegistry())
	SendNotification(metrics, VersionPublished, VersionEvent{AppIdentifier: "com.example.app"})

	failed := metrics.KafkaMessageStatus.With(prometheus.Labels{"state": "failed"})
	assert.Equal(t, 1.0, testutil.ToFloat64(failed))
}

func TestMapVersionResponse(t *testing.T) {
	event := MapVersionResponse(api.VersionResponse{
		AppIdentifier: "com.example.app",
		Version:       "1.2.0",
		Platform:      "android",
		VersionCode:   12,
		FileSize:      1024,
		FileHash:      "abc123",
		StorageKind:   "inline",
	})
	assert.Equal(t, "com.example.app", event.AppIdentifier)
	assert.Equal(t, int64(12), event.VersionCode)
	assert.Equal(t, "inline", event.StorageKind)
}

func TestMapUploadResponse(t *testing.T) {
	event := MapUploadResponse("com.example.app", api.UploadResponse{
		Version:     "1.2.0",
		Platform:    "ios",
		FileSize:    2048,
		FileHash:    "def456",
		StorageKind: "volume",
	})
	assert.Equal(t, "com.example.app", event.AppIdentifier)
	assert.Equal(t, "ios", event.Platform)
	assert.Equal(t, int64(2048), event.FileSize)
}
