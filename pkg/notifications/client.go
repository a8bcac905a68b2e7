package notifications

import (
	"context"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"github.com/MaxGiu67/nexa-version-management-api/pkg/api"
	"github.com/MaxGiu67/nexa-version-management-api/pkg/config"
	"github.com/MaxGiu67/nexa-version-management-api/pkg/instrumentation"
	"github.com/MaxGiu67/nexa-version-management-api/pkg/kafka"
	"github.com/cloudevents/sdk-go/protocol/kafka_sarama/v2"
	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// VersionEvent is the payload carried by every version lifecycle event.
type VersionEvent struct {
	AppIdentifier string `json:"app_identifier"`
	Version       string `json:"version"`
	Platform      string `json:"platform"`
	VersionCode   int64  `json:"version_code,omitempty"`
	FileSize      int64  `json:"file_size,omitempty"`
	FileHash      string `json:"file_hash,omitempty"`
	StorageKind   string `json:"storage_kind,omitempty"`
	UserUUID      string `json:"user_uuid,omitempty"`
}

// SendNotification publishes one lifecycle event. Delivery is best effort;
// a broker outage never fails the API request that triggered the event.
// Each attempted delivery is counted on the kafka message status metric.
func SendNotification(metrics *instrumentation.Metrics, eventName EventName, event VersionEvent) {
	kafkaServers := []string{}

	if config.Get().Kafka.BootstrapServers != "" {
		kafkaServers = strings.Split(config.Get().Kafka.BootstrapServers, ",")
	} else {
		log.Warn().Msg("SendNotification: 'kafkaServers' is empty!")
	}

	if len(kafkaServers) > 0 {
		eventNameStr := eventName.String()
		saramaConfig := sarama.NewConfig()

		saramaConfig.Version = sarama.V0_10_2_0
		saramaConfig.Consumer.Offsets.Initial = sarama.OffsetOldest
		if sasl := config.Get().Kafka.Sasl; sasl.Username != "" {
			kafka.ConfigureSASL(saramaConfig, sasl.Username, sasl.Password, sasl.Mechanism)
		}

		protocol, err := kafka_sarama.NewSender(kafkaServers, saramaConfig, config.Get().Kafka.Topic)
		if err != nil {
			log.Error().Err(err).Msg("failed to create kafka_sarama protocol")
			metrics.RecordKafkaMessageStatus(false)
			return
		}
		ctx := cloudevents.WithEncodingStructured(context.Background())
		defer protocol.Close(ctx)

		c, err := cloudevents.NewClient(protocol, cloudevents.WithTimeNow(), cloudevents.WithUUIDs())
		if err != nil {
			log.Error().Err(err).Msg("failed to create cloudevents client")
			metrics.RecordKafkaMessageStatus(false)
			return
		}
		newUUID, _ := uuid.NewRandom()
		e := cloudevents.NewEvent()
		e.SetSource("urn:nexa:source:version-management")
		e.SetID(newUUID.String())
		e.SetType("com.nexa.versions." + eventNameStr)
		e.SetSubject("urn:nexa:subject:" + event.AppIdentifier)
		e.SetTime(time.Now())
		e.SetExtension("nexaapp", event.AppIdentifier)

		err = e.SetData(cloudevents.ApplicationJSON, event)
		if err != nil {
			log.Error().Err(err).Msg("failed to set cloudevents data")
			metrics.RecordKafkaMessageStatus(false)
			return
		}

		// Send the event
		if result := c.Send(ctx, e); cloudevents.IsUndelivered(result) {
			log.Error().Err(result).Msg("Notification message failed to send")
			metrics.RecordKafkaMessageStatus(false)
			return
		} else {
			log.Debug().Msgf("Notification message accepted: %t", cloudevents.IsACK(result))
			metrics.RecordKafkaMessageStatus(true)
		}
	}
}

// MapVersionResponse converts a catalog row into an event payload.
func MapVersionResponse(version api.VersionResponse) VersionEvent {
	return VersionEvent{
		AppIdentifier: version.AppIdentifier,
		Version:       version.Version,
		Platform:      version.Platform,
		VersionCode:   version.VersionCode,
		FileSize:      version.FileSize,
		FileHash:      version.FileHash,
		StorageKind:   version.StorageKind,
	}
}

// MapUploadResponse converts an upload result into an event payload.
func MapUploadResponse(appIdentifier string, upload api.UploadResponse) VersionEvent {
	return VersionEvent{
		AppIdentifier: appIdentifier,
		Version:       upload.Version,
		Platform:      upload.Platform,
		VersionCode:   0,
		FileSize:      upload.FileSize,
		FileHash:      upload.FileHash,
		StorageKind:   upload.StorageKind,
	}
}
