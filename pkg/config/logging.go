package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	zlogsentry "github.com/archdx/zerolog-sentry"
	"github.com/labstack/echo/v4"
	cww "github.com/lzap/cloudwatchwriter2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const HeaderRequestId = "x-request-id"
const RequestIdLoggingKey = "request_id"

func ConfigureLogging() {
	level, err := zerolog.ParseLevel(Get().Logging.Level)
	conf := Get()
	if err != nil {
		log.Error().Err(err).Msg("")
	}

	if conf.Logging.Console {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	if conf.Cloudwatch.Key != "" {
		cloudWatchLogger, err := newCloudWatchLogger(conf.Cloudwatch)
		if err != nil {
			log.Fatal().Err(err).Msg("ERROR setting up cloudwatch")
		}
		log.Logger = zerolog.New(zerolog.MultiLevelWriter(log.Logger, cloudWatchLogger)).With().Timestamp().Logger()
	}
	if conf.Sentry.Dsn != "" {
		sentryWriter, err := zlogsentry.New(conf.Sentry.Dsn)
		if err != nil {
			log.Error().Err(err).Msg("ERROR setting up sentry")
		} else {
			log.Logger = zerolog.New(zerolog.MultiLevelWriter(log.Logger, sentryWriter)).With().Timestamp().Logger()
		}
	}
	log.Logger = log.Logger.Level(level)

	zerolog.SetGlobalLevel(level)
	zerolog.DefaultContextLogger = &log.Logger
}

// DBLevel is the level gorm logs at, one step quieter than the global level
// so query traces do not drown request logs.
func DBLevel() zerolog.Level {
	level, err := zerolog.ParseLevel(Get().Logging.Level)
	if err != nil || level == zerolog.DebugLevel {
		return zerolog.DebugLevel
	}
	return zerolog.WarnLevel
}

// SkipLogging skips request logging for health and metrics probes.
func SkipLogging(c echo.Context) bool {
	switch c.Request().URL.Path {
	case "/ping", "/ping/", "/health", Get().Metrics.Path:
		return true
	}
	return false
}

func newCloudWatchLogger(cwConfig Cloudwatch) (io.Writer, error) {
	cloudWatchWriter, err := cww.NewWithClient(newCloudWatchClient(cwConfig), 2000*time.Millisecond, cwConfig.Group, cwConfig.Stream)

	if err != nil {
		return log.Logger, fmt.Errorf("cloudwatchwriter.NewWithClient: %w", err)
	}

	return cloudWatchWriter, nil
}

func newCloudWatchClient(cwConfig Cloudwatch) *cloudwatchlogs.Client {
	cache := aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider(
		Get().Cloudwatch.Key, cwConfig.Secret, cwConfig.Session))

	return cloudwatchlogs.New(cloudwatchlogs.Options{
		Region:      cwConfig.Region,
		Credentials: cache,
	})
}
