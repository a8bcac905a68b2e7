package config

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	ce "github.com/MaxGiu67/nexa-version-management-api/pkg/errors"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const DefaultAppName = "nexa-version-management"

type Configuration struct {
	Database   Database
	Logging    Logging
	Loaded     bool
	Kafka      Kafka    `mapstructure:"kafka"`
	Cloudwatch Cloudwatch
	Sentry     Sentry  `mapstructure:"sentry"`
	Metrics    Metrics `mapstructure:"metrics"`
	Clients    Clients `mapstructure:"clients"`
	Storage    Storage `mapstructure:"storage"`
	Options    Options `mapstructure:"options"`
}

type Database struct {
	Host             string
	Port             int
	User             string
	Password         string
	Name             string
	CACertPath       string `mapstructure:"ca_cert_path"`
	PoolLimit        int    `mapstructure:"pool_limit"`
	QueryTimeoutSecs int    `mapstructure:"query_timeout_secs"`
}

type Logging struct {
	Level   string
	Console bool
	Color   bool
}

type Cloudwatch struct {
	Region  string
	Key     string
	Secret  string
	Session string
	Group   string
	Stream  string
}

type Sentry struct {
	Dsn string
}

type Metrics struct {
	// Path the metrics server listens on for metric traffic.
	Path string `mapstructure:"path"`

	// Port the metrics server listens on for metric traffic.
	Port int `mapstructure:"port"`
}

type Clients struct {
	Redis Redis `mapstructure:"redis"`
}

type Redis struct {
	Host       string
	Port       int
	Username   string
	Password   string
	DB         int
	Expiration time.Duration
}

type Kafka struct {
	// Comma separated list of bootstrap servers. Empty disables notifications.
	BootstrapServers string `mapstructure:"bootstrap_servers"`
	Topic            string `mapstructure:"topic"`
	Sasl             Sasl   `mapstructure:"sasl"`
}

type Sasl struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	// SCRAM-SHA-256, SCRAM-SHA-512 or PLAIN. Empty disables SASL.
	Mechanism string `mapstructure:"mechanism"`
}

type Storage struct {
	// Base directory of the persistent volume holding binaries stored
	// outside the database.
	Path string `mapstructure:"path"`
}

// https://stackoverflow.com/questions/54844546/how-to-unmarshal-golang-viper-snake-case-values
type Options struct {
	// Uploads larger than this many bytes go to the volume store instead
	// of the database blob column.
	InlineStorageLimit int64 `mapstructure:"inline_storage_limit"`

	// Route every upload to the volume store regardless of size.
	ForceVolumeStorage bool `mapstructure:"force_volume_storage"`

	// Hard cap on accepted binaries.
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes"`

	// Chunked upload sessions older than this many seconds are discarded.
	UploadSessionTimeoutSecs int `mapstructure:"upload_session_timeout_secs"`

	// API key required on /api routes. Empty disables the check.
	ApiKey string `mapstructure:"api_key"`
}

const (
	DefaultInlineStorageLimit       = 50 * 1024 * 1024
	DefaultMaxUploadBytes           = 500 * 1024 * 1024
	DefaultUploadSessionTimeoutSecs = 3600
	DefaultDatabaseQueryTimeoutSecs = 300
)

var LoadedConfig Configuration

func Get() *Configuration {
	if !LoadedConfig.Loaded {
		Load()
	}
	return &LoadedConfig
}

func RedisUrl() string {
	return fmt.Sprintf("%s:%d", Get().Clients.Redis.Host, Get().Clients.Redis.Port)
}

func readConfigFile(v *viper.Viper) {
	v.SetConfigName("config.yaml")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs/")
	v.AddConfigPath("../../configs/")
	v.AddConfigPath("../../../configs")

	if path, ok := os.LookupEnv("CONFIG_PATH"); ok {
		v.AddConfigPath(path)
	}
	err := v.ReadInConfig()
	if err != nil {
		log.Logger.Warn().Msgf("config.yaml file not loaded: %s", err.Error())
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("Loaded", true)
	// In viper you have to set defaults, otherwise loading from ENV doesn't work
	//   without a config file present
	v.SetDefault("database.host", "")
	v.SetDefault("database.port", "")
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "")
	v.SetDefault("database.pool_limit", 20)
	v.SetDefault("database.query_timeout_secs", DefaultDatabaseQueryTimeoutSecs)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", false)
	v.SetDefault("logging.color", false)

	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.port", 9000)

	v.SetDefault("sentry.dsn", "")

	v.SetDefault("cloudwatch.region", "")
	v.SetDefault("cloudwatch.group", "")
	v.SetDefault("cloudwatch.stream", DefaultLogwatchStream())
	v.SetDefault("cloudwatch.session", "")
	v.SetDefault("cloudwatch.secret", "")
	v.SetDefault("cloudwatch.key", "")

	v.SetDefault("clients.redis.host", "")
	v.SetDefault("clients.redis.port", "")
	v.SetDefault("clients.redis.username", "")
	v.SetDefault("clients.redis.password", "")
	v.SetDefault("clients.redis.db", 0)
	v.SetDefault("clients.redis.expiration", 1*time.Minute)

	v.SetDefault("kafka.bootstrap_servers", "")
	v.SetDefault("kafka.topic", "platform.nexa.version-events")
	v.SetDefault("kafka.sasl.username", "")
	v.SetDefault("kafka.sasl.password", "")
	v.SetDefault("kafka.sasl.mechanism", "")

	v.SetDefault("storage.path", "./storage")

	v.SetDefault("options.inline_storage_limit", DefaultInlineStorageLimit)
	v.SetDefault("options.force_volume_storage", false)
	v.SetDefault("options.max_upload_bytes", DefaultMaxUploadBytes)
	v.SetDefault("options.upload_session_timeout_secs", DefaultUploadSessionTimeoutSecs)
	v.SetDefault("options.api_key", "")
}

func Load() {
	v := viper.New()

	readConfigFile(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	err := v.Unmarshal(&LoadedConfig)
	if err != nil {
		panic(err)
	}

	if LoadedConfig.Clients.Redis.Host == "" {
		log.Warn().Msg("Caching is disabled.")
	}
}

func DefaultLogwatchStream() string {
	hostname, err := os.Hostname()
	if err != nil {
		log.Error().Err(err).Msg("Could not read hostname")
		return DefaultAppName
	}
	return hostname
}

func ProgramString() string {
	return strings.Join(os.Args, " ")
}

func CustomHTTPErrorHandler(err error, c echo.Context) {
	var code int
	var message ce.ErrorResponse

	if c.Response().Committed {
		c.Logger().Error(err)
		return
	}

	if errResp, ok := err.(ce.ErrorResponse); ok {
		code = ce.GetGeneralResponseCode(errResp)
		message = errResp
	} else if he, ok := err.(*echo.HTTPError); ok {
		errResp := ce.NewErrorResponseFromEchoError(he)
		code = errResp.Errors[0].Status
		message = errResp
	} else {
		code = http.StatusInternalServerError
		message = ce.NewErrorResponse(code, "", http.StatusText(http.StatusInternalServerError))
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, message)
	}
	if err != nil {
		log.Logger.Error().Err(err)
	}
}

func UploadSessionTimeout() time.Duration {
	return time.Duration(Get().Options.UploadSessionTimeoutSecs) * time.Second
}

func DatabaseQueryTimeout() time.Duration {
	return time.Duration(Get().Database.QueryTimeoutSecs) * time.Second
}
