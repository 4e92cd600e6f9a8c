package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// EnvPrefix is prepended to every variable read by LoadFromEnv.
const EnvPrefix = "SURFACEFLOW_"

// LoadFromEnv builds a Config from SURFACEFLOW_* variables. The given dotenv
// files supply values for variables missing from the process environment;
// with no files, ".env" is read when it exists. The process environment is
// never modified.
func LoadFromEnv(files ...string) (*Config, error) {
	fileEnv, err := readDotenv(files)
	if err != nil {
		return nil, err
	}
	return fromLookup(func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fileEnv[key]
		return v, ok
	})
}

func readDotenv(files []string) (map[string]string, error) {
	if len(files) == 0 {
		env, err := godotenv.Read(".env")
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("config: read .env: %w", err)
		}
		return env, nil
	}
	env, err := godotenv.Read(files...)
	if err != nil {
		return nil, fmt.Errorf("config: read dotenv: %w", err)
	}
	return env, nil
}

func fromLookup(lookup func(string) (string, bool)) (*Config, error) {
	r := envReader{lookup: lookup}
	cfg := &Config{
		PubSubSystem:              r.str("PUBSUB_SYSTEM"),
		KafkaBrokers:              r.list("KAFKA_BROKERS"),
		KafkaClientID:             r.str("KAFKA_CLIENT_ID"),
		KafkaConsumerGroup:        r.str("KAFKA_CONSUMER_GROUP"),
		RabbitMQURL:               r.str("RABBITMQ_URL"),
		NATSURL:                   r.str("NATS_URL"),
		HTTPServerAddress:         r.str("HTTP_SERVER_ADDRESS"),
		HTTPPublisherURL:          r.str("HTTP_PUBLISHER_URL"),
		IOFile:                    r.str("IO_FILE"),
		IOActionFile:              r.str("IO_ACTION_FILE"),
		InputTopic:                r.str("INPUT_TOPIC"),
		ActionTopic:               r.str("ACTION_TOPIC"),
		PoisonQueue:               r.str("POISON_QUEUE"),
		MetricsEnabled:            r.boolean("METRICS_ENABLED"),
		MetricsPort:               r.integer("METRICS_PORT"),
		InspectEnabled:            r.boolean("INSPECT_ENABLED"),
		InspectPort:               r.integer("INSPECT_PORT"),
		InspectCORSAllowedOrigins: r.list("INSPECT_CORS_ALLOWED_ORIGINS"),
	}
	if err := errors.Join(r.errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

type envReader struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (r *envReader) str(key string) string {
	v, _ := r.lookup(EnvPrefix + key)
	return strings.TrimSpace(v)
}

func (r *envReader) list(key string) []string {
	raw := r.str(key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (r *envReader) boolean(key string) bool {
	raw := r.str(key)
	if raw == "" {
		return false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
	}
	return v
}

func (r *envReader) integer(key string) int {
	raw := r.str(key)
	if raw == "" {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
	}
	return v
}
