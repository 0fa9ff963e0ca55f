package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Server    ServerConfig
	Logging   LoggingConfig
	REST      RESTConfig
	Security  SecurityConfig
	Kafka     KafkaConfig
	Redis     RedisConfig
	Pages     PagesConfig
	Websocket WebsocketConfig
}

type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8080"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	// MutationRateLimit caps mutating requests per client IP per minute. Zero disables the limiter.
	MutationRateLimit int  `envconfig:"MUTATION_RATE_LIMIT" default:"120"`
	SecureCookies     bool `envconfig:"SECURE_COOKIES" default:"false"`
}

type LoggingConfig struct {
	Directory string `envconfig:"LOG_DIR" default:"./logs"`
	Level     string `envconfig:"LOG_LEVEL" default:"info"`
	Format    string `envconfig:"LOG_FORMAT" default:"text"`
}

type RESTConfig struct {
	BaseURL string        `envconfig:"REST_BASE_URL" default:"http://localhost:3000"`
	Timeout time.Duration `envconfig:"REST_TIMEOUT" default:"10s"`
}

type SecurityConfig struct {
	JWTSecret    string `envconfig:"JWT_SECRET"`
	JWTPublicKey string `envconfig:"JWT_PUBLIC_KEY"`
}

type KafkaConfig struct {
	Brokers []string `envconfig:"KAFKA_BROKERS"`
	GroupID string   `envconfig:"KAFKA_GROUP_ID" default:"bistropulse-console"`
	// RawTopics uses the form "orders:bistropulse.orders.created|bistropulse.orders.updated,restaurants:...".
	RawTopics  string `envconfig:"KAFKA_TOPICS"`
	AuditTopic string `envconfig:"KAFKA_AUDIT_TOPIC" default:"bistropulse.console.mutations"`
	// NotificationTopic carries backend notifications shown as info toasts. Empty disables it.
	NotificationTopic string `envconfig:"KAFKA_NOTIFICATION_TOPIC" default:"bistropulse.notifications"`
	// ReloadActions lists the entity event actions that refetch mounted pages.
	ReloadActions []string `envconfig:"KAFKA_RELOAD_ACTIONS" default:"created,updated,deleted,status-changed"`

	Topics map[string][]string `ignored:"true"`
}

type RedisConfig struct {
	// Addr selects the redis session store. Empty keeps sessions in memory.
	Addr       string        `envconfig:"REDIS_ADDR"`
	Password   string        `envconfig:"REDIS_PASSWORD"`
	DB         int           `envconfig:"REDIS_DB" default:"0"`
	SessionTTL time.Duration `envconfig:"SESSION_TTL" default:"12h"`
}

type PagesConfig struct {
	PageSize int           `envconfig:"PAGE_SIZE" default:"10"`
	IdleTTL  time.Duration `envconfig:"PAGES_IDLE_TTL" default:"30m"`
}

type WebsocketConfig struct {
	SendBuffer int `envconfig:"WS_SEND_BUFFER" default:"16"`
}

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	cfg.Kafka.Brokers = splitList(cfg.Kafka.Brokers)
	cfg.Kafka.ReloadActions = splitList(cfg.Kafka.ReloadActions)
	topics, err := ParseTopics(cfg.Kafka.RawTopics)
	if err != nil {
		return nil, err
	}
	cfg.Kafka.Topics = topics
	if strings.TrimSpace(cfg.Security.JWTSecret) == "" && strings.TrimSpace(cfg.Security.JWTPublicKey) == "" {
		return nil, fmt.Errorf("either JWT_SECRET or JWT_PUBLIC_KEY must be set")
	}
	if cfg.Pages.PageSize <= 0 {
		return nil, fmt.Errorf("PAGE_SIZE must be positive, got %d", cfg.Pages.PageSize)
	}
	return &cfg, nil
}

// ParseTopics decodes the KAFKA_TOPICS value into entity -> topics.
func ParseTopics(raw string) (map[string][]string, error) {
	result := make(map[string][]string)
	for _, group := range strings.Split(raw, ",") {
		group = strings.TrimSpace(group)
		if group == "" {
			continue
		}
		entity, list, ok := strings.Cut(group, ":")
		entity = strings.ToLower(strings.TrimSpace(entity))
		if !ok || entity == "" {
			return nil, fmt.Errorf("invalid KAFKA_TOPICS entry %q", group)
		}
		for _, topic := range strings.Split(list, "|") {
			if trimmed := strings.TrimSpace(topic); trimmed != "" {
				result[entity] = append(result[entity], trimmed)
			}
		}
	}
	return result, nil
}

// AllTopics flattens the topic map.
func (k KafkaConfig) AllTopics() []string {
	topics := make([]string, 0)
	for _, list := range k.Topics {
		topics = append(topics, list...)
	}
	return topics
}

func splitList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
