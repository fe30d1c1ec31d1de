package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Server
	ServerPort     string        `yaml:"server_port"`
	ServerHost     string        `yaml:"server_host"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	MaxRequestBody int64         `yaml:"max_request_body"`
	StaticDir      string        `yaml:"static_dir"`
	RateLimitRPS   int           `yaml:"rate_limit_rps"`
	RateLimitBurst int           `yaml:"rate_limit_burst"`

	// Storage directories
	ModelDir     string `yaml:"model_dir"`
	LogsDir      string `yaml:"logs_dir"`
	MemoryDir    string `yaml:"memory_dir"`
	MediaDir     string `yaml:"media_dir"`
	WorkspaceDir string `yaml:"workspace_dir"`

	// Training
	AcceptThreshold     float64       `yaml:"accept_threshold"`
	RetrainThreshold    float64       `yaml:"retrain_threshold"`
	DefaultEpochs       int           `yaml:"default_epochs"`
	RetrainEpochs       int           `yaml:"retrain_epochs"`
	StepDelayScale      float64       `yaml:"step_delay_scale"`
	LearningInterval    time.Duration `yaml:"learning_interval"`
	TrainingEventsTopic string        `yaml:"training_events_topic"`

	// Database
	PostgresEnabled  bool   `yaml:"postgres_enabled"`
	PostgresHost     string `yaml:"postgres_host"`
	PostgresPort     string `yaml:"postgres_port"`
	PostgresUser     string `yaml:"postgres_user"`
	PostgresPassword string `yaml:"postgres_password"`
	PostgresDB       string `yaml:"postgres_db"`
	PostgresSSLMode  string `yaml:"postgres_sslmode"`

	// Redis
	RedisEnabled   bool          `yaml:"redis_enabled"`
	RedisHost      string        `yaml:"redis_host"`
	RedisPort      string        `yaml:"redis_port"`
	RedisPassword  string        `yaml:"redis_password"`
	RedisDB        int           `yaml:"redis_db"`
	MemoryCacheTTL time.Duration `yaml:"memory_cache_ttl"`

	// Kafka
	KafkaEnabled bool     `yaml:"kafka_enabled"`
	KafkaBrokers []string `yaml:"kafka_brokers"`
	KafkaGroupID string   `yaml:"kafka_group_id"`
	EventAudit   bool     `yaml:"event_audit"`

	// LLM
	LLMAPIKey    string        `yaml:"llm_api_key"`
	LLMBaseURL   string        `yaml:"llm_base_url"`
	LLMModelName string        `yaml:"llm_model_name"`
	LLMTimeout   time.Duration `yaml:"llm_timeout"`
	LLMRetries   int           `yaml:"llm_retries"`

	// GitHub backup
	GitHubRepo          string        `yaml:"github_repo"`
	GitHubToken         string        `yaml:"github_token"`
	BackupInterval      time.Duration `yaml:"backup_interval"`
	BackupRetryInterval time.Duration `yaml:"backup_retry_interval"`
}

func Load() *Config {
	cfg := &Config{
		ServerPort:     getEnv("SERVER_PORT", getEnv("PORT", "8080")),
		ServerHost:     getEnv("SERVER_HOST", "0.0.0.0"),
		ReadTimeout:    getDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout:   getDuration("WRITE_TIMEOUT", 30*time.Second),
		MaxRequestBody: int64(getIntEnv("MAX_REQUEST_BODY_BYTES", 4*1024*1024)),
		StaticDir:      getEnv("STATIC_DIR", "static"),
		RateLimitRPS:   getIntEnv("RATE_LIMIT_RPS", 50),
		RateLimitBurst: getIntEnv("RATE_LIMIT_BURST", 100),

		ModelDir:     getEnv("MODEL_DIR", "models"),
		LogsDir:      getEnv("LOGS_DIR", "logs"),
		MemoryDir:    getEnv("MEMORY_DIR", "memory"),
		MediaDir:     getEnv("MEDIA_DIR", "media"),
		WorkspaceDir: getEnv("WORKSPACE_DIR", "workspace"),

		AcceptThreshold:     getFloatEnv("TRAINING_ACCEPT_THRESHOLD", 0.85),
		RetrainThreshold:    getFloatEnv("TRAINING_RETRAIN_THRESHOLD", 0.70),
		DefaultEpochs:       getIntEnv("TRAINING_DEFAULT_EPOCHS", 10),
		RetrainEpochs:       getIntEnv("TRAINING_RETRAIN_EPOCHS", 15),
		StepDelayScale:      getFloatEnv("TRAINING_STEP_DELAY_SCALE", 1),
		LearningInterval:    getDuration("TRAINING_LEARNING_INTERVAL", 5*time.Second),
		TrainingEventsTopic: getEnv("TRAINING_EVENTS_TOPIC", "alpha.training.events"),

		PostgresEnabled:  getBoolEnv("POSTGRES_ENABLED", false),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "alpha"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "alpha123"),
		PostgresDB:       getEnv("POSTGRES_DB", "alpha"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		RedisEnabled:   getBoolEnv("REDIS_ENABLED", false),
		RedisHost:      getEnv("REDIS_HOST", "localhost"),
		RedisPort:      getEnv("REDIS_PORT", "6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisDB:        getIntEnv("REDIS_DB", 0),
		MemoryCacheTTL: getDuration("MEMORY_CACHE_TTL", time.Hour),

		KafkaEnabled: getBoolEnv("KAFKA_ENABLED", false),
		KafkaBrokers: getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
		KafkaGroupID: getEnv("KAFKA_GROUP_ID", "alpha-server"),
		EventAudit:   getBoolEnv("KAFKA_EVENT_AUDIT", false),

		LLMAPIKey:    getEnv("LLM_API_KEY", ""),
		LLMBaseURL:   getEnv("LLM_BASE_URL", "https://api.openai.com/v1"),
		LLMModelName: getEnv("LLM_MODEL_NAME", "gpt-4"),
		LLMTimeout:   getDuration("LLM_TIMEOUT", 30*time.Second),
		LLMRetries:   getIntEnv("LLM_RETRIES", 3),

		GitHubRepo:          getEnv("GITHUB_REPO", ""),
		GitHubToken:         getEnv("GITHUB_TOKEN", ""),
		BackupInterval:      getDuration("BACKUP_INTERVAL", time.Hour),
		BackupRetryInterval: getDuration("BACKUP_RETRY_INTERVAL", 5*time.Minute),
	}
	return cfg
}

// LoadFile returns the environment configuration with the YAML document at
// path applied on top of it. Keys absent from the file keep their env value.
func LoadFile(path string) (*Config, error) {
	cfg := Load()
	if path == "" {
		return cfg, nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(content, cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getStringSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				result = append(result, p)
			}
		}
		return result
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
