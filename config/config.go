package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"seloger-notifier/models"
)

// Store backends accepted by STORE_BACKEND.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Classifier backends accepted by CLASSIFIER.
const (
	ClassifierOpenAI = "openai"
	ClassifierCohere = "cohere"
)

// Config holds all application configuration loaded from environment variables.
// It is built once in main and handed to every component that needs it.
type Config struct {
	StoreBackend  string
	StateDir      string
	ProcessedFile string
	ResultsFile   string
	ImageDir      string
	CriteriaPath  string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	ChromeBin   string
	PageTimeout time.Duration
	SettleDelay time.Duration
	RateLimitMs int
	MaxRetries  int
	PageSize    int

	Classifier   string
	OpenAIAPIKey string
	OpenAIModel  string
	CohereAPIKey string
	CohereModel  string

	TelegramBotToken string
	TelegramChatID   string
	NotifyMaxRetries int
	NotifyRetryDelay time.Duration

	ProcessedFlushEvery int
	RunInterval         time.Duration
	MetricsAddr         string
	LogLevel            string
	ExportCSV           string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		StoreBackend:  strings.ToLower(getEnv("STORE_BACKEND", BackendFile)),
		StateDir:      getEnv("STATE_DIR", "."),
		ProcessedFile: getEnv("PROCESSED_FILE", "processed_ids.json"),
		ResultsFile:   getEnv("RESULTS_FILE", "results.json"),
		ImageDir:      getEnv("IMAGE_DIR", "img"),
		CriteriaPath:  getEnv("CRITERIA_PATH", "criteria.yaml"),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "seloger"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "seloger"),
		PostgresDB:       getEnv("POSTGRES_DB", "seloger"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		RedisPrefix:   getEnv("REDIS_PREFIX", "seloger:"),

		ChromeBin:   getEnv("CHROME_BIN", ""),
		PageTimeout: getEnvDuration("PAGE_TIMEOUT", 60*time.Second),
		SettleDelay: getEnvDuration("SETTLE_DELAY", 3*time.Second),
		RateLimitMs: getEnvInt("RATE_LIMIT_MS", 2000),
		MaxRetries:  getEnvInt("MAX_RETRIES", 3),
		PageSize:    getEnvInt("PAGE_SIZE", 25),

		Classifier:   strings.ToLower(getEnv("CLASSIFIER", ClassifierOpenAI)),
		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:  getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		CohereAPIKey: getEnv("COHERE_API_KEY", ""),
		CohereModel:  getEnv("COHERE_MODEL", "command-r"),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnv("TELEGRAM_CHAT_ID", ""),
		NotifyMaxRetries: getEnvInt("NOTIFY_MAX_RETRIES", 5),
		NotifyRetryDelay: getEnvDuration("NOTIFY_RETRY_DELAY", 5*time.Second),

		ProcessedFlushEvery: getEnvInt("PROCESSED_FLUSH_EVERY", 0),
		RunInterval:         getEnvDuration("RUN_INTERVAL", 0),
		MetricsAddr:         getEnv("METRICS_ADDR", ""),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		ExportCSV:           getEnv("EXPORT_CSV", ""),
	}
}

// Validate reports the first setting that would make a run impossible.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendFile, BackendPostgres, BackendRedis:
	default:
		return fmt.Errorf("config: unknown STORE_BACKEND %q", c.StoreBackend)
	}
	switch c.Classifier {
	case ClassifierOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("config: OPENAI_API_KEY is required for the openai classifier")
		}
	case ClassifierCohere:
		if c.CohereAPIKey == "" {
			return fmt.Errorf("config: COHERE_API_KEY is required for the cohere classifier")
		}
	default:
		return fmt.Errorf("config: unknown CLASSIFIER %q", c.Classifier)
	}
	if c.TelegramBotToken == "" || c.TelegramChatID == "" {
		return fmt.Errorf("config: TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID are required")
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("config: PAGE_SIZE must be positive, got %d", c.PageSize)
	}
	return nil
}

// ProcessedPath is the location of the processed-id file for the file backend.
func (c *Config) ProcessedPath() string {
	return filepath.Join(c.StateDir, c.ProcessedFile)
}

// ResultsPath is the location of the record map file for the file backend.
func (c *Config) ResultsPath() string {
	return filepath.Join(c.StateDir, c.ResultsFile)
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

// LoadCriteria decodes the YAML search criteria file at path.
func LoadCriteria(path string) (models.SearchCriteria, error) {
	var sc models.SearchCriteria
	data, err := os.ReadFile(path)
	if err != nil {
		return sc, fmt.Errorf("config: read criteria: %w", err)
	}
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return sc, fmt.Errorf("config: parse criteria %s: %w", path, err)
	}
	if len(sc.InseeCodes) == 0 {
		return sc, fmt.Errorf("config: criteria %s: insee_codes must not be empty", path)
	}
	return sc, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

// getEnvDuration accepts Go durations ("90s", "1h") or a bare number of seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	if n, err := strconv.Atoi(val); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}
