package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/anatolykoptev/go-kit/env"
	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	LLM     LLMConfig     `toml:"llm"`
	YouTube YouTubeConfig `toml:"youtube"`
	Index   IndexConfig   `toml:"index"`
	Worker  WorkerConfig  `toml:"worker"`
	Cache   CacheConfig   `toml:"cache"`
	Log     LogConfig     `toml:"log"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host            string        `toml:"host"`
	Port            int           `toml:"port"`
	ReadTimeout     time.Duration `toml:"read_timeout"`
	WriteTimeout    time.Duration `toml:"write_timeout"`
	IdleTimeout     time.Duration `toml:"idle_timeout"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
	DebugRoutes     bool          `toml:"debug_routes"`
	CORSOrigins     []string      `toml:"cors_origins"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LLMConfig holds the chat and embedding endpoint settings.
type LLMConfig struct {
	APIBase              string        `toml:"api_base"`
	APIKey               string        `toml:"api_key"`
	Model                string        `toml:"model"`
	EmbeddingModel       string        `toml:"embedding_model"`
	AnswerTemperature    float64       `toml:"answer_temperature"`
	TranslateTemperature float64       `toml:"translate_temperature"`
	MaxTokens            int           `toml:"max_tokens"`
	Timeout              time.Duration `toml:"timeout"`
}

// YouTubeConfig holds transcript acquisition settings.
type YouTubeConfig struct {
	Languages         []string       `toml:"languages"`
	RequestTimeout    time.Duration  `toml:"request_timeout"`
	RequestsPerSecond float64        `toml:"requests_per_second"`
	Command           *CommandConfig `toml:"command"`
}

// CommandConfig configures the external-command transcript fallback.
// Args may contain {url} and {id} placeholders.
type CommandConfig struct {
	Command string        `toml:"command"`
	Args    []string      `toml:"args"`
	Timeout time.Duration `toml:"timeout"`
}

// IndexConfig holds chunking and retrieval settings.
type IndexConfig struct {
	ChunkSize    int     `toml:"chunk_size"`
	ChunkOverlap int     `toml:"chunk_overlap"`
	K            int     `toml:"k"`
	FetchK       int     `toml:"fetch_k"`
	Lambda       float64 `toml:"lambda"`
	BatchSize    int     `toml:"batch_size"`
}

// WorkerConfig sizes the background build pool.
type WorkerConfig struct {
	Count     int `toml:"count"`
	QueueSize int `toml:"queue_size"`
}

// CacheConfig selects and configures the transcript cache.
type CacheConfig struct {
	Backend  string        `toml:"backend"`
	Path     string        `toml:"path"`
	RedisURL string        `toml:"redis_url"`
	TTL      time.Duration `toml:"ttl"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// DefaultConfigPath returns the config file path using XDG_CONFIG_HOME.
func DefaultConfigPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, _ := os.UserHomeDir()
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "vidrag", "config.toml")
}

// DefaultCachePath returns the transcript cache path using XDG_CACHE_HOME.
func DefaultCachePath() string {
	cacheDir := os.Getenv("XDG_CACHE_HOME")
	if cacheDir == "" {
		home, _ := os.UserHomeDir()
		cacheDir = filepath.Join(home, ".cache")
	}
	return filepath.Join(cacheDir, "vidrag", "transcripts.db")
}

// ExpandPath expands ~ to home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8000,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    120 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			DebugRoutes:     true,
			CORSOrigins:     []string{"*"},
		},
		LLM: LLMConfig{
			APIBase:              "https://generativelanguage.googleapis.com/v1beta/openai",
			Model:                "gemini-2.0-flash",
			EmbeddingModel:       "text-embedding-004",
			AnswerTemperature:    0.2,
			TranslateTemperature: 0,
			MaxTokens:            8192,
			Timeout:              90 * time.Second,
		},
		YouTube: YouTubeConfig{
			Languages:         []string{"en", "hi"},
			RequestTimeout:    20 * time.Second,
			RequestsPerSecond: 5,
		},
		Index: IndexConfig{
			ChunkSize:    800,
			ChunkOverlap: 100,
			K:            6,
			FetchK:       12,
			Lambda:       0.5,
			BatchSize:    100,
		},
		Worker: WorkerConfig{
			Count:     2,
			QueueSize: 64,
		},
		Cache: CacheConfig{
			Backend: "sqlite",
			Path:    DefaultCachePath(),
			TTL:     7 * 24 * time.Hour,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads the configuration and validates it.
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read builds the configuration: defaults, then the TOML file at path,
// then .env, then the process environment. A missing file is not an error.
// The result is not validated.
func Read(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	// .env never overrides variables already set in the environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read .env: %w", err)
	}
	applyEnv(cfg)

	cfg.Cache.Path = ExpandPath(cfg.Cache.Path)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Server.Host = env.Str("VIDRAG_HOST", cfg.Server.Host)
	cfg.Server.Port = env.Int("VIDRAG_PORT", cfg.Server.Port)

	cfg.LLM.APIKey = env.Str("GOOGLE_API_KEY", cfg.LLM.APIKey)
	cfg.LLM.APIKey = env.Str("VIDRAG_LLM_API_KEY", cfg.LLM.APIKey)
	cfg.LLM.APIBase = env.Str("VIDRAG_LLM_API_BASE", cfg.LLM.APIBase)
	cfg.LLM.Model = env.Str("VIDRAG_LLM_MODEL", cfg.LLM.Model)
	cfg.LLM.EmbeddingModel = env.Str("VIDRAG_EMBEDDING_MODEL", cfg.LLM.EmbeddingModel)

	cfg.YouTube.Languages = env.List("VIDRAG_LANGUAGES", strings.Join(cfg.YouTube.Languages, ","))

	cfg.Worker.Count = env.Int("VIDRAG_WORKERS", cfg.Worker.Count)

	cfg.Cache.Backend = env.Str("VIDRAG_CACHE_BACKEND", cfg.Cache.Backend)
	cfg.Cache.Path = env.Str("VIDRAG_CACHE_PATH", cfg.Cache.Path)
	cfg.Cache.RedisURL = env.Str("VIDRAG_REDIS_URL", cfg.Cache.RedisURL)

	cfg.Log.Level = env.Str("VIDRAG_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = env.Str("VIDRAG_LOG_FORMAT", cfg.Log.Format)
}

// Validate reports the first configuration problem found.
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return errors.New("GOOGLE_API_KEY is not set")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Index.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive, got %d", c.Index.ChunkSize)
	}
	if c.Index.ChunkOverlap < 0 || c.Index.ChunkOverlap >= c.Index.ChunkSize {
		return fmt.Errorf("chunk_overlap must be in [0, chunk_size), got %d", c.Index.ChunkOverlap)
	}
	if c.Index.K <= 0 || c.Index.FetchK < c.Index.K {
		return fmt.Errorf("need 0 < k <= fetch_k, got k=%d fetch_k=%d", c.Index.K, c.Index.FetchK)
	}
	if c.Index.Lambda < 0 || c.Index.Lambda > 1 {
		return fmt.Errorf("lambda must be in [0, 1], got %g", c.Index.Lambda)
	}
	if c.Worker.Count <= 0 || c.Worker.QueueSize <= 0 {
		return errors.New("worker count and queue_size must be positive")
	}
	if len(c.YouTube.Languages) == 0 {
		return errors.New("at least one transcript language is required")
	}
	switch c.Cache.Backend {
	case "sqlite", "none":
	case "redis":
		if c.Cache.RedisURL == "" {
			return errors.New("cache backend redis requires redis_url")
		}
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	if cmd := c.YouTube.Command; cmd != nil && cmd.Command == "" {
		return errors.New("youtube.command requires a command")
	}
	return nil
}
