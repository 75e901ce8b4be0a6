// Package config provides centralized configuration management for promptlab.
// Values come from environment variables (optionally seeded from a .env file
// by the CLI) with defaults for everything except credentials.
package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"
)

// Config holds all configuration settings for promptlab
type Config struct {
	// Hosted model (OpenAI) settings
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	// Local model settings. LocalBackend is one of ollama, exec or llama.
	LocalBackend   string
	OllamaBaseURL  string
	OllamaModel    string
	LlamaModelPath string
	LlamaThreads   int
	LocalCommand   string

	// MaxTokens limits responses for every backend (0 means backend default).
	MaxTokens int

	// Memo settings. MemoStore is one of memory, sqlite or redis.
	MemoStore string
	MemoPath  string
	RedisAddr string

	// Web settings
	ListenAddr string
	SessionTTL int // minutes

	// Logging settings
	LogMode   string
	Verbose   bool
	DebugMode bool
}

var (
	globalConfig *Config
	configOnce   sync.Once
)

// Default values
const (
	DefaultOpenAIModel   = "gpt-3.5-turbo"
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	DefaultLocalBackend  = LocalOllama
	DefaultOllamaBaseURL = "http://localhost:11434/v1"
	DefaultOllamaModel   = "llama2"
	DefaultLlamaThreads  = 4
	DefaultLocalCommand  = "ollama run llama2"
	DefaultMemoStore     = MemoMemory
	DefaultMemoPath      = "promptlab_memo.db"
	DefaultListenAddr    = ":8501"
	DefaultSessionTTL    = 1440
	DefaultLogMode       = "dev"
)

// Local backends
const (
	LocalOllama = "ollama"
	LocalExec   = "exec"
	LocalLlama  = "llama"
)

// Memo stores
const (
	MemoMemory = "memory"
	MemoSQLite = "sqlite"
	MemoRedis  = "redis"
)

// Get returns the global configuration, loading from environment if not already loaded
func Get() *Config {
	configOnce.Do(func() {
		globalConfig = loadFromEnv()
	})
	return globalConfig
}

// Reset clears the global configuration, forcing reload on next Get()
// This is primarily useful for testing
func Reset() {
	configOnce = sync.Once{}
	globalConfig = nil
}

// loadFromEnv loads configuration from environment variables
func loadFromEnv() *Config {
	return &Config{
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", DefaultOpenAIBaseURL),
		OpenAIModel:   getEnv("OPENAI_MODEL", DefaultOpenAIModel),

		LocalBackend:   getEnv("PROMPTLAB_LOCAL_BACKEND", DefaultLocalBackend),
		OllamaBaseURL:  getEnv("OLLAMA_BASE_URL", DefaultOllamaBaseURL),
		OllamaModel:    getEnv("OLLAMA_MODEL", DefaultOllamaModel),
		LlamaModelPath: getEnv("LLAMA_MODEL_PATH", ""),
		LlamaThreads:   getEnvInt("LLAMA_THREADS", DefaultLlamaThreads),
		LocalCommand:   getEnv("PROMPTLAB_LOCAL_COMMAND", DefaultLocalCommand),

		MaxTokens: getEnvInt("PROMPTLAB_MAX_TOKENS", 0),

		MemoStore: getEnv("PROMPTLAB_MEMO", DefaultMemoStore),
		MemoPath:  getEnv("PROMPTLAB_MEMO_PATH", DefaultMemoPath),
		RedisAddr: getEnv("REDIS_ADDR", ""),

		ListenAddr: getEnv("PROMPTLAB_ADDR", DefaultListenAddr),
		SessionTTL: getEnvInt("PROMPTLAB_SESSION_TTL", DefaultSessionTTL),

		LogMode:   getEnv("PROMPTLAB_LOG_MODE", DefaultLogMode),
		Verbose:   getEnvBool("PROMPTLAB_VERBOSE", false),
		DebugMode: getEnvBool("PROMPTLAB_DEBUG", false),
	}
}

// NewConfig creates a new configuration with custom values
// This is useful for testing or programmatic configuration
func NewConfig() *Config {
	return &Config{
		OpenAIBaseURL: DefaultOpenAIBaseURL,
		OpenAIModel:   DefaultOpenAIModel,
		LocalBackend:  DefaultLocalBackend,
		OllamaBaseURL: DefaultOllamaBaseURL,
		OllamaModel:   DefaultOllamaModel,
		LlamaThreads:  DefaultLlamaThreads,
		LocalCommand:  DefaultLocalCommand,
		MemoStore:     DefaultMemoStore,
		MemoPath:      DefaultMemoPath,
		ListenAddr:    DefaultListenAddr,
		SessionTTL:    DefaultSessionTTL,
		LogMode:       DefaultLogMode,
	}
}

// WithOpenAI configures OpenAI settings
func (c *Config) WithOpenAI(apiKey, baseURL, model string) *Config {
	c.OpenAIAPIKey = apiKey
	if baseURL != "" {
		c.OpenAIBaseURL = baseURL
	}
	if model != "" {
		c.OpenAIModel = model
	}
	return c
}

// WithOllama selects the Ollama local backend
func (c *Config) WithOllama(baseURL, model string) *Config {
	c.LocalBackend = LocalOllama
	if baseURL != "" {
		c.OllamaBaseURL = baseURL
	}
	if model != "" {
		c.OllamaModel = model
	}
	return c
}

// WithLlama selects the in-process llama backend
func (c *Config) WithLlama(modelPath string, threads int) *Config {
	c.LocalBackend = LocalLlama
	c.LlamaModelPath = modelPath
	if threads > 0 {
		c.LlamaThreads = threads
	}
	return c
}

// WithLocalCommand selects the exec local backend
func (c *Config) WithLocalCommand(command string) *Config {
	c.LocalBackend = LocalExec
	if command != "" {
		c.LocalCommand = command
	}
	return c
}

// WithMemo configures the memo store. path is the SQLite file or the Redis
// address, depending on store.
func (c *Config) WithMemo(store, path string) *Config {
	c.MemoStore = store
	switch store {
	case MemoSQLite:
		if path != "" {
			c.MemoPath = path
		}
	case MemoRedis:
		c.RedisAddr = path
	}
	return c
}

// WithListenAddr sets the web server address
func (c *Config) WithListenAddr(addr string) *Config {
	if addr != "" {
		c.ListenAddr = addr
	}
	return c
}

// WithDebug enables debug and verbose modes
func (c *Config) WithDebug(debug, verbose bool) *Config {
	c.DebugMode = debug
	c.Verbose = verbose
	return c
}

// SessionIdle returns SessionTTL as a duration.
func (c *Config) SessionIdle() time.Duration {
	return time.Duration(c.SessionTTL) * time.Minute
}

// Validate checks if the configuration is valid for the intended use
func (c *Config) Validate() error {
	switch c.LocalBackend {
	case LocalOllama, LocalExec:
	case LocalLlama:
		if c.LlamaModelPath == "" {
			return fmt.Errorf("local backend %q requires LLAMA_MODEL_PATH", c.LocalBackend)
		}
	default:
		return fmt.Errorf("unknown local backend %q (want %s, %s or %s)", c.LocalBackend, LocalOllama, LocalExec, LocalLlama)
	}

	switch c.MemoStore {
	case MemoMemory, MemoSQLite:
	case MemoRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("memo store %q requires REDIS_ADDR", c.MemoStore)
		}
	default:
		return fmt.Errorf("unknown memo store %q (want %s, %s or %s)", c.MemoStore, MemoMemory, MemoSQLite, MemoRedis)
	}

	if c.SessionTTL <= 0 {
		return fmt.Errorf("session TTL must be positive, got %d", c.SessionTTL)
	}
	if c.MaxTokens < 0 {
		return fmt.Errorf("max tokens must not be negative, got %d", c.MaxTokens)
	}
	return nil
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
