package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"court-order-server/internal/domain"

	"github.com/pelletier/go-toml/v2"
)

const (
	defaultMaxFileSize        int64 = 100 * 1024 * 1024
	defaultMaxExtractFileSize int64 = 50 * 1024 * 1024
)

// EngineConfig locates the external worker scripts.
type EngineConfig struct {
	Executable       string `toml:"executable"`
	ScriptsDir       string `toml:"scripts_dir"`
	ProcessScript    string `toml:"process_script"`
	CompleteScript   string `toml:"complete_script"`
	ExtractScript    string `toml:"extract_script"`
	ChatScript       string `toml:"chat_script"`
	ProcessTimeout   string `toml:"process_timeout"`
	ChatTimeout      string `toml:"chat_timeout"`
	ProgressInterval string `toml:"progress_interval"`
	LenientJSON      bool   `toml:"lenient_json"`
}

// AppConfig implements the domain.Config interface
type AppConfig struct {
	ServerPort         string       `toml:"server_port"`
	LogLevel           string       `toml:"log_level"`
	LogFormat          string       `toml:"log_format"`
	StagingDir         string       `toml:"staging_dir"`
	MaxFileSize        int64        `toml:"max_file_size"`
	MaxExtractFileSize int64        `toml:"max_extract_file_size"`
	AllowedOrigins     []string     `toml:"allowed_origins"`
	Engine             EngineConfig `toml:"engine"`

	processTimeout   time.Duration
	chatTimeout      time.Duration
	progressInterval time.Duration
}

// NewConfig creates a configuration from defaults overridden by environment variables
func NewConfig() domain.Config {
	cfg := defaultConfig()
	cfg.applyEnv()
	cfg.resolveDurations()
	return cfg
}

// LoadConfig layers defaults, the TOML file at path (if any) and environment
// variables, in that order of increasing priority.
func LoadConfig(path string) (*AppConfig, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	cfg.resolveDurations()
	return cfg, nil
}

func defaultConfig() *AppConfig {
	return &AppConfig{
		ServerPort:         "8080",
		LogLevel:           "info",
		LogFormat:          "json",
		StagingDir:         filepath.Join(os.TempDir(), "court-order-staging"),
		MaxFileSize:        defaultMaxFileSize,
		MaxExtractFileSize: defaultMaxExtractFileSize,
		AllowedOrigins: []string{
			"http://localhost:3000",
			"http://localhost:5173",
		},
		Engine: EngineConfig{
			Executable:       "python3",
			ScriptsDir:       "./scripts",
			ProcessScript:    "document_processor.py",
			CompleteScript:   "clean_processor.py",
			ExtractScript:    "extract_text.py",
			ChatScript:       "chat_handler_working.py",
			ProcessTimeout:   "10m",
			ChatTimeout:      "30s",
			ProgressInterval: "800ms",
		},
	}
}

func (c *AppConfig) applyEnv() {
	// Cloud Run (and many PaaS) provide the listening port via PORT.
	// Keep SERVER_PORT for local/dev compatibility.
	c.ServerPort = getEnvOrDefault("PORT", getEnvOrDefault("SERVER_PORT", c.ServerPort))
	c.LogLevel = getEnvOrDefault("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnvOrDefault("LOG_FORMAT", c.LogFormat)
	c.StagingDir = getEnvOrDefault("STAGING_DIR", c.StagingDir)
	c.MaxFileSize = getEnvInt64OrDefault("MAX_FILE_SIZE", c.MaxFileSize)
	c.MaxExtractFileSize = getEnvInt64OrDefault("MAX_PDF_EXTRACT_SIZE", c.MaxExtractFileSize)
	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		c.AllowedOrigins = splitList(origins)
	}

	c.Engine.Executable = getEnvOrDefault("ENGINE_PYTHON", c.Engine.Executable)
	c.Engine.ScriptsDir = getEnvOrDefault("ENGINE_SCRIPTS_DIR", c.Engine.ScriptsDir)
	c.Engine.ProcessScript = getEnvOrDefault("PROCESS_SCRIPT", c.Engine.ProcessScript)
	c.Engine.CompleteScript = getEnvOrDefault("COMPLETE_SCRIPT", c.Engine.CompleteScript)
	c.Engine.ExtractScript = getEnvOrDefault("EXTRACT_SCRIPT", c.Engine.ExtractScript)
	c.Engine.ChatScript = getEnvOrDefault("CHAT_SCRIPT", c.Engine.ChatScript)
	c.Engine.ProcessTimeout = getEnvOrDefault("PROCESS_TIMEOUT", c.Engine.ProcessTimeout)
	c.Engine.ChatTimeout = getEnvOrDefault("CHAT_TIMEOUT", c.Engine.ChatTimeout)
	c.Engine.ProgressInterval = getEnvOrDefault("PROGRESS_INTERVAL", c.Engine.ProgressInterval)
	c.Engine.LenientJSON = getEnvBoolOrDefault("ENGINE_LENIENT_JSON", c.Engine.LenientJSON)
}

func (c *AppConfig) resolveDurations() {
	c.processTimeout = parseDurationOrDefault(c.Engine.ProcessTimeout, 10*time.Minute)
	c.chatTimeout = parseDurationOrDefault(c.Engine.ChatTimeout, 30*time.Second)
	c.progressInterval = parseDurationOrDefault(c.Engine.ProgressInterval, 800*time.Millisecond)
}

// GetServerPort returns the server port
func (c *AppConfig) GetServerPort() string {
	return c.ServerPort
}

// GetLogLevel returns the logging level
func (c *AppConfig) GetLogLevel() string {
	return c.LogLevel
}

// GetLogFormat returns "json" or "console"
func (c *AppConfig) GetLogFormat() string {
	return c.LogFormat
}

// GetStagingDir returns the directory uploads are staged in for the engine
func (c *AppConfig) GetStagingDir() string {
	return c.StagingDir
}

// GetMaxFileSize returns the maximum allowed upload size for processing
func (c *AppConfig) GetMaxFileSize() int64 {
	return c.MaxFileSize
}

// GetMaxExtractFileSize returns the maximum allowed upload size for text extraction
func (c *AppConfig) GetMaxExtractFileSize() int64 {
	return c.MaxExtractFileSize
}

// GetEngineExecutable returns the interpreter used to run engine scripts
func (c *AppConfig) GetEngineExecutable() string {
	return c.Engine.Executable
}

// GetEngineScript returns the script path for a pipeline variant
func (c *AppConfig) GetEngineScript(variant domain.PipelineVariant) string {
	switch variant {
	case domain.PipelineComplete:
		return c.scriptPath(c.Engine.CompleteScript)
	case domain.PipelineExtract:
		return c.scriptPath(c.Engine.ExtractScript)
	default:
		return c.scriptPath(c.Engine.ProcessScript)
	}
}

// GetChatScript returns the chat engine script path
func (c *AppConfig) GetChatScript() string {
	return c.scriptPath(c.Engine.ChatScript)
}

// GetProcessTimeout returns the deadline for document processing runs
func (c *AppConfig) GetProcessTimeout() time.Duration {
	return c.processTimeout
}

// GetChatTimeout returns the deadline for chat runs
func (c *AppConfig) GetChatTimeout() time.Duration {
	return c.chatTimeout
}

// GetProgressInterval returns the spacing of simulated progress steps
func (c *AppConfig) GetProgressInterval() time.Duration {
	return c.progressInterval
}

// GetLenientEngineJSON reports whether JSON may be salvaged from noisy engine stdout
func (c *AppConfig) GetLenientEngineJSON() bool {
	return c.Engine.LenientJSON
}

// GetAllowedOrigins returns the CORS allow-list
func (c *AppConfig) GetAllowedOrigins() []string {
	return c.AllowedOrigins
}

func (c *AppConfig) scriptPath(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Engine.ScriptsDir, name)
}

// Helper functions for environment variable handling
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func parseDurationOrDefault(value string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
