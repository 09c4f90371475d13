// Package cfg loads service settings from a .env file, an optional YAML file
// named by CONFIG_FILE, and environment variables. Environment variables
// override YAML values.
package cfg

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"grocery-sales/internal/common"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

const (
	defaultDataPath       = "data"
	defaultLoadTimeout    = 30 * time.Second
	defaultRequestTimeout = 10 * time.Second
)

type Settings struct {
	Host           string
	Port           int
	Debug          bool
	LogLevel       string
	LogFormat      string
	ArtifactSource string
	ModelPath      string
	FeaturesPath   string
	DataPath       string
	LoadTimeout    time.Duration
	RequestTimeout time.Duration
	AllowedOrigins []string
}

type ConfigFile struct {
	Debug bool `yaml:"debug"`

	Server struct {
		Host           string   `yaml:"host"`
		Port           int      `yaml:"port"`
		RequestTimeout string   `yaml:"requestTimeout"`
		AllowedOrigins []string `yaml:"allowedOrigins"`
	} `yaml:"server"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`

	Model struct {
		Source       string `yaml:"source"`
		ModelPath    string `yaml:"modelPath"`
		FeaturesPath string `yaml:"featuresPath"`
		LoadTimeout  string `yaml:"loadTimeout"`
	} `yaml:"model"`

	Storage struct {
		DataPath string `yaml:"dataPath"`
	} `yaml:"storage"`
}

// Load reads .env from the working directory if present, then builds
// settings from CONFIG_FILE or the environment.
func Load() (Settings, error) {
	if err := loadDotenv(".env"); err != nil {
		return Settings{}, err
	}

	if configPath := os.Getenv(common.EnvConfigFile); configPath != "" {
		return loadFromYAML(configPath)
	}
	return loadFromEnv()
}

// Addr returns the host:port the server listens on.
func (s Settings) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// Level returns the parsed log level. Debug forces debug level.
func (s Settings) Level() zerolog.Level {
	if s.Debug {
		return zerolog.DebugLevel
	}
	lvl, err := zerolog.ParseLevel(s.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}

// loadDotenv sets variables from path without overriding the environment.
func loadDotenv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	loadTimeout, err := time.ParseDuration(config.Model.LoadTimeout)
	if err != nil {
		loadTimeout = defaultLoadTimeout
	}
	requestTimeout, err := time.ParseDuration(config.Server.RequestTimeout)
	if err != nil {
		requestTimeout = defaultRequestTimeout
	}

	settings := Settings{
		Host:           getEnvOrDefault(common.EnvHost, orDefault(config.Server.Host, common.DefaultHost)),
		Port:           getIntFromEnvOrConfig(common.EnvPort, config.Server.Port, common.DefaultPort),
		Debug:          getBoolFromEnvOrConfig(common.EnvDebug, config.Debug),
		LogLevel:       getEnvOrDefault(common.EnvLogLevel, orDefault(config.Log.Level, common.DefaultLogLevel)),
		LogFormat:      getEnvOrDefault(common.EnvLogFormat, orDefault(config.Log.Format, common.DefaultLogFormat)),
		ArtifactSource: getEnvOrDefault(common.EnvArtifactSource, orDefault(config.Model.Source, common.DefaultArtifactSource)),
		ModelPath:      getEnvOrDefault(common.EnvModelPath, orDefault(config.Model.ModelPath, common.DefaultModelPath)),
		FeaturesPath:   getEnvOrDefault(common.EnvFeaturesPath, orDefault(config.Model.FeaturesPath, common.DefaultFeaturesPath)),
		DataPath:       getEnvOrDefault(common.EnvDataPath, orDefault(config.Storage.DataPath, defaultDataPath)),
		LoadTimeout:    getDurationOrDefault(common.EnvLoadTimeout, loadTimeout),
		RequestTimeout: getDurationOrDefault(common.EnvRequestTimeout, requestTimeout),
		AllowedOrigins: getOriginsFromEnvOrConfig(config.Server.AllowedOrigins),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return settings, nil
}

func loadFromEnv() (Settings, error) {
	settings := Settings{
		Host:           getEnvOrDefault(common.EnvHost, common.DefaultHost),
		Port:           getIntOrDefault(common.EnvPort, common.DefaultPort),
		Debug:          getBoolOrDefault(common.EnvDebug, false),
		LogLevel:       getEnvOrDefault(common.EnvLogLevel, common.DefaultLogLevel),
		LogFormat:      getEnvOrDefault(common.EnvLogFormat, common.DefaultLogFormat),
		ArtifactSource: getEnvOrDefault(common.EnvArtifactSource, common.DefaultArtifactSource),
		ModelPath:      getEnvOrDefault(common.EnvModelPath, common.DefaultModelPath),
		FeaturesPath:   getEnvOrDefault(common.EnvFeaturesPath, common.DefaultFeaturesPath),
		DataPath:       getEnvOrDefault(common.EnvDataPath, defaultDataPath),
		LoadTimeout:    getDurationOrDefault(common.EnvLoadTimeout, defaultLoadTimeout),
		RequestTimeout: getDurationOrDefault(common.EnvRequestTimeout, defaultRequestTimeout),
		AllowedOrigins: splitOrDefault(os.Getenv(common.EnvAllowedOrigins), []string{common.DefaultAllowedOrigins}),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return settings, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

func splitOrDefault(v string, def []string) []string {
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getIntFromEnvOrConfig(key string, configValue, defaultValue int) int {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.Atoi(env); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return defaultValue
}

func getBoolFromEnvOrConfig(key string, configValue bool) bool {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.ParseBool(env); err == nil {
			return val
		}
	}
	return configValue
}

func getOriginsFromEnvOrConfig(configOrigins []string) []string {
	if env := os.Getenv(common.EnvAllowedOrigins); env != "" {
		return splitOrDefault(env, nil)
	}
	if len(configOrigins) > 0 {
		return configOrigins
	}
	return []string{common.DefaultAllowedOrigins}
}

// validateSettings checks ranges and cross-field requirements
func validateSettings(settings *Settings) error {
	if settings.Port < common.MinPort || settings.Port > common.MaxPort {
		return fmt.Errorf("port must be between %d and %d, got %d", common.MinPort, common.MaxPort, settings.Port)
	}

	if _, err := zerolog.ParseLevel(settings.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q", settings.LogLevel)
	}
	if settings.LogFormat != "json" && settings.LogFormat != "console" {
		return fmt.Errorf("log format must be json or console, got %q", settings.LogFormat)
	}

	switch settings.ArtifactSource {
	case common.ArtifactSourceFile:
		if settings.ModelPath == "" || settings.FeaturesPath == "" {
			return fmt.Errorf("model and features paths are required when artifact source is %q", common.ArtifactSourceFile)
		}
	case common.ArtifactSourceStore:
		if settings.DataPath == "" {
			return fmt.Errorf("data path is required when artifact source is %q", common.ArtifactSourceStore)
		}
	default:
		return fmt.Errorf("artifact source must be %q or %q, got %q", common.ArtifactSourceFile, common.ArtifactSourceStore, settings.ArtifactSource)
	}

	if settings.LoadTimeout <= 0 || settings.LoadTimeout > 10*time.Minute {
		return fmt.Errorf("model load timeout must be between 0 and 10m, got %v", settings.LoadTimeout)
	}
	if settings.RequestTimeout < time.Second || settings.RequestTimeout > 5*time.Minute {
		return fmt.Errorf("request timeout must be between 1s and 5m, got %v", settings.RequestTimeout)
	}

	if len(settings.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified")
	}
	return nil
}
