package cfg

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

var allKeys = []string{
	"CONFIG_FILE", "DEBUG", "HOST", "PORT", "LOG_LEVEL", "LOG_FORMAT",
	"ARTIFACT_SOURCE", "MODEL_PATH", "FEATURES_PATH", "DATA_PATH",
	"MODEL_LOAD_TIMEOUT", "REQUEST_TIMEOUT", "ALLOWED_ORIGINS",
}

// clearEnv blanks every setting so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
	}
}

func TestLoadFromEnv(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		wantErr  bool
		validate func(t *testing.T, settings Settings)
	}{
		{
			name:    "defaults",
			envVars: map[string]string{},
			validate: func(t *testing.T, s Settings) {
				if s.Addr() != "0.0.0.0:5000" {
					t.Errorf("expected default addr 0.0.0.0:5000, got %s", s.Addr())
				}
				if s.ArtifactSource != "file" {
					t.Errorf("expected file artifact source, got %s", s.ArtifactSource)
				}
				if s.ModelPath != "backend/model/sales_model.json" || s.FeaturesPath != "backend/model/features.json" {
					t.Errorf("unexpected default paths %s %s", s.ModelPath, s.FeaturesPath)
				}
				if s.LoadTimeout != 30*time.Second || s.RequestTimeout != 10*time.Second {
					t.Errorf("unexpected default timeouts %v %v", s.LoadTimeout, s.RequestTimeout)
				}
				if len(s.AllowedOrigins) != 1 || s.AllowedOrigins[0] != "*" {
					t.Errorf("expected wildcard origin, got %v", s.AllowedOrigins)
				}
				if s.Level() != zerolog.InfoLevel {
					t.Errorf("expected info level, got %v", s.Level())
				}
			},
		},
		{
			name: "custom settings",
			envVars: map[string]string{
				"HOST":               "127.0.0.1",
				"PORT":               "8081",
				"LOG_LEVEL":          "warn",
				"LOG_FORMAT":         "console",
				"ARTIFACT_SOURCE":    "store",
				"DATA_PATH":          "/var/lib/sales",
				"MODEL_LOAD_TIMEOUT": "5s",
				"REQUEST_TIMEOUT":    "2s",
				"ALLOWED_ORIGINS":    "https://a.example, https://b.example",
			},
			validate: func(t *testing.T, s Settings) {
				if s.Addr() != "127.0.0.1:8081" {
					t.Errorf("unexpected addr %s", s.Addr())
				}
				if s.ArtifactSource != "store" || s.DataPath != "/var/lib/sales" {
					t.Errorf("unexpected store settings %s %s", s.ArtifactSource, s.DataPath)
				}
				if s.LoadTimeout != 5*time.Second || s.RequestTimeout != 2*time.Second {
					t.Errorf("unexpected timeouts %v %v", s.LoadTimeout, s.RequestTimeout)
				}
				if len(s.AllowedOrigins) != 2 || s.AllowedOrigins[1] != "https://b.example" {
					t.Errorf("unexpected origins %v", s.AllowedOrigins)
				}
				if s.Level() != zerolog.WarnLevel {
					t.Errorf("expected warn level, got %v", s.Level())
				}
			},
		},
		{
			name:    "debug forces debug level",
			envVars: map[string]string{"DEBUG": "true", "LOG_LEVEL": "error"},
			validate: func(t *testing.T, s Settings) {
				if !s.Debug || s.Level() != zerolog.DebugLevel {
					t.Errorf("expected debug level, got %v", s.Level())
				}
			},
		},
		{
			name:    "unparseable values fall back to defaults",
			envVars: map[string]string{"PORT": "abc", "MODEL_LOAD_TIMEOUT": "soon"},
			validate: func(t *testing.T, s Settings) {
				if s.Port != 5000 || s.LoadTimeout != 30*time.Second {
					t.Errorf("expected defaults, got %d %v", s.Port, s.LoadTimeout)
				}
			},
		},
		{name: "port out of range", envVars: map[string]string{"PORT": "70000"}, wantErr: true},
		{name: "bad log level", envVars: map[string]string{"LOG_LEVEL": "loud"}, wantErr: true},
		{name: "bad log format", envVars: map[string]string{"LOG_FORMAT": "xml"}, wantErr: true},
		{name: "bad artifact source", envVars: map[string]string{"ARTIFACT_SOURCE": "s3"}, wantErr: true},
		{name: "request timeout too short", envVars: map[string]string{"REQUEST_TIMEOUT": "10ms"}, wantErr: true},
		{name: "origins only separators", envVars: map[string]string{"ALLOWED_ORIGINS": " , "}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			settings, err := Load()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Load() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && tt.validate != nil {
				tt.validate(t, settings)
			}
		})
	}
}

func TestLoadFromYAML(t *testing.T) {
	clearEnv(t)

	yaml := `
debug: false
server:
  host: 127.0.0.1
  port: 9000
  requestTimeout: 3s
  allowedOrigins: ["https://shop.example"]
log:
  level: debug
  format: console
model:
  source: file
  modelPath: /models/sales_model.json
  featuresPath: /models/features.yaml
  loadTimeout: 1m
storage:
  dataPath: /data
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "9100")

	s, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if s.Host != "127.0.0.1" {
		t.Errorf("expected host from YAML, got %s", s.Host)
	}
	if s.Port != 9100 {
		t.Errorf("expected environment to override YAML port, got %d", s.Port)
	}
	if s.ModelPath != "/models/sales_model.json" || s.FeaturesPath != "/models/features.yaml" {
		t.Errorf("unexpected paths %s %s", s.ModelPath, s.FeaturesPath)
	}
	if s.LoadTimeout != time.Minute || s.RequestTimeout != 3*time.Second {
		t.Errorf("unexpected timeouts %v %v", s.LoadTimeout, s.RequestTimeout)
	}
	if len(s.AllowedOrigins) != 1 || s.AllowedOrigins[0] != "https://shop.example" {
		t.Errorf("unexpected origins %v", s.AllowedOrigins)
	}
	if s.LogFormat != "console" || s.Level() != zerolog.DebugLevel {
		t.Errorf("unexpected log settings %s %v", s.LogFormat, s.Level())
	}
}

func TestLoadFromYAML_Errors(t *testing.T) {
	clearEnv(t)

	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "failed to read config file") {
		t.Errorf("expected read error, got %v", err)
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("server: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", bad)
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "failed to parse config file") {
		t.Errorf("expected parse error, got %v", err)
	}
}

func TestLoadDotenv(t *testing.T) {
	const key = "SALES_DOTENV_TEST_VALUE"
	const kept = "SALES_DOTENV_TEST_KEPT"
	t.Cleanup(func() {
		os.Unsetenv(key)
	})
	t.Setenv(kept, "from-env")

	path := filepath.Join(t.TempDir(), ".env")
	content := key + "=from-file\n" + kept + "=from-file\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := loadDotenv(path); err != nil {
		t.Fatalf("loadDotenv failed: %v", err)
	}
	if got := os.Getenv(key); got != "from-file" {
		t.Errorf("expected value from .env, got %q", got)
	}
	if got := os.Getenv(kept); got != "from-env" {
		t.Errorf("expected environment to win over .env, got %q", got)
	}

	if err := loadDotenv(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Errorf("missing .env must be ignored, got %v", err)
	}
}

func TestValidateSettings_StoreRequiresDataPath(t *testing.T) {
	s := Settings{
		Port:           5000,
		LogLevel:       "info",
		LogFormat:      "json",
		ArtifactSource: "store",
		LoadTimeout:    time.Second,
		RequestTimeout: time.Second,
		AllowedOrigins: []string{"*"},
	}
	if err := validateSettings(&s); err == nil {
		t.Error("expected error for store source without data path")
	}
	s.DataPath = "data"
	if err := validateSettings(&s); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
