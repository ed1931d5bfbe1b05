package config

import (
	"strings"
	"testing"
	"time"
)

// clearEnv blanks every variable Load reads so host settings cannot leak into tests.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"SERVER_HOST", "SERVER_PORT", "PORT", "SERVER_READ_TIMEOUT",
		"UPLOAD_MAX_FILE_SIZE", "UPLOAD_MAX_CONCURRENT", "UPLOAD_MAX_WAIT_TIME",
		"EXPORT_MAX_ROWS", "EXPORT_FORMAT", "EXPORT_COMPRESSION_LEVEL",
		"EXPORT_COUNTRY_CODES", "EXPORT_LOCAL_PREFIX",
		"SCRATCH_DIR", "SCRATCH_CLEANUP_DELAY", "SCRATCH_SWEEP_INTERVAL",
		"RATE_LIMIT_ENABLED", "TRUSTED_PROXIES", "REQUIRE_API_KEY", "API_KEYS",
		"LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(name, "")
	}
}

func validConfig() *Config {
	return &Config{
		Server:  ServerConfig{Port: 8080, ShutdownTimeout: time.Second, RequestTimeout: time.Second},
		Upload:  UploadConfig{MaxFileSize: 1, MaxConcurrent: 1, MaxWaitTime: time.Second},
		Export:  ExportConfig{MaxRows: 240, Format: "xlsx", CompressionLevel: 6, CountryCodes: []string{"20:12"}},
		Scratch: ScratchConfig{CleanupDelay: time.Second, SweepInterval: time.Minute},
		Rate:    RateLimitConfig{Enabled: true, RequestsPerMinute: 100, UploadLimit: 10},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "0.0.0.0")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 8080)
	}
	if cfg.Upload.MaxConcurrent != 5 {
		t.Errorf("Upload.MaxConcurrent = %d, want %d", cfg.Upload.MaxConcurrent, 5)
	}
	if cfg.Export.MaxRows != 240 {
		t.Errorf("Export.MaxRows = %d, want %d", cfg.Export.MaxRows, 240)
	}
	if cfg.Export.Format != "xlsx" {
		t.Errorf("Export.Format = %q, want %q", cfg.Export.Format, "xlsx")
	}
	if len(cfg.Export.CountryCodes) != 9 {
		t.Errorf("Export.CountryCodes has %d entries, want 9", len(cfg.Export.CountryCodes))
	}
	if cfg.Scratch.CleanupDelay != 10*time.Second {
		t.Errorf("Scratch.CleanupDelay = %v, want %v", cfg.Scratch.CleanupDelay, 10*time.Second)
	}
	if !strings.HasSuffix(cfg.Scratch.ScratchRoot(), "clientclean") {
		t.Errorf("ScratchRoot() = %q, want a clientclean directory", cfg.Scratch.ScratchRoot())
	}
}

func TestLoad_OverrideDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("EXPORT_MAX_ROWS", "500")
	t.Setenv("EXPORT_FORMAT", "csv")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SCRATCH_DIR", "/var/tmp/cc")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 9090)
	}
	if cfg.Export.MaxRows != 500 {
		t.Errorf("Export.MaxRows = %d, want %d", cfg.Export.MaxRows, 500)
	}
	if cfg.Export.Format != "csv" {
		t.Errorf("Export.Format = %q, want %q", cfg.Export.Format, "csv")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
	if cfg.Scratch.ScratchRoot() != "/var/tmp/cc" {
		t.Errorf("ScratchRoot() = %q, want %q", cfg.Scratch.ScratchRoot(), "/var/tmp/cc")
	}
}

func TestLoad_AltEnvVar(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "5000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 5000 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 5000)
	}
}

func TestLoad_Duration(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVER_READ_TIMEOUT", "45s")
	t.Setenv("UPLOAD_MAX_WAIT_TIME", "1m30s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.ReadTimeout != 45*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want %v", cfg.Server.ReadTimeout, 45*time.Second)
	}
	if cfg.Upload.MaxWaitTime != 90*time.Second {
		t.Errorf("Upload.MaxWaitTime = %v, want %v", cfg.Upload.MaxWaitTime, 90*time.Second)
	}
}

func TestLoad_InvalidValue(t *testing.T) {
	clearEnv(t)
	t.Setenv("EXPORT_MAX_ROWS", "lots")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() expected error for non-numeric EXPORT_MAX_ROWS")
	}
	if !strings.Contains(err.Error(), "EXPORT_MAX_ROWS") {
		t.Errorf("error should mention EXPORT_MAX_ROWS: %v", err)
	}
}

func TestLoad_CommaSeparatedSlice(t *testing.T) {
	clearEnv(t)
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 172.16.0.0/12 , 192.168.0.0/16")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	expected := []string{"10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"}
	if len(cfg.Security.TrustedProxies) != len(expected) {
		t.Fatalf("TrustedProxies length = %d, want %d", len(cfg.Security.TrustedProxies), len(expected))
	}
	for i, v := range expected {
		if cfg.Security.TrustedProxies[i] != v {
			t.Errorf("TrustedProxies[%d] = %q, want %q", i, cfg.Security.TrustedProxies[i], v)
		}
	}
}

func TestLoad_CountryCodes(t *testing.T) {
	clearEnv(t)
	t.Setenv("EXPORT_COUNTRY_CODES", "966:12, 20:12")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	table, err := cfg.Export.Table()
	if err != nil {
		t.Fatalf("Table() error = %v", err)
	}
	entries := table.Entries()
	if len(entries) != 2 || entries[0].Prefix != "966" || entries[1].Prefix != "20" {
		t.Errorf("entries = %v, want 966 then 20", entries)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantVar string
	}{
		{name: "invalid port", mutate: func(c *Config) { c.Server.Port = 99999 }, wantVar: "SERVER_PORT"},
		{name: "zero request timeout", mutate: func(c *Config) { c.Server.RequestTimeout = 0 }, wantVar: "SERVER_REQUEST_TIMEOUT"},
		{name: "zero max rows", mutate: func(c *Config) { c.Export.MaxRows = 0 }, wantVar: "EXPORT_MAX_ROWS"},
		{name: "unknown format", mutate: func(c *Config) { c.Export.Format = "ods" }, wantVar: "EXPORT_FORMAT"},
		{name: "compression out of range", mutate: func(c *Config) { c.Export.CompressionLevel = 12 }, wantVar: "EXPORT_COMPRESSION_LEVEL"},
		{name: "overlapping codes", mutate: func(c *Config) { c.Export.CountryCodes = []string{"20:12", "20:11"} }, wantVar: "EXPORT_COUNTRY_CODES"},
		{name: "malformed code", mutate: func(c *Config) { c.Export.CountryCodes = []string{"twenty"} }, wantVar: "EXPORT_COUNTRY_CODES"},
		{name: "zero cleanup delay", mutate: func(c *Config) { c.Scratch.CleanupDelay = 0 }, wantVar: "SCRATCH_CLEANUP_DELAY"},
		{name: "auth without keys", mutate: func(c *Config) { c.Security.RequireAPIKey = true }, wantVar: "API_KEYS"},
		{name: "invalid log level", mutate: func(c *Config) { c.Logging.Level = "verbose" }, wantVar: "LOG_LEVEL"},
	}

	if err := validConfig().Validate(); err != nil {
		t.Fatalf("baseline config invalid: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() expected error")
			}
			if !strings.Contains(err.Error(), tt.wantVar) {
				t.Errorf("error should mention %s: %v", tt.wantVar, err)
			}
		})
	}
}

func TestServerAddr(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{"", 8080, ":8080"},
		{"0.0.0.0", 8080, "0.0.0.0:8080"},
		{"127.0.0.1", 3000, "127.0.0.1:3000"},
	}

	for _, tt := range tests {
		cfg := &ServerConfig{Host: tt.host, Port: tt.port}
		if got := cfg.Addr(); got != tt.want {
			t.Errorf("Addr() with host=%q, port=%d = %q, want %q", tt.host, tt.port, got, tt.want)
		}
	}
}

func TestConfigString_MasksAPIKeys(t *testing.T) {
	cfg := validConfig()
	cfg.Security.APIKeys = []string{"super-secret-key"}

	str := cfg.String()
	if strings.Contains(str, "super-secret-key") {
		t.Error("String() should mask API keys")
	}
	if !strings.Contains(str, "MASKED") {
		t.Error("String() should contain MASKED placeholder")
	}
}
