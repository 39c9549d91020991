package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/raine/glowscan-bot/internal/export"
	"github.com/raine/glowscan-bot/internal/glowscan"
)

const (
	AppName     = "glowscan-bot"
	EnvFileName = "config.env"

	defaultExportTimeout = 60 * time.Second
)

// Environment variable names.
const (
	EnvBotToken           = "BOT_TOKEN"
	EnvAPIURL             = "GLOWSCAN_API_URL"
	EnvRequestTimeout     = "GLOWSCAN_REQUEST_TIMEOUT"
	EnvChromePath         = "CHROME_PATH"
	EnvChromeNoSandbox    = "CHROME_NO_SANDBOX"
	EnvChromeAutoDownload = "CHROME_AUTO_DOWNLOAD"
	EnvExportTimeout      = "EXPORT_TIMEOUT"
)

// Config is the runtime configuration of the bot and the CLI.
type Config struct {
	BotToken string

	APIURL         string
	RequestTimeout time.Duration

	ChromePath         string
	ChromeNoSandbox    bool
	ChromeAutoDownload bool
	ExportTimeout      time.Duration
}

// Dir returns the application's config directory path. It is not created.
func Dir() (string, error) {
	configBase, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(configBase, AppName), nil
}

// FilePath returns the full path to the config file.
func FilePath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, EnvFileName), nil
}

// LoadEnvFile loads environment variables from the config file in the user's
// config directory. Errors are ignored since the file may not exist.
// Variables already set in the environment win.
func LoadEnvFile() {
	configPath, err := FilePath()
	if err != nil {
		return
	}
	_ = godotenv.Load(configPath)
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		BotToken:   strings.TrimSpace(os.Getenv(EnvBotToken)),
		APIURL:     strings.TrimSpace(os.Getenv(EnvAPIURL)),
		ChromePath: strings.TrimSpace(os.Getenv(EnvChromePath)),
	}
	if cfg.APIURL == "" {
		cfg.APIURL = glowscan.DefaultBaseURL
	}

	var err error
	if cfg.RequestTimeout, err = durationEnv(EnvRequestTimeout, 0); err != nil {
		return nil, err
	}
	if cfg.ExportTimeout, err = durationEnv(EnvExportTimeout, defaultExportTimeout); err != nil {
		return nil, err
	}
	if cfg.ChromeNoSandbox, err = boolEnv(EnvChromeNoSandbox); err != nil {
		return nil, err
	}
	if cfg.ChromeAutoDownload, err = boolEnv(EnvChromeAutoDownload); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MissingForBot returns the names of variables the bot cannot start without.
func (c *Config) MissingForBot() []string {
	var missing []string
	if c.BotToken == "" {
		missing = append(missing, EnvBotToken)
	}
	return missing
}

// GlowScan returns the service client configuration.
func (c *Config) GlowScan(userAgent string) glowscan.Config {
	return glowscan.Config{
		BaseURL:   c.APIURL,
		Timeout:   c.RequestTimeout,
		UserAgent: userAgent,
	}
}

// ExportOptions returns the renderer options matching the configuration.
func (c *Config) ExportOptions() []export.Option {
	opts := []export.Option{export.WithTimeout(c.ExportTimeout)}
	if c.ChromePath != "" {
		opts = append(opts, export.WithChromePath(c.ChromePath))
	}
	if c.ChromeNoSandbox {
		opts = append(opts, export.WithNoSandbox())
	}
	if c.ChromeAutoDownload {
		opts = append(opts, export.WithAutoDownload())
	}
	return opts
}

func durationEnv(name string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration like 30s: %w", name, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative", name)
	}
	return d, nil
}

func boolEnv(name string) (bool, error) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be true or false: %w", name, err)
	}
	return b, nil
}
