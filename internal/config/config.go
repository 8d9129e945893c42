package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultStreamURL      = "http://localhost:8000/stream.mp3"
	defaultStatsURL       = "http://localhost:8000/status-json.xsl"
	defaultMount          = "/stream.mp3"
	defaultAdminURL       = "http://localhost:8000/admin"
	defaultCoverLocalPath = "/usr/share/icecast2/web/cover.jpg"
	defaultCoverPublicURL = "http://localhost:8000/cover.jpg"
	defaultRecognizerURL  = "http://127.0.0.1:3737/recognize"
	defaultCaptureCommand = "ffmpeg"

	defaultCaptureSeconds     = 8
	defaultPollIntervalSec    = 30
	defaultIdleIntervalSec    = 15
	defaultSettleDelaySec     = 5
	defaultOverrideDebounceMS = 500
)

// Config holds the static configuration for the whole service. Values are
// resolved once at startup: hard defaults, then the optional YAML file named
// by VINYL_CONFIG, then VINYL_* environment overrides.
type Config struct {
	StreamURL      string
	StatsURL       string
	Mount          string
	AdminURL       string
	AdminUser      string
	AdminPassword  string
	CoverLocalPath string
	CoverPublicURL string
	RecognizerURL  string
	CaptureCommand string
	OverrideFile   string

	CaptureSeconds   int
	PollInterval     time.Duration
	IdleInterval     time.Duration
	SettleDelay      time.Duration
	OverrideDebounce time.Duration
}

type configYAML struct {
	StreamURL      string `yaml:"stream_url"`
	StatsURL       string `yaml:"stats_url"`
	Mount          string `yaml:"mount"`
	AdminURL       string `yaml:"admin_url"`
	AdminUser      string `yaml:"admin_user"`
	AdminPassword  string `yaml:"admin_password"`
	CoverLocalPath string `yaml:"cover_local_path"`
	CoverPublicURL string `yaml:"cover_public_url"`
	RecognizerURL  string `yaml:"recognizer_url"`
	CaptureCommand string `yaml:"capture_command"`
	OverrideFile   string `yaml:"override_file"`

	CaptureSeconds  int `yaml:"capture_seconds"`
	PollIntervalSec int `yaml:"poll_interval_seconds"`
	IdleIntervalSec int `yaml:"idle_interval_seconds"`
	SettleDelaySec  int `yaml:"settle_delay_seconds"`
}

// Load resolves the configuration from defaults, the optional YAML file and
// the environment.
func Load() (Config, error) {
	cfg := Config{
		StreamURL:        defaultStreamURL,
		StatsURL:         defaultStatsURL,
		Mount:            defaultMount,
		AdminURL:         defaultAdminURL,
		CoverLocalPath:   defaultCoverLocalPath,
		CoverPublicURL:   defaultCoverPublicURL,
		RecognizerURL:    defaultRecognizerURL,
		CaptureCommand:   defaultCaptureCommand,
		CaptureSeconds:   defaultCaptureSeconds,
		PollInterval:     defaultPollIntervalSec * time.Second,
		IdleInterval:     defaultIdleIntervalSec * time.Second,
		SettleDelay:      defaultSettleDelaySec * time.Second,
		OverrideDebounce: defaultOverrideDebounceMS * time.Millisecond,
	}

	if path := strings.TrimSpace(os.Getenv("VINYL_CONFIG")); path != "" {
		resolved, err := resolveConfigPath(path)
		if err != nil {
			return Config{}, err
		}
		data, err := os.ReadFile(resolved)
		if err != nil {
			return Config{}, err
		}
		var file configYAML
		if err := yaml.Unmarshal(data, &file); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", resolved, err)
		}
		applyFile(&cfg, file)
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyFile(cfg *Config, file configYAML) {
	setString(&cfg.StreamURL, file.StreamURL)
	setString(&cfg.StatsURL, file.StatsURL)
	setString(&cfg.Mount, file.Mount)
	setString(&cfg.AdminURL, file.AdminURL)
	setString(&cfg.AdminUser, file.AdminUser)
	setString(&cfg.AdminPassword, file.AdminPassword)
	setString(&cfg.CoverLocalPath, file.CoverLocalPath)
	setString(&cfg.CoverPublicURL, file.CoverPublicURL)
	setString(&cfg.RecognizerURL, file.RecognizerURL)
	setString(&cfg.CaptureCommand, file.CaptureCommand)
	setString(&cfg.OverrideFile, file.OverrideFile)

	if file.CaptureSeconds > 0 {
		cfg.CaptureSeconds = file.CaptureSeconds
	}
	if file.PollIntervalSec > 0 {
		cfg.PollInterval = time.Duration(file.PollIntervalSec) * time.Second
	}
	if file.IdleIntervalSec > 0 {
		cfg.IdleInterval = time.Duration(file.IdleIntervalSec) * time.Second
	}
	if file.SettleDelaySec > 0 {
		cfg.SettleDelay = time.Duration(file.SettleDelaySec) * time.Second
	}
}

func applyEnv(cfg *Config) {
	setString(&cfg.StreamURL, os.Getenv("VINYL_STREAM_URL"))
	setString(&cfg.StatsURL, os.Getenv("VINYL_STATS_URL"))
	setString(&cfg.Mount, os.Getenv("VINYL_MOUNT"))
	setString(&cfg.AdminURL, os.Getenv("VINYL_ADMIN_URL"))
	setString(&cfg.AdminUser, os.Getenv("VINYL_ADMIN_USER"))
	setString(&cfg.AdminPassword, os.Getenv("VINYL_ADMIN_PASSWORD"))
	setString(&cfg.CoverLocalPath, os.Getenv("VINYL_COVER_LOCAL_PATH"))
	setString(&cfg.CoverPublicURL, os.Getenv("VINYL_COVER_PUBLIC_URL"))
	setString(&cfg.RecognizerURL, os.Getenv("VINYL_RECOGNIZER_URL"))
	setString(&cfg.CaptureCommand, os.Getenv("VINYL_CAPTURE_COMMAND"))
	setString(&cfg.OverrideFile, os.Getenv("VINYL_OVERRIDE_FILE"))

	setSeconds(&cfg.CaptureSeconds, os.Getenv("VINYL_CAPTURE_SECONDS"))
	setInterval(&cfg.PollInterval, os.Getenv("VINYL_POLL_INTERVAL_SECONDS"))
	setInterval(&cfg.IdleInterval, os.Getenv("VINYL_IDLE_INTERVAL_SECONDS"))
	setInterval(&cfg.SettleDelay, os.Getenv("VINYL_SETTLE_DELAY_SECONDS"))
}

func setString(target *string, value string) {
	value = strings.TrimSpace(value)
	if value != "" {
		*target = value
	}
}

func setSeconds(target *int, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	secs, err := strconv.Atoi(value)
	if err != nil || secs <= 0 {
		return
	}
	*target = secs
}

func setInterval(target *time.Duration, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	secs, err := strconv.Atoi(value)
	if err != nil || secs <= 0 {
		return
	}
	*target = time.Duration(secs) * time.Second
}

// Validate rejects configurations that cannot possibly work.
func (c Config) Validate() error {
	if c.StreamURL == "" {
		return errors.New("stream URL must be configured")
	}
	if c.StatsURL == "" {
		return errors.New("stats URL must be configured")
	}
	if c.Mount == "" {
		return errors.New("mount must be configured")
	}
	if c.AdminUser == "" || c.AdminPassword == "" {
		return errors.New("admin credentials must be configured")
	}
	if c.CoverLocalPath == "" {
		return errors.New("cover local path must be configured")
	}
	if c.CaptureSeconds <= 0 {
		return errors.New("capture duration must be positive")
	}
	return nil
}

func resolveConfigPath(path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[1:])
		}
	}

	return filepath.Abs(path)
}
