package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Profile is the configuration to start main server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int
	// Data is the data directory
	Data string
	// DSN points to where poplog stores its own data
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version of server
	Version string
	// Timezone is the IANA name of the wall-clock zone records are read and
	// reported in. Empty means the host local zone.
	Timezone string

	// HTTP rate limiting per client IP.
	RateLimit float64 // POPLOG_RATE_LIMIT (default: 10 requests/s)
	RateBurst int     // POPLOG_RATE_BURST (default: 20)

	// StatsInterval is how often the usage summary is refreshed.
	StatsInterval time.Duration // POPLOG_STATS_INTERVAL (default: 1h)
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FromEnv loads the settings that have no command line flag from POPLOG_*
// environment variables. Invalid numbers fall back to the defaults.
func (p *Profile) FromEnv() {
	if p.Timezone == "" {
		p.Timezone = os.Getenv("POPLOG_TIMEZONE")
	}

	p.RateLimit = 10
	if v, err := strconv.ParseFloat(getEnvOrDefault("POPLOG_RATE_LIMIT", "10"), 64); err == nil && v > 0 {
		p.RateLimit = v
	}
	p.RateBurst = 20
	if v, err := strconv.Atoi(getEnvOrDefault("POPLOG_RATE_BURST", "20")); err == nil && v > 0 {
		p.RateBurst = v
	}
	p.StatsInterval = time.Hour
	if v, err := time.ParseDuration(getEnvOrDefault("POPLOG_STATS_INTERVAL", "1h")); err == nil && v > 0 {
		p.StatsInterval = v
	}
}

// Location resolves Timezone.
func (p *Profile) Location() (*time.Location, error) {
	if p.Timezone == "" || strings.EqualFold(p.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid timezone %q", p.Timezone)
	}
	return loc, nil
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}
	if p.Driver == "" {
		p.Driver = "sqlite"
	}
	if p.Driver != "sqlite" && p.Driver != "postgres" {
		return errors.Errorf("unsupported driver %q", p.Driver)
	}

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "poplog")
			if _, err := os.Stat(p.Data); os.IsNotExist(err) {
				if err := os.MkdirAll(p.Data, 0770); err != nil {
					slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
					return err
				}
			}
		} else {
			p.Data = "/var/opt/poplog"
		}
	}

	if p.Driver == "sqlite" {
		dataDir, err := checkDataDir(p.Data)
		if err != nil {
			slog.Error("failed to check dsn", slog.String("data", dataDir), slog.String("error", err.Error()))
			return err
		}
		p.Data = dataDir
		if p.DSN == "" {
			dbFile := fmt.Sprintf("poplog_%s.db", p.Mode)
			p.DSN = filepath.Join(dataDir, dbFile)
		}
	} else if p.DSN == "" {
		return errors.New("dsn is required for postgres")
	}

	if _, err := p.Location(); err != nil {
		return err
	}
	return nil
}
