package config

import (
	"database/sql"
	"errors"
	"io/fs"
	"slices"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	errwrap "github.com/pkg/errors"
	"github.com/subosito/gotenv"

	"github.com/rahmatrdn/go-sql-dashboard/entity"
)

type Config struct {
	App       AppConfig
	Lakehouse LakehouseConfig
	Dashboard DashboardConfig
	Auth      AuthConfig
	Summary   SummaryConfig
}

type AppConfig struct {
	Port     string `env:"APP_PORT,default=8080"`
	LogLevel string `env:"LOG_LEVEL,default=info"`
	Timezone string `env:"TIMEZONE,default=Local"`
	ViewsDir string `env:"VIEWS_DIR,default=./views"`
}

type LakehouseConfig struct {
	Workspaces   WorkspaceList `env:"WORKSPACES"`
	Driver       string        `env:"LAKEHOUSE_DRIVER,default=clickhouse"`
	Table        string        `env:"JOB_HISTORY_TABLE,default=information_schema.job_history"`
	CacheTTL     time.Duration `env:"QUERY_CACHE_TTL,default=60s"`
	QueryTimeout time.Duration `env:"QUERY_TIMEOUT,default=2m"`
}

type DashboardConfig struct {
	SlowThresholdMs   int64    `env:"DEFAULT_SLOW_THRESHOLD_MS,default=10000"`
	DaysOfStat        int      `env:"DEFAULT_DAYS_OF_STATS,default=7"`
	RowLimit          int      `env:"DEFAULT_ROW_LIMIT,default=500"`
	ExclusionsEnabled bool     `env:"ERROR_EXCLUSIONS_ENABLED,default=true"`
	ErrorPatterns     []string `env:"ERROR_EXCLUSION_PATTERNS,default=syntax error;not found"`
}

type AuthConfig struct {
	JWTSecret string `env:"JWT_SECRET"`
}

type SummaryConfig struct {
	Cron     string `env:"SUMMARY_CRON"`
	AMQPURL  string `env:"AMQP_URL"`
	Exchange string `env:"AMQP_EXCHANGE,default=sql-dashboard.summary"`
}

// WorkspaceList decodes "name=dsn;name2=dsn2". The driver is filled in from
// LAKEHOUSE_DRIVER by Load.
type WorkspaceList []entity.Workspace

func (w *WorkspaceList) Decode(repl string) error {
	seen := map[string]bool{}
	var list WorkspaceList
	for _, entry := range strings.Split(repl, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, dsn, ok := strings.Cut(entry, "=")
		name, dsn = strings.TrimSpace(name), strings.TrimSpace(dsn)
		if !ok || name == "" || dsn == "" {
			return errwrap.Errorf("workspace entry %q must be name=dsn", entry)
		}
		if seen[name] {
			return errwrap.Errorf("workspace %q is configured twice", name)
		}
		seen[name] = true
		list = append(list, entity.Workspace{Name: name, DSN: dsn})
	}
	*w = list
	return nil
}

// Load reads the environment, after merging any .env files that exist.
func Load(envFiles ...string) (*Config, error) {
	funcName := "config.Load"

	if err := gotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, errwrap.Wrap(err, funcName)
	}

	var cfg Config
	if err := envdecode.StrictDecode(&cfg); err != nil {
		return nil, errwrap.Wrap(err, funcName)
	}

	// The driver only carries the connection; the SQL itself targets the
	// lakehouse job-history dialect.
	if !slices.Contains(sql.Drivers(), cfg.Lakehouse.Driver) {
		return nil, errwrap.Errorf("%s: LAKEHOUSE_DRIVER %q is not registered, have %v",
			funcName, cfg.Lakehouse.Driver, sql.Drivers())
	}
	for i := range cfg.Lakehouse.Workspaces {
		cfg.Lakehouse.Workspaces[i].Driver = cfg.Lakehouse.Driver
	}
	if _, err := cfg.App.Location(); err != nil {
		return nil, errwrap.Wrap(err, funcName)
	}
	return &cfg, nil
}

func (c AppConfig) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, errwrap.Wrapf(err, "unknown TIMEZONE %q", c.Timezone)
	}
	return loc, nil
}
