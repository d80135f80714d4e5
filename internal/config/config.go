// Package config loads the daemon and CLI configuration.
//
// Values are layered, later layers winning:
//
//  1. built-in defaults
//  2. the YAML file, when a path is given
//  3. CALLERID_* environment variables, which a .env file may supply
//
// The result is checked against an embedded CUE schema and then by Validate.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/roach88/callerid/internal/caller"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CALLERID_"

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

//go:embed schema.cue
var schemaSource string

// Platform configures the headless stand-ins for the OS collaborators.
type Platform struct {
	OverlayPermission bool   `yaml:"overlay_permission" json:"overlay_permission"`
	AutoGrant         bool   `yaml:"auto_grant" json:"auto_grant"`
	SimCountry        string `yaml:"sim_country" json:"sim_country"`
	LockScreen        bool   `yaml:"lock_screen" json:"lock_screen"`
}

// Config holds all application configuration
type Config struct {
	DBPath         string        `yaml:"db_path" json:"db_path"`
	DBDriver       string        `yaml:"db_driver" json:"db_driver"`
	ListenAddr     string        `yaml:"listen_addr" json:"listen_addr"`
	LogLevel       string        `yaml:"log_level" json:"log_level"`
	LogFormat      string        `yaml:"log_format" json:"log_format"`
	PhotoDir       string        `yaml:"photo_dir" json:"photo_dir"`
	PhotoTTL       time.Duration `yaml:"photo_ttl" json:"photo_ttl"`
	ShowDelay      time.Duration `yaml:"show_delay" json:"show_delay"`
	LookupTimeout  time.Duration `yaml:"lookup_timeout" json:"lookup_timeout"`
	AppName        string        `yaml:"app_name" json:"app_name"`
	Authority      string        `yaml:"authority" json:"authority"`
	DefaultLabel   string        `yaml:"default_label" json:"default_label"`
	DefaultCountry string        `yaml:"default_country" json:"default_country"`
	CORSOrigins    []string      `yaml:"cors_origins" json:"cors_origins"`
	Platform       Platform      `yaml:"platform" json:"platform"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DBPath:         "callerid.db",
		DBDriver:       "sqlite3",
		ListenAddr:     "127.0.0.1:8421",
		LogLevel:       "info",
		LogFormat:      "text",
		PhotoDir:       filepath.Join(os.TempDir(), "callerid-photos"),
		PhotoTTL:       30 * time.Second,
		ShowDelay:      time.Second,
		LookupTimeout:  2 * time.Second,
		AppName:        "Caller ID",
		Authority:      "callerid.directory",
		DefaultLabel:   caller.DefaultLabel,
		DefaultCountry: "IN",
		Platform: Platform{
			OverlayPermission: true,
			LockScreen:        true,
		},
	}
}

// Load builds the configuration. path names an optional YAML file. envFile
// names a .env file that must exist; when empty, a .env in the working
// directory is read if present. Variables already set in the environment
// are never replaced by the .env file.
func Load(path, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"DB_PATH":         &c.DBPath,
		"DB_DRIVER":       &c.DBDriver,
		"LISTEN_ADDR":     &c.ListenAddr,
		"LOG_LEVEL":       &c.LogLevel,
		"LOG_FORMAT":      &c.LogFormat,
		"PHOTO_DIR":       &c.PhotoDir,
		"APP_NAME":        &c.AppName,
		"AUTHORITY":       &c.Authority,
		"DEFAULT_LABEL":   &c.DefaultLabel,
		"DEFAULT_COUNTRY": &c.DefaultCountry,
		"SIM_COUNTRY":     &c.Platform.SimCountry,
	}
	for key, dst := range strs {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"PHOTO_TTL":      &c.PhotoTTL,
		"SHOW_DELAY":     &c.ShowDelay,
		"LOOKUP_TIMEOUT": &c.LookupTimeout,
	}
	for key, dst := range durations {
		v, ok := lookup(EnvPrefix + key)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: %s%s: %v", ErrInvalid, EnvPrefix, key, err)
		}
		*dst = d
	}

	bools := map[string]*bool{
		"OVERLAY_PERMISSION": &c.Platform.OverlayPermission,
		"AUTO_GRANT":         &c.Platform.AutoGrant,
		"LOCK_SCREEN":        &c.Platform.LockScreen,
	}
	for key, dst := range bools {
		v, ok := lookup(EnvPrefix + key)
		if !ok {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %s%s: %v", ErrInvalid, EnvPrefix, key, err)
		}
		*dst = b
	}

	if v, ok := lookup(EnvPrefix + "CORS_ORIGINS"); ok {
		c.CORSOrigins = nil
		for _, origin := range strings.Split(v, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				c.CORSOrigins = append(c.CORSOrigins, origin)
			}
		}
	}
	return nil
}

// Validate checks c against the embedded schema, then checks the region
// codes, which the schema can only check for shape.
func (c *Config) Validate() error {
	cctx := cuecontext.New()
	schema := cctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	v := schema.LookupPath(cue.ParsePath("#Config")).Unify(cctx.Encode(c))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.TrimSpace(cueerrors.Details(err, nil)))
	}

	region, ok := caller.NormalizeRegion(c.DefaultCountry)
	if !ok {
		return fmt.Errorf("%w: default_country %q is not a country code", ErrInvalid, c.DefaultCountry)
	}
	c.DefaultCountry = region

	if c.Platform.SimCountry != "" {
		if _, ok := caller.NormalizeRegion(c.Platform.SimCountry); !ok {
			return fmt.Errorf("%w: platform.sim_country %q is not a country code", ErrInvalid, c.Platform.SimCountry)
		}
	}
	return nil
}
