package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// GridConfig is the display configuration the positioning math and the
// rendered hour labels must share. These are fixed constants of a running
// instance, not runtime input.
type GridConfig struct {
	// StartHour / EndHour bound the labeled hour rows of the week view.
	// Meetings before StartHour still position (negative offset); the grid
	// window is a display choice, not a data filter.
	StartHour int `yaml:"start_hour" json:"start_hour"`
	EndHour   int `yaml:"end_hour" json:"end_hour"`

	// CellHeightPx is the pixel height of one hour row.
	CellHeightPx float64 `yaml:"cell_height_px" json:"cell_height_px"`

	// MonthCellCap is how many meetings a month-view day cell lists before
	// showing a "+N" overflow count.
	MonthCellCap int `yaml:"month_cell_cap" json:"month_cell_cap"`
}

// StorageConfig selects and parameterizes the meeting store.
type StorageConfig struct {
	// Driver is "file" or "postgres".
	Driver string `yaml:"driver" json:"driver"`
	// Path is the JSON document location for the file driver.
	Path string `yaml:"path" json:"path"`
	// DSN is the connection string for the postgres driver.
	DSN string `yaml:"dsn" json:"dsn"`
}

// ZoomConfig holds server-to-server OAuth credentials. Leave empty to run
// the dashboard without Zoom-backed features.
type ZoomConfig struct {
	AccountID    string `yaml:"account_id" json:"account_id"`
	ClientID     string `yaml:"client_id" json:"client_id"`
	ClientSecret string `yaml:"client_secret" json:"client_secret"`
	// UserID is the Zoom user whose meetings are synced ("me" works for
	// the app owner).
	UserID string `yaml:"user_id" json:"user_id"`
}

// AgendaConfig points at the generative-text API for agenda suggestions.
type AgendaConfig struct {
	Endpoint string `yaml:"endpoint" json:"endpoint"`
	APIKey   string `yaml:"api_key" json:"api_key"`
	Model    string `yaml:"model" json:"model"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the Web UI/API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the Web UI and API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the fixed IANA app timezone every meeting time is
	// interpreted in, regardless of where a viewer opens the dashboard.
	Timezone string `yaml:"timezone" json:"timezone"`

	// RefreshCron schedules the periodic Zoom sync (e.g. "*/15 * * * *").
	RefreshCron string `yaml:"refresh" json:"refresh"`

	Grid    GridConfig    `yaml:"grid" json:"grid"`
	Storage StorageConfig `yaml:"storage" json:"storage"`
	Zoom    ZoomConfig    `yaml:"zoom" json:"zoom"`
	Agenda  AgendaConfig  `yaml:"agenda" json:"agenda"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:      "127.0.0.1:8080",
		Timezone:    "Asia/Seoul",
		RefreshCron: "*/15 * * * *",
		Grid: GridConfig{
			StartHour:    7,
			EndHour:      22,
			CellHeightPx: 60,
			MonthCellCap: 3,
		},
		Storage: StorageConfig{
			Driver: "file",
			Path:   "/var/lib/meetcal/meetings.json",
		},
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.Timezone == "" {
		c.Timezone = "Asia/Seoul"
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "*/15 * * * *"
	}

	if c.Grid.StartHour < 0 || c.Grid.StartHour > 23 {
		c.Grid.StartHour = 7
	}
	if c.Grid.EndHour <= c.Grid.StartHour || c.Grid.EndHour > 24 {
		c.Grid.EndHour = 22
		if c.Grid.EndHour <= c.Grid.StartHour {
			c.Grid.EndHour = 24
		}
	}
	if c.Grid.CellHeightPx <= 0 {
		c.Grid.CellHeightPx = 60
	}
	if c.Grid.MonthCellCap <= 0 {
		c.Grid.MonthCellCap = 3
	}

	switch c.Storage.Driver {
	case "file", "postgres":
		// ok
	default:
		c.Storage.Driver = "file"
	}
	if c.Storage.Driver == "file" && c.Storage.Path == "" {
		c.Storage.Path = "/var/lib/meetcal/meetings.json"
	}

	if c.Zoom.UserID == "" {
		c.Zoom.UserID = "me"
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600 (the config carries API
//     credentials).
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	// Atomic write: write to temp file in same directory then rename.
	tmp, err := os.CreateTemp(dir, ".meetcal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	// Flush and close before chmod/rename.
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	return nil
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
