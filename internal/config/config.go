package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Queue    QueueConfig    `toml:"queue"`
	Board    BoardConfig    `toml:"board"`
	Keys     KeyConfig      `toml:"keys"`
	Logging  LoggingConfig  `toml:"logging"`
}

type ServerConfig struct {
	URL            string `toml:"url"`
	Token          string `toml:"token"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type QueueConfig struct {
	MaxRetries             int `toml:"max_retries"`
	MonitorIntervalSeconds int `toml:"monitor_interval_seconds"`
}

type BoardConfig struct {
	DefaultBoardID string `toml:"default_board_id"`
	ShowLabels     bool   `toml:"show_labels"`
	ShowDueDate    bool   `toml:"show_due_date"`
}

type LoggingConfig struct {
	Level   string        `toml:"level"`
	DevFile DevFileConfig `toml:"dev_file"`
}

type DevFileConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

type KeyConfig struct {
	Left      string `toml:"left"`
	Right     string `toml:"right"`
	Up        string `toml:"up"`
	Down      string `toml:"down"`
	Open      string `toml:"open"`
	Exit      string `toml:"exit"`
	FirstCard string `toml:"first_card"`
	LastCard  string `toml:"last_card"`
	NewCard   string `toml:"new_card"`
	Yank      string `toml:"yank"`
	Delete    string `toml:"delete"`
	Refresh   string `toml:"refresh"`
	Quit      string `toml:"quit"`
}

func Default(dbPath string) Config {
	return Config{
		Server: ServerConfig{
			URL:            "http://localhost:8787",
			TimeoutSeconds: 30,
		},
		Database: DatabaseConfig{
			Path: dbPath,
		},
		Queue: QueueConfig{
			MaxRetries:             3,
			MonitorIntervalSeconds: 15,
		},
		Board: BoardConfig{
			ShowLabels:  true,
			ShowDueDate: true,
		},
		Logging: LoggingConfig{
			Level: "info",
			DevFile: DevFileConfig{
				Enabled: true,
			},
		},
		Keys: KeyConfig{
			Left:      "h",
			Right:     "l",
			Up:        "k",
			Down:      "j",
			Open:      "enter",
			Exit:      "esc",
			FirstCard: "home",
			LastCard:  "end",
			NewCard:   "n",
			Yank:      "y",
			Delete:    "x",
			Refresh:   "r",
			Quit:      "q",
		},
	}
}

func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	serverURL := strings.TrimSpace(c.Server.URL)
	if serverURL == "" {
		return errors.New("server url is required")
	}
	parsed, err := url.Parse(serverURL)
	if err != nil || parsed.Host == "" {
		return fmt.Errorf("invalid server.url: %q", c.Server.URL)
	}
	switch parsed.Scheme {
	case "http", "https":
	default:
		return fmt.Errorf("invalid server.url scheme: %q", parsed.Scheme)
	}
	if c.Server.TimeoutSeconds < 0 {
		return errors.New("server.timeout_seconds must be >= 0")
	}

	if strings.TrimSpace(c.Database.Path) == "" {
		return errors.New("database path is required")
	}

	if c.Queue.MaxRetries < 0 {
		return errors.New("queue.max_retries must be >= 0")
	}
	if c.Queue.MonitorIntervalSeconds < 1 {
		return errors.New("queue.monitor_interval_seconds must be >= 1")
	}

	if strings.TrimSpace(c.Logging.Level) == "" {
		return errors.New("logging.level is required")
	}

	seen := map[string]string{}
	for name, key := range map[string]string{
		"keys.left":       c.Keys.Left,
		"keys.right":      c.Keys.Right,
		"keys.up":         c.Keys.Up,
		"keys.down":       c.Keys.Down,
		"keys.open":       c.Keys.Open,
		"keys.exit":       c.Keys.Exit,
		"keys.first_card": c.Keys.FirstCard,
		"keys.last_card":  c.Keys.LastCard,
		"keys.new_card":   c.Keys.NewCard,
		"keys.yank":       c.Keys.Yank,
		"keys.delete":     c.Keys.Delete,
		"keys.refresh":    c.Keys.Refresh,
		"keys.quit":       c.Keys.Quit,
	} {
		key = strings.TrimSpace(key)
		if key == "" {
			return fmt.Errorf("%s is required", name)
		}
		if other, ok := seen[key]; ok {
			return fmt.Errorf("%s duplicates %s: %q", name, other, key)
		}
		seen[key] = name
	}

	return nil
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
