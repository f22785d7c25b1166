package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

const dateLayout = "2006-01-02"

type Config struct {
	Slack     SlackConfig     `mapstructure:"slack"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Timezone  string          `mapstructure:"timezone"`
	Semester  SemesterConfig  `mapstructure:"semester"`
	Portal    PortalConfig    `mapstructure:"portal"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Render    RenderConfig    `mapstructure:"render"`
	Delivery  DeliveryConfig  `mapstructure:"delivery"`
}

type SlackConfig struct {
	BotToken      string `mapstructure:"bot_token"`
	SigningSecret string `mapstructure:"signing_secret"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SemesterConfig holds the first day of the current semester, YYYY-MM-DD.
type SemesterConfig struct {
	StartDate string `mapstructure:"start_date"`
}

type PortalConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	LoginPath     string        `mapstructure:"login_path"`
	TimetablePath string        `mapstructure:"timetable_path"`
	ScheduleMode  string        `mapstructure:"schedule_mode"`
	TermID        string        `mapstructure:"term_id"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

type SchedulerConfig struct {
	DailySpec string `mapstructure:"daily_spec"`
}

type RenderConfig struct {
	Format     string        `mapstructure:"format"`
	ChromePath string        `mapstructure:"chrome_path"`
	FontPath   string        `mapstructure:"font_path"`
	Width      int           `mapstructure:"width"`
	Height     int           `mapstructure:"height"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type DeliveryConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// Load reads configuration from defaults, an optional config file and
// BOT_-prefixed environment variables, in increasing priority. A .env file
// in the working directory is loaded into the environment first.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	v.SetDefault("slack.bot_token", "")
	v.SetDefault("slack.signing_secret", "")
	v.SetDefault("database.path", "./subscribers.db")
	v.SetDefault("server.port", "3000")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("timezone", "Asia/Shanghai")
	v.SetDefault("semester.start_date", "")

	v.SetDefault("portal.base_url", "https://qzjwpc.cqvtu.edu.cn")
	v.SetDefault("portal.login_path", "/jsxsd/xk/LoginToXk")
	v.SetDefault("portal.timetable_path", "/jsxsd/framework/mainV_index_loadkb.htmlx")
	v.SetDefault("portal.schedule_mode", "7BF92DA627F746F59D245A65B31BCE86")
	v.SetDefault("portal.term_id", "2024-2025-2")
	v.SetDefault("portal.timeout", "30s")

	v.SetDefault("scheduler.daily_spec", "55 7 * * *")

	v.SetDefault("render.format", "png")
	v.SetDefault("render.chrome_path", "")
	v.SetDefault("render.font_path", "")
	v.SetDefault("render.width", 800)
	v.SetDefault("render.height", 700)
	v.SetDefault("render.timeout", "60s")

	v.SetDefault("delivery.timeout", "15s")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the settings the bot cannot run without.
func (c *Config) Validate() error {
	if c.Slack.BotToken == "" {
		return errors.New("config: slack.bot_token is required")
	}
	if c.Slack.SigningSecret == "" {
		return errors.New("config: slack.signing_secret is required")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("config: invalid timezone %q: %w", c.Timezone, err)
	}
	if _, err := c.SemesterStart(); err != nil {
		return fmt.Errorf("config: semester.start_date must be YYYY-MM-DD: %w", err)
	}
	if _, err := cron.ParseStandard(c.Scheduler.DailySpec); err != nil {
		return fmt.Errorf("config: invalid scheduler.daily_spec %q: %w", c.Scheduler.DailySpec, err)
	}
	switch c.Render.Format {
	case "png", "pdf":
	default:
		return fmt.Errorf("config: render.format must be png or pdf, got %q", c.Render.Format)
	}
	return nil
}

// Location returns the time zone all schedules are evaluated in.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// SemesterStart returns the semester's first day at midnight in the configured zone.
func (c *Config) SemesterStart() (time.Time, error) {
	loc, err := c.Location()
	if err != nil {
		return time.Time{}, err
	}
	return time.ParseInLocation(dateLayout, c.Semester.StartDate, loc)
}
