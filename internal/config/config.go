package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Rabbit   RabbitConfig   `mapstructure:"rabbit"`
	Chat     ChatConfig     `mapstructure:"chat"`
	Admin    AdminConfig    `mapstructure:"admin"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
	// Browser origins allowed to call the API with credentials. Empty
	// disables CORS handling; same-origin use of the chat shell needs none.
	CORSOrigins []string `mapstructure:"cors_origins"`
}

type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Addr       string        `mapstructure:"addr"`
	Password   string        `mapstructure:"password"`
	DB         int           `mapstructure:"db"`
	SessionTTL time.Duration `mapstructure:"session_ttl"`
}

type RabbitConfig struct {
	URL         string `mapstructure:"url"`
	Queue       string `mapstructure:"queue"`
	Concurrency int    `mapstructure:"concurrency"`
	// MaxRetries bounds the trips through <queue>.retry; RetryDelay is the
	// first trip's wait and doubles on each further one.
	MaxRetries  int           `mapstructure:"max_retries"`
	RetryDelay  time.Duration `mapstructure:"retry_delay"`
	MetricsAddr string        `mapstructure:"metrics_addr"`
}

type ChatConfig struct {
	ReplyDelay time.Duration `mapstructure:"reply_delay"`
	CookieName string        `mapstructure:"cookie_name"`
	RulesFile  string        `mapstructure:"rules_file"`
	SeedRules  bool          `mapstructure:"seed_rules"`
	// 0 seeds the response picker from the clock.
	RandomSeed uint64 `mapstructure:"random_seed"`
}

type AdminConfig struct {
	Username     string        `mapstructure:"username"`
	PasswordHash string        `mapstructure:"password_hash"`
	JWTSecret    string        `mapstructure:"jwt_secret"`
	TokenTTL     time.Duration `mapstructure:"token_ttl"`
}

type LogConfig struct {
	Mode string `mapstructure:"mode"`
}

// EnvPrefix namespaces environment overrides: chat.reply_delay is read
// from CHATBOT_CHAT_REPLY_DELAY.
const EnvPrefix = "CHATBOT"

// Load layers the embedded defaults, an optional YAML file and
// environment variables, in that order of increasing precedence.
// With an empty path, ./config.yaml and ./config/config.yaml are tried.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if err := v.ReadConfig(bytes.NewReader(DefaultConfigYAML)); err != nil {
		return Config{}, fmt.Errorf("read embedded config: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		external := viper.New()
		external.SetConfigName("config")
		external.SetConfigType("yaml")
		external.AddConfigPath(".")
		external.AddConfigPath("./config")
		if err := external.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(external.AllSettings()); err != nil {
				return Config{}, fmt.Errorf("merge config %s: %w", external.ConfigFileUsed(), err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.normalize()
	return cfg, nil
}

func (c *Config) normalize() {
	if c.Server.Port == "" {
		c.Server.Port = ":8080"
	}
	if !strings.HasPrefix(c.Server.Port, ":") && !strings.Contains(c.Server.Port, ":") {
		c.Server.Port = ":" + c.Server.Port
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "debug"
	}
	if c.Chat.CookieName == "" {
		c.Chat.CookieName = "chatbot_sid"
	}
	if c.Chat.ReplyDelay < 0 {
		c.Chat.ReplyDelay = 0
	}
	if c.Rabbit.Queue == "" {
		c.Rabbit.Queue = "chat_exchanges"
	}
	if c.Rabbit.Concurrency <= 0 {
		c.Rabbit.Concurrency = 2
	}
	if c.Rabbit.Concurrency > 50 {
		c.Rabbit.Concurrency = 50
	}
	if c.Rabbit.MaxRetries < 0 {
		c.Rabbit.MaxRetries = 0
	}
	if c.Rabbit.RetryDelay <= 0 {
		c.Rabbit.RetryDelay = 5 * time.Second
	}
	if c.Redis.SessionTTL <= 0 {
		c.Redis.SessionTTL = 14 * 24 * time.Hour
	}
	if c.Admin.TokenTTL <= 0 {
		c.Admin.TokenTTL = 12 * time.Hour
	}
}

// minJWTSecretLen is the shortest admin signing secret accepted in release
// mode.
const minJWTSecretLen = 32

// AdminEnabled reports whether the admin API can issue and accept tokens.
func (c Config) AdminEnabled() bool {
	return c.Admin.PasswordHash != "" && c.Admin.JWTSecret != ""
}

// Validate rejects settings that are unsafe to serve with. In release mode
// an enabled admin API needs a secret of at least minJWTSecretLen bytes.
func (c Config) Validate() error {
	if c.Release() && c.AdminEnabled() && len(c.Admin.JWTSecret) < minJWTSecretLen {
		return fmt.Errorf("admin.jwt_secret must be at least %d bytes in release mode", minJWTSecretLen)
	}
	return nil
}

// Release reports whether the server runs in gin release mode.
func (c Config) Release() bool {
	return c.Server.Mode == "release"
}
