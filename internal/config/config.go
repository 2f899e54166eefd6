package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	pkglogger "github.com/damoang/angple-realtime/pkg/logger"
	"gopkg.in/yaml.v3"
)

// Config is the resolved configuration shared by the dev server and the chat client
type Config struct {
	Env      string         `yaml:"-"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	JWT      JWTConfig      `yaml:"jwt"`
	CORS     CORSConfig     `yaml:"cors"`
	Client   ClientConfig   `yaml:"client"`
}

// ServerConfig dev server listener
type ServerConfig struct {
	Port int    `yaml:"port"`
	Mode string `yaml:"mode"`
}

// DatabaseConfig selects the dev server store. Driver is sqlite or mysql.
type DatabaseConfig struct {
	Driver          string `yaml:"driver"`
	Path            string `yaml:"path"`
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	User            string `yaml:"user"`
	Password        string `yaml:"password"`
	DBName          string `yaml:"dbname"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime"`
}

// GetDSN returns the gorm DSN for the configured driver
func (d DatabaseConfig) GetDSN() string {
	if d.Driver == "mysql" {
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			d.User, d.Password, d.Host, d.Port, d.DBName)
	}
	return d.Path
}

// RedisConfig room fan-out between dev server instances. Empty Host disables it.
type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// JWTConfig session token signing
type JWTConfig struct {
	Secret    string `yaml:"secret"`
	ExpiresIn int    `yaml:"expires_in"` // seconds
}

// CORSConfig comma separated origins, also used for the websocket origin check
type CORSConfig struct {
	AllowOrigins string `yaml:"allow_origins"`
}

// ClientConfig realtime client settings
type ClientConfig struct {
	APIURL           string        `yaml:"api_url"`
	WSURL            string        `yaml:"ws_url"`
	Token            string        `yaml:"token"`
	RequestTimeout   time.Duration `yaml:"request_timeout"`
	PageSize         int           `yaml:"page_size"`
	ReconnectInitial time.Duration `yaml:"reconnect_initial"`
	ReconnectMax     time.Duration `yaml:"reconnect_max"`
	ToastLifetime    time.Duration `yaml:"toast_lifetime"`
}

// Load reads a yaml file, applies environment overrides and defaults, then validates.
// A missing file is not an error; env and defaults still apply.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Env = os.Getenv("APP_ENV")
	setString(&c.Server.Mode, "GIN_MODE")
	setInt(&c.Server.Port, "PORT")

	setString(&c.Database.Driver, "DB_DRIVER")
	setString(&c.Database.Path, "DB_PATH")
	setString(&c.Database.Host, "DB_HOST")
	setInt(&c.Database.Port, "DB_PORT")
	setString(&c.Database.User, "DB_USER")
	setString(&c.Database.Password, "DB_PASSWORD")
	setString(&c.Database.DBName, "DB_NAME")

	setString(&c.Redis.Host, "REDIS_HOST")
	setInt(&c.Redis.Port, "REDIS_PORT")
	setString(&c.Redis.Password, "REDIS_PASSWORD")

	setString(&c.JWT.Secret, "JWT_SECRET")
	setString(&c.CORS.AllowOrigins, "CORS_ALLOW_ORIGINS")

	setString(&c.Client.APIURL, "ANGPLE_API_URL")
	setString(&c.Client.WSURL, "ANGPLE_WS_URL")
	setString(&c.Client.Token, "ANGPLE_TOKEN")
	setDuration(&c.Client.RequestTimeout, "ANGPLE_REQUEST_TIMEOUT")
}

func (c *Config) setDefaults() {
	if c.Env == "" {
		c.Env = "local"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8090
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Driver == "sqlite" && c.Database.Path == "" {
		c.Database.Path = "angple-realtime.db"
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 20
	}
	if c.Redis.Port == 0 {
		c.Redis.Port = 6379
	}
	if c.Redis.PoolSize == 0 {
		c.Redis.PoolSize = 10
	}
	if c.JWT.ExpiresIn == 0 {
		c.JWT.ExpiresIn = 86400
	}
	if c.CORS.AllowOrigins == "" {
		c.CORS.AllowOrigins = "http://localhost:3000"
	}
	if c.Client.APIURL == "" {
		c.Client.APIURL = fmt.Sprintf("http://localhost:%d/api/v1", c.Server.Port)
	}
	if c.Client.WSURL == "" {
		c.Client.WSURL = fmt.Sprintf("ws://localhost:%d/ws", c.Server.Port)
	}
	if c.Client.RequestTimeout == 0 {
		c.Client.RequestTimeout = 10 * time.Second
	}
	if c.Client.PageSize == 0 {
		c.Client.PageSize = 20
	}
	if c.Client.ReconnectInitial == 0 {
		c.Client.ReconnectInitial = time.Second
	}
	if c.Client.ReconnectMax == 0 {
		c.Client.ReconnectMax = 30 * time.Second
	}
	if c.Client.ToastLifetime == 0 {
		c.Client.ToastLifetime = 5 * time.Second
	}
}

// Validate rejects settings the server or client cannot start with
func (c *Config) Validate() error {
	var errs []string
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port out of range: %d", c.Server.Port))
	}
	switch c.Database.Driver {
	case "sqlite":
	case "mysql":
		if c.Database.Host == "" || c.Database.DBName == "" {
			errs = append(errs, "database.host and database.dbname are required for mysql")
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown database.driver %q", c.Database.Driver))
	}
	if !c.IsDevelopment() && c.JWT.Secret == "" {
		errs = append(errs, "jwt.secret is required outside development")
	}
	if c.Client.PageSize <= 0 {
		errs = append(errs, "client.page_size must be positive")
	}
	if c.Client.ReconnectMax < c.Client.ReconnectInitial {
		errs = append(errs, "client.reconnect_max must be >= client.reconnect_initial")
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// IsDevelopment reports whether the environment is a local one
func (c *Config) IsDevelopment() bool {
	switch c.Env {
	case "", "local", "dev", "development", "test":
		return true
	}
	return false
}

// AllowedOrigins returns the CORS origins as a list
func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORS.AllowOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// LogResolved logs the effective configuration with secrets masked
func LogResolved(c *Config) {
	pkglogger.Info("config: env=%s port=%d db=%s redis=%s",
		c.Env, c.Server.Port, c.Database.Driver, orNone(c.Redis.Host))
	pkglogger.Info("config: jwt.secret=%s cors=%s", mask(c.JWT.Secret), c.CORS.AllowOrigins)
	pkglogger.Info("config: api=%s ws=%s token=%s timeout=%s page=%d",
		c.Client.APIURL, c.Client.WSURL, mask(c.Client.Token), c.Client.RequestTimeout, c.Client.PageSize)
}

func mask(s string) string {
	if s == "" {
		return "(unset)"
	}
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + "****" + s[len(s)-2:]
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
