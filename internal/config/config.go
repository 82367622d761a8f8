package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	// Server-side settings
	DatabaseDSN string `env:"DATABASE_URI"`

	// Проверка токенов провайдера идентификации
	AuthSecret    string `env:"AUTH_SECRET"`
	AuthIssuer    string `env:"AUTH_ISSUER"`
	AuthAudience  string `env:"AUTH_AUDIENCE"`
	OIDCIssuer    string `env:"OIDC_ISSUER"`
	OIDCClientID  string `env:"OIDC_CLIENT_ID"`
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	TokenCacheTTL int    `env:"TOKEN_CACHE_TTL" envDefault:"30"`

	// Таймауты внешних вызовов, в секундах
	ProviderTimeout int `env:"PROVIDER_TIMEOUT" envDefault:"5"`
	StorageTimeout  int `env:"STORAGE_TIMEOUT" envDefault:"10"`
	RequestTimeout  int `env:"REQUEST_TIMEOUT" envDefault:"30"`

	// Хранилище изображений
	StorageBackend    string `env:"STORAGE_BACKEND" envDefault:"fs"`
	ImageDir          string `env:"IMAGE_DIR"`
	ImageMaxSizeMB    int    `env:"IMAGE_MAX_MB" envDefault:"5"`
	ImageMaxCount     int    `env:"IMAGE_MAX_COUNT" envDefault:"10"`
	AllowedImageTypes string `env:"ALLOWED_IMAGE_TYPES"`
	PublicURL         string `env:"PUBLIC_URL"`

	RateLimitPerMin int `env:"RATE_LIMIT_PER_MIN" envDefault:"60"`

	// DevMode разрешает встроенный секрет проверки токенов; только для локального запуска
	DevMode bool `env:"DEV_MODE"`

	LogLevel string `env:"LOG_LEVEL"`
	LogDev   bool   `env:"LOG_DEV"`
	LogFile  string `env:"LOG_FILE"`

	// Shared settings
	BaseURL     string `env:"BASE_URL"`
	EnableHTTPS bool   `env:"ENABLE_HTTPS"`

	// Client-side settings
	ServerURL string `env:"-"`
	TokenFile string `env:"TOKEN_FILE"`
	Version   bool   `env:"-"` // show client version and exit (flag only)
}

// DevAuthSecret подставляется только в DevMode. Секрет публичный: токены,
// подписанные им, может выпустить кто угодно.
const DevAuthSecret = "dev-secret-key"

// ErrNoVerifierKey: не задан ни OIDC_ISSUER, ни AUTH_SECRET.
var ErrNoVerifierKey = errors.New("token verification is not configured: set OIDC_ISSUER or AUTH_SECRET (or run with DEV_MODE)")

// DefaultImageTypes — допустимые MIME-типы изображений по умолчанию.
var DefaultImageTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

func NewConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{}
	_ = env.Parse(cfg)

	// flags работают ТОЛЬКО если переменные из env не заданы
	// Server flags
	flag.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "строка подключения к БД (postgres DSN или файл sqlite)")
	flag.StringVar(&cfg.AuthSecret, "auth-secret", cfg.AuthSecret, "секрет проверки подписи JWT провайдера")
	flag.BoolVar(&cfg.DevMode, "dev", cfg.DevMode, "режим разработки: встроенный AUTH_SECRET, если он не задан")
	flag.StringVar(&cfg.OIDCIssuer, "oidc-issuer", cfg.OIDCIssuer, "issuer OIDC-провайдера (включает проверку по JWKS)")
	flag.StringVar(&cfg.RedisAddr, "redis", cfg.RedisAddr, "адрес redis для кэша проверенных токенов")
	flag.StringVar(&cfg.StorageBackend, "storage", cfg.StorageBackend, "хранилище изображений: fs | db")
	flag.StringVar(&cfg.ImageDir, "image-dir", cfg.ImageDir, "каталог для изображений (storage=fs)")
	flag.IntVar(&cfg.ImageMaxSizeMB, "image-max-mb", cfg.ImageMaxSizeMB, "максимальный размер одного изображения, МБ")
	flag.StringVar(&cfg.PublicURL, "public-url", cfg.PublicURL, "внешний URL сервера для ссылок на изображения")
	// Shared/client flags
	flag.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "address of the marketplace server (host:port)")
	flag.BoolVar(&cfg.EnableHTTPS, "https", cfg.EnableHTTPS, "enable HTTPS (client: prefer https scheme for BaseURL)")
	// Client flags
	flag.StringVar(&cfg.TokenFile, "token-file", cfg.TokenFile, "path to bearer token file (client)")
	flag.BoolVar(&cfg.Version, "version", cfg.Version, "Show client version and exit")

	flag.Parse()

	// Defaults
	if cfg.AuthSecret == "" && cfg.DevMode {
		cfg.AuthSecret = DevAuthSecret
	}
	if cfg.DatabaseDSN == "" {
		cfg.DatabaseDSN = "file:marketplace.db"
	}
	// validate BaseURL: must be in "address:port" (no scheme, no path). Otherwise use default.
	hostPortRe := regexp.MustCompile(`^[A-Za-z0-9\.\-]+:\d{1,5}$`)
	if !hostPortRe.MatchString(cfg.BaseURL) {
		cfg.BaseURL = "localhost:8081"
	}

	if cfg.EnableHTTPS {
		cfg.ServerURL = "https://" + cfg.BaseURL
	} else {
		cfg.ServerURL = "http://" + cfg.BaseURL
	}
	if cfg.PublicURL == "" {
		cfg.PublicURL = cfg.ServerURL
	}
	cfg.PublicURL = strings.TrimRight(cfg.PublicURL, "/")

	if cfg.StorageBackend != "db" {
		cfg.StorageBackend = "fs"
	}
	if cfg.ImageMaxSizeMB <= 0 {
		cfg.ImageMaxSizeMB = 5
	}
	if cfg.ImageMaxCount <= 0 {
		cfg.ImageMaxCount = 10
	}
	if cfg.RateLimitPerMin <= 0 {
		cfg.RateLimitPerMin = 60
	}

	home, _ := os.UserHomeDir()
	if cfg.ImageDir == "" {
		cfg.ImageDir = filepath.Join(os.TempDir(), "marketplace-images")
	}
	// Fill client defaults if empty
	if cfg.TokenFile == "" {
		cfg.TokenFile = filepath.Join(home, ".mk_token")
	}

	return cfg
}

// ImageTypes возвращает список разрешённых MIME-типов изображений.
func (c *Config) ImageTypes() []string {
	if strings.TrimSpace(c.AllowedImageTypes) == "" {
		return DefaultImageTypes
	}
	var out []string
	for _, t := range strings.Split(c.AllowedImageTypes, ",") {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if !strings.Contains(t, "/") {
			t = "image/" + t
		}
		out = append(out, t)
	}
	return out
}

// ImageMaxBytes — лимит размера одного декодированного изображения.
func (c *Config) ImageMaxBytes() int64 {
	return int64(c.ImageMaxSizeMB) * 1024 * 1024
}

// ValidateAuth проверяет, что серверу есть чем проверять токены провайдера.
// Встроенный dev-секрет вне DevMode не принимается.
func (c *Config) ValidateAuth() error {
	if c.OIDCIssuer != "" {
		return nil
	}
	if c.AuthSecret == "" {
		return ErrNoVerifierKey
	}
	if c.AuthSecret == DevAuthSecret && !c.DevMode {
		return fmt.Errorf("AUTH_SECRET %q is public and allowed only with DEV_MODE", DevAuthSecret)
	}
	return nil
}

func (c *Config) ProviderTimeoutDuration() time.Duration {
	return seconds(c.ProviderTimeout, 5)
}

func (c *Config) StorageTimeoutDuration() time.Duration {
	return seconds(c.StorageTimeout, 10)
}

func (c *Config) RequestTimeoutDuration() time.Duration {
	return seconds(c.RequestTimeout, 30)
}

func (c *Config) TokenCacheTTLDuration() time.Duration {
	if c.TokenCacheTTL <= 0 {
		return 0
	}
	return time.Duration(c.TokenCacheTTL) * time.Second
}

func seconds(v, def int) time.Duration {
	if v <= 0 {
		v = def
	}
	return time.Duration(v) * time.Second
}
