package structs

import "time"

type Config struct {
	Server   *ServerConfig
	Cors     *CorsConfig
	Database *DatabaseConfig
	Cache    *CacheConfig
	Auth     *AuthConfig
	Stripe   *StripeConfig
	Notify   *NotifyConfig
}

type ServerConfig struct {
	AppName        string        // AlDoge
	Environment    string        // development, production
	Port           string        // :8082
	SiteURL        string        // public site, used for checkout redirect URLs
	ReadTimeout    time.Duration // in seconds
	WriteTimeout   time.Duration // in seconds
	IdleTimeout    time.Duration // in seconds
	MaxHeaderBytes int           // in bytes
}

type CorsConfig struct {
	AllowOrigins     []string
	AllowMethods     []string
	AllowHeaders     []string
	ExposedHeaders   []string
	AllowCredentials bool
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxConns     int
	MinConns     int
	MaxLifetime  time.Duration // in seconds
	MaxIdleTime  time.Duration // in seconds
	ReadTimeout  time.Duration // in seconds
	WriteTimeout time.Duration // in seconds
}

type CacheConfig struct {
	Address      string
	Username     string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CatalogTTL   time.Duration // menu prices change rarely; short staleness is fine
}

type AuthConfig struct {
	AccessTokenSecret string
	AccessTokenExpiry time.Duration
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	Currency      string // "eur"
	SuccessPath   string // appended to SiteURL
	CancelPath    string
}

type NotifyConfig struct {
	ResendAPIKey string
	FromEmail    string
	StaffEmail   string
	Enabled      bool
}
