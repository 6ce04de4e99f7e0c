package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Stock policies select the single step that decrements product stock.
const (
	StockAtCheckout = "checkout"
	StockAtPayment  = "payment"
)

// Config holds environment-driven configuration.
type Config struct {
	Addr             string
	Env              string
	DatabaseURL      string
	JWTSecret        string
	JWTTTL           time.Duration
	LogLevel         string
	Currency         string
	StockPolicy      string
	CORSAllowOrigins string
	UploadDir        string

	// S3Bucket switches image storage from UploadDir to a bucket.
	S3Bucket    string
	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3PublicURL string

	// AdminEmail, when set, is ensured to be an admin at startup.
	// AdminPassword is only used if the account has to be created.
	AdminEmail    string
	AdminPassword string
}

// Load reads a .env file when present, then environment variables.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("app_addr", ":8080")
	v.SetDefault("app_env", "development")
	v.SetDefault("jwt_ttl", "72h")
	v.SetDefault("log_level", "info")
	v.SetDefault("order_currency", "COP")
	v.SetDefault("order_stock_policy", StockAtCheckout)
	v.SetDefault("cors_allow_origins", "*")
	v.SetDefault("upload_dir", "./uploads")
	keys := []string{
		"database_url", "jwt_secret", "admin_email", "admin_password",
		"s3_bucket", "s3_endpoint", "s3_region", "s3_access_key", "s3_secret_key", "s3_public_url",
	}
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return Config{}, err
		}
	}
	v.AutomaticEnv()

	cfg := Config{
		Addr:             v.GetString("app_addr"),
		Env:              v.GetString("app_env"),
		DatabaseURL:      v.GetString("database_url"),
		JWTSecret:        v.GetString("jwt_secret"),
		JWTTTL:           v.GetDuration("jwt_ttl"),
		LogLevel:         v.GetString("log_level"),
		Currency:         strings.ToUpper(v.GetString("order_currency")),
		StockPolicy:      strings.ToLower(v.GetString("order_stock_policy")),
		CORSAllowOrigins: v.GetString("cors_allow_origins"),
		UploadDir:        v.GetString("upload_dir"),
		AdminEmail:       strings.TrimSpace(v.GetString("admin_email")),
		AdminPassword:    v.GetString("admin_password"),
		S3Bucket:         v.GetString("s3_bucket"),
		S3Endpoint:       v.GetString("s3_endpoint"),
		S3Region:         v.GetString("s3_region"),
		S3AccessKey:      v.GetString("s3_access_key"),
		S3SecretKey:      v.GetString("s3_secret_key"),
		S3PublicURL:      v.GetString("s3_public_url"),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot run with.
func (c Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is not set")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is not set")
	}
	if c.StockPolicy != StockAtCheckout && c.StockPolicy != StockAtPayment {
		return fmt.Errorf("ORDER_STOCK_POLICY must be %q or %q, got %q", StockAtCheckout, StockAtPayment, c.StockPolicy)
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive")
	}
	if c.UploadDir == "" && c.S3Bucket == "" {
		return fmt.Errorf("UPLOAD_DIR must not be empty")
	}
	if (c.S3AccessKey == "") != (c.S3SecretKey == "") {
		return fmt.Errorf("S3_ACCESS_KEY and S3_SECRET_KEY must be set together")
	}
	return nil
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}
