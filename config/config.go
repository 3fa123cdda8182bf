// Package config aggregates service configuration from environment
// variables, an optional .env file and an optional config file.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application level configuration aggregated from env/config files.
type Config struct {
	Server struct {
		Port        string
		Environment string
	}
	Auth struct {
		Secret   string
		TokenTTL time.Duration
	}
	Mongo struct {
		URI      string
		Host     string
		User     string
		Password string
		Database string
		Port     string
		Timeout  time.Duration
	}
	List struct {
		Sorted bool
		Limit  int64
	}
	Credential struct {
		Username string
		Password string
		UserID   string
	}
	Export struct {
		Bucket    string
		KeyPrefix string
		Region    string
		Endpoint  string
	}
}

// Production reports whether the service runs with the production
// environment flag, which disables open user registration.
func (c Config) Production() bool {
	return strings.EqualFold(c.Server.Environment, "production")
}

// Load reads configuration from environment variables and optional config files.
func Load() (Config, error) {
	loadDotEnv()

	v := viper.New()
	v.SetEnvPrefix("AIRLOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Short variable names the original deployment used keep working.
	_ = v.BindEnv("server.port", "AIRLOG_SERVER_PORT", "PORT")
	_ = v.BindEnv("server.environment", "AIRLOG_SERVER_ENVIRONMENT", "ENVIRONMENT")
	_ = v.BindEnv("auth.secret", "AIRLOG_AUTH_SECRET", "SECRET")
	_ = v.BindEnv("mongo.uri", "AIRLOG_MONGO_URI", "MONGODB_URI")
	_ = v.BindEnv("mongo.host", "AIRLOG_MONGO_HOST", "MONGODB_HOST")
	_ = v.BindEnv("mongo.user", "AIRLOG_MONGO_USER", "MONGODB_USER")
	_ = v.BindEnv("mongo.password", "AIRLOG_MONGO_PASSWORD", "MONGODB_PWD")
	_ = v.BindEnv("mongo.database", "AIRLOG_MONGO_DATABASE", "MONGODB_DB")
	_ = v.BindEnv("mongo.port", "AIRLOG_MONGO_PORT", "MONGODB_PORT")
	_ = v.BindEnv("credential.username", "AIRLOG_CREDENTIAL_USERNAME", "API_USER")
	_ = v.BindEnv("credential.password", "AIRLOG_CREDENTIAL_PASSWORD", "API_PWD")
	_ = v.BindEnv("credential.userid", "AIRLOG_CREDENTIAL_USERID", "API_USER_ID")

	v.SetDefault("server.port", "4000")
	v.SetDefault("server.environment", "development")
	v.SetDefault("auth.tokenttl", "24h")
	v.SetDefault("mongo.uri", "")
	v.SetDefault("mongo.host", "")
	v.SetDefault("mongo.user", "")
	v.SetDefault("mongo.password", "")
	v.SetDefault("mongo.database", "airlog")
	v.SetDefault("mongo.port", "27017")
	v.SetDefault("mongo.timeout", "20s")
	v.SetDefault("list.sorted", true)
	v.SetDefault("list.limit", 20)
	v.SetDefault("export.bucket", "")
	v.SetDefault("export.keyprefix", "airlog-exports")
	v.SetDefault("export.region", "us-east-1")
	v.SetDefault("export.endpoint", "")

	v.SetConfigName("config")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional file

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.Auth.Secret == "" {
		return errors.New("config: token secret is required (SECRET)")
	}
	if c.Mongo.URI == "" && c.Mongo.Host == "" {
		return errors.New("config: a mongo URI or host is required (MONGODB_URI or MONGODB_HOST)")
	}
	if c.List.Limit < 0 {
		return errors.New("config: list limit must not be negative")
	}
	return nil
}

func loadDotEnv() {
	file, err := os.Open(".env")
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		partsIndex := strings.Index(line, "=")
		if partsIndex <= 0 {
			continue
		}

		key := strings.TrimSpace(line[:partsIndex])
		value := strings.TrimSpace(line[partsIndex+1:])
		value = strings.Trim(value, `"'`)
		if key == "" {
			continue
		}

		if _, exists := os.LookupEnv(key); !exists {
			_ = os.Setenv(key, value)
		}
	}
}
