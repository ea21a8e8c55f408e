package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yml
var embeddedConfig []byte

type Config struct {
	Mode   string `mapstructure:"mode"`
	Server struct {
		HTTPPort    string        `mapstructure:"HTTPPort"`
		MetricsPort string        `mapstructure:"metricsPort"`
		Timeout     time.Duration `mapstructure:"HTTPTimeout"`
	} `mapstructure:"server"`
	Repositories struct {
		Postgres struct {
			Host     string `mapstructure:"host"`
			Password string `mapstructure:"password"`
			Port     string `mapstructure:"port"`
			Username string `mapstructure:"username"`
			DB       string `mapstructure:"db"`
			SSLMode  string `mapstructure:"sslmode"`
		} `mapstructure:"postgres"`
	} `mapstructure:"repositories"`
	JWT   JWTConfig   `mapstructure:"jwt"`
	Reset ResetConfig `mapstructure:"reset"`
	SMTP  SMTPConfig  `mapstructure:"smtp"`
}

// JWTConfig holds session token signing parameters. The secret is read
// once at startup; rotating it invalidates every outstanding token.
type JWTConfig struct {
	SecretKey string        `mapstructure:"secretKey"`
	TokenTTL  time.Duration `mapstructure:"tokenTTL"`
	Issuer    string        `mapstructure:"issuer"`
}

// ResetConfig holds password-reset parameters: how long a reset token
// stays valid and the base URL embedded in reset emails.
type ResetConfig struct {
	TokenTTL   time.Duration `mapstructure:"tokenTTL"`
	AppBaseURL string        `mapstructure:"appBaseURL"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

func InitConfig() (Config, error) {
	var config Config
	v := viper.New()

	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	err := v.ReadInConfig()
	if err != nil {
		fmt.Printf("Warning: Failed to find file-based config: %s. Falling back to embedded config.\n", err)
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %s", err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %s", err)
	}

	applyEnvOverrides(&config)

	if config.JWT.SecretKey == "" {
		return Config{}, fmt.Errorf("JWT secret is not configured (set JWT_SECRET or jwt.secretKey)")
	}
	return config, nil
}

// applyEnvOverrides lets deployment env vars win over the yml file.
// The names match the ones the mobile app's ops docs already use.
func applyEnvOverrides(config *Config) {
	overrides := map[string]*string{
		"JWT_SECRET":        &config.JWT.SecretKey,
		"APP_BASE_URL":      &config.Reset.AppBaseURL,
		"SMTP_HOST":         &config.SMTP.Host,
		"SMTP_PORT":         &config.SMTP.Port,
		"SMTP_USER":         &config.SMTP.Username,
		"SMTP_PASS":         &config.SMTP.Password,
		"EMAIL_FROM":        &config.SMTP.From,
		"POSTGRES_HOST":     &config.Repositories.Postgres.Host,
		"POSTGRES_PORT":     &config.Repositories.Postgres.Port,
		"POSTGRES_USER":     &config.Repositories.Postgres.Username,
		"POSTGRES_PASSWORD": &config.Repositories.Postgres.Password,
		"POSTGRES_DB":       &config.Repositories.Postgres.DB,
	}
	for name, target := range overrides {
		if val := os.Getenv(name); val != "" {
			*target = val
		}
	}
}
