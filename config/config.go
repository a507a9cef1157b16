package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yml
var embeddedConfig []byte

type Config struct {
	Mode     string `mapstructure:"mode"`
	Timezone string `mapstructure:"timezone"`
	Handlers struct {
		Pprof struct {
			Port      string `mapstructure:"port"`
			EnableTLS bool   `mapstructure:"enableTLS"`
		} `mapstructure:"pprof"`
		Prometheus struct {
			Port      string `mapstructure:"port"`
			EnableTLS bool   `mapstructure:"enableTLS"`
		} `mapstructure:"prometheus"`
	} `mapstructure:"handlers"`
	Repositories struct {
		Postgres struct {
			Host              string `mapstructure:"host"`
			Password          string `mapstructure:"password"`
			Port              string `mapstructure:"port"`
			Username          string `mapstructure:"username"`
			DB                string `mapstructure:"db"`
			SSLMODE           string `mapstructure:"SSLMODE"`
			MAXCONWAITINGTIME int    `mapstructure:"MAXCONWAITINGTIME"`
		} `mapstructure:"postgres"`
	} `mapstructure:"repositories"`
	Server struct {
		HTTPPort string        `mapstructure:"HTTPPort"`
		Timeout  time.Duration `mapstructure:"HTTPTimeout"`
	} `mapstructure:"server"`
	JWT    JWTConfig    `mapstructure:"jwt"`
	Stripe StripeConfig `mapstructure:"stripe"`
	Clerk  ClerkConfig  `mapstructure:"clerk"`
	Gemini GeminiConfig `mapstructure:"gemini"`
	Sweep  SweepConfig  `mapstructure:"sweep"`
}

type JWTConfig struct {
	SecretKey        string        `mapstructure:"secretKey"`
	RefreshSecretKey string        `mapstructure:"refreshSecretKey"`
	Issuer           string        `mapstructure:"issuer"`
	Audience         string        `mapstructure:"audience"`
	AccessTTL        time.Duration `mapstructure:"accessTTL"`
	RefreshTTL       time.Duration `mapstructure:"refreshTTL"`
}

type StripeConfig struct {
	SecretKey     string `mapstructure:"secretKey"`
	WebhookSecret string `mapstructure:"webhookSecret"`
	SuccessURL    string `mapstructure:"successURL"`
	CancelURL     string `mapstructure:"cancelURL"`
}

type ClerkConfig struct {
	WebhookSecret string `mapstructure:"webhookSecret"`
}

type GeminiConfig struct {
	Model string `mapstructure:"model"`
}

type SweepConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

func InitConfig() (Config, error) {
	var config Config
	v := viper.New()

	// Add file-based config paths
	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")
	v.AddConfigPath("/usr/local/bin")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	// Secrets come from the environment, never the file
	v.SetEnvPrefix("GRITFIT")
	v.AutomaticEnv()
	_ = v.BindEnv("stripe.secretKey", "STRIPE_SECRET_KEY")
	_ = v.BindEnv("stripe.webhookSecret", "STRIPE_WEBHOOK_SECRET")
	_ = v.BindEnv("clerk.webhookSecret", "CLERK_WEBHOOK_SECRET")
	_ = v.BindEnv("jwt.secretKey", "JWT_SECRET_KEY")
	_ = v.BindEnv("jwt.refreshSecretKey", "JWT_REFRESH_SECRET_KEY")
	_ = v.BindEnv("repositories.postgres.password", "POSTGRES_PASSWORD")

	// Try to load file-based config
	err := v.ReadInConfig()
	if err != nil {
		fmt.Printf("Warning: Failed to find file-based config: %s. Falling back to embedded config.\n", err)
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %s", err)
		}
	}

	// Unmarshal the config into the Config struct
	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %s", err)
	}
	fmt.Println("Successfully loaded app configs...")
	return config, nil
}
