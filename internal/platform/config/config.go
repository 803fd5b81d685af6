package config

import (
	"time"

	"github.com/spf13/viper"
)

type Server struct {
	Addr string `mapstructure:"addr"`
}

type Postgres struct {
	DSN string `mapstructure:"dsn"`
}

type Redis struct {
	URL          string        `mapstructure:"url"`
	PoolSize     int           `mapstructure:"poolSize"`
	MinIdleConns int           `mapstructure:"minIdleConns"`
	DialTimeout  time.Duration `mapstructure:"dialTimeout"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
}

type S3 struct {
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"accessKeyID"`
	SecretAccessKey string `mapstructure:"secretAccessKey"`
}

type Storage struct {
	// Backend selects the blob store implementation: "s3" or "memory".
	// The choice happens here, at the composition root, never inside core logic.
	Backend string `mapstructure:"backend"`
}

type Scan struct {
	Interval time.Duration `mapstructure:"interval"`
}

type Config struct {
	Server   Server   `mapstructure:"server"`
	Postgres Postgres `mapstructure:"postgres"`
	Redis    Redis    `mapstructure:"redis"`
	S3       S3       `mapstructure:"s3"`
	Storage  Storage  `mapstructure:"storage"`
	Scan     Scan     `mapstructure:"scan"`
}

// Load reads config.yaml from path and overlays environment variables. A
// missing file is fine; env vars alone can configure the service.
func Load(path string) (Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	viper.BindEnv("server.addr", "SERVER_ADDR")
	viper.BindEnv("postgres.dsn", "POSTGRES_DSN")
	viper.BindEnv("redis.url", "REDIS_URL")
	viper.BindEnv("s3.bucket", "S3_BUCKET")
	viper.BindEnv("s3.region", "S3_REGION")
	viper.BindEnv("s3.accessKeyID", "S3_ACCESS_KEY_ID")
	viper.BindEnv("s3.secretAccessKey", "S3_SECRET_ACCESS_KEY")
	viper.BindEnv("storage.backend", "STORAGE_BACKEND")
	viper.BindEnv("scan.interval", "SCAN_INTERVAL")

	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("storage.backend", "s3")
	viper.SetDefault("scan.interval", 24*time.Hour)
	viper.SetDefault("redis.poolSize", 10)
	viper.SetDefault("redis.dialTimeout", 5*time.Second)
	viper.SetDefault("redis.readTimeout", 3*time.Second)
	viper.SetDefault("redis.writeTimeout", 3*time.Second)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
