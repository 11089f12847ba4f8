package config

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
)

const (
	StoreMemory = "memory"
	StoreMongo  = "mongo"
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
)

type Config struct {
	Env      string `yaml:"env" env-default:"local" validate:"oneof=local dev prod"`
	LogPath  string `yaml:"log_path" env-default:""`
	Telegram struct {
		ApiKey      string `yaml:"api_key" env-default:"" validate:"required_if=Enabled true"`
		AdminId     int64  `yaml:"admin_id" env-default:"0"`
		BotName     string `yaml:"bot_name" env-default:"TgFlowBot"`
		Enabled     bool   `yaml:"enabled" env-default:"false"`
		RunnerName  string `yaml:"runner_name" env-default:""`
		DropPending bool   `yaml:"drop_pending" env-default:"true"`
	} `yaml:"telegram"`
	Store struct {
		Driver       string        `yaml:"driver" env-default:"memory" validate:"oneof=memory mongo redis sqlite"`
		CacheTTL     time.Duration `yaml:"cache_ttl" env-default:"0s"`
		CacheCleanup time.Duration `yaml:"cache_cleanup" env-default:"10m"`
	} `yaml:"store"`
	Mongo struct {
		Host     string `yaml:"host" env-default:"127.0.0.1"`
		Port     string `yaml:"port" env-default:"27017"`
		User     string `yaml:"user" env-default:""`
		Password string `yaml:"password" env-default:""`
		Database string `yaml:"database" env-default:"tgflow"`
	} `yaml:"mongo"`
	Redis struct {
		Addr     string `yaml:"addr" env-default:"127.0.0.1:6379"`
		Password string `yaml:"password" env-default:""`
		DB       int    `yaml:"db" env-default:"0" validate:"gte=0"`
		Prefix   string `yaml:"prefix" env-default:"tgflow"`
	} `yaml:"redis"`
	SQLite struct {
		Path string `yaml:"path" env-default:"tgflow.db"`
	} `yaml:"sqlite"`
	Listen struct {
		Enabled bool   `yaml:"enabled" env-default:"true"`
		BindIP  string `yaml:"bind_ip" env-default:"127.0.0.1"`
		Port    string `yaml:"port" env-default:"9100" validate:"numeric"`
		ApiKey  string `yaml:"key" env-default:""`
	} `yaml:"listen"`
	OpenAI struct {
		ApiKey string `yaml:"api_key" env-default:""`
		Model  string `yaml:"model" env-default:"gpt-4o-mini"`
	} `yaml:"openai"`
	I18n struct {
		Path            string `yaml:"path" env-default:"locales"`
		DefaultLanguage string `yaml:"default_language" env-default:"en" validate:"required"`
	} `yaml:"i18n"`
	Payments struct {
		ProviderToken string `yaml:"provider_token" env-default:""`
		Currency      string `yaml:"currency" env-default:"EUR" validate:"len=3"`
	} `yaml:"payments"`
}

var instance *Config
var once sync.Once

func MustLoad(path string) *Config {
	var err error
	once.Do(func() {
		instance = &Config{}
		if err = cleanenv.ReadConfig(path, instance); err != nil {
			desc, _ := cleanenv.GetDescription(instance, nil)
			err = fmt.Errorf("%s; %s", err, desc)
			instance = nil
			log.Fatal(err)
		}
		if err = instance.Validate(); err != nil {
			log.Fatal(err)
		}
	})
	return instance
}

// Validate checks the loaded values against the struct tags.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
