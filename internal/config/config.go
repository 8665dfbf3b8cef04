package config

import (
	"fmt"
	"log"
	"sync"

	"github.com/ilyakaznacheev/cleanenv"

	"doorlist/entity"
)

type Listen struct {
	BindIp string `yaml:"bind_ip" env-default:"0.0.0.0"`
	Port   string `yaml:"port" env-default:"8080"`
}

type SheetsConfig struct {
	BaseURL        string `yaml:"base_url" env-default:"https://sheets.googleapis.com"`
	Token          string `yaml:"token" env-default:""`
	DefaultSheetID string `yaml:"default_sheet_id" env-default:""`
	Tab            string `yaml:"tab" env-default:"Sheet1"`
}

type MongoConfig struct {
	Enabled  bool   `yaml:"enabled" env-default:"false"`
	Host     string `yaml:"host" env-default:"localhost"`
	Port     string `yaml:"port" env-default:"27017"`
	User     string `yaml:"user" env-default:""`
	Password string `yaml:"password" env-default:""`
	Database string `yaml:"database" env-default:"doorlist"`
}

type AttributionConfig struct {
	Enabled  bool   `yaml:"enabled" env-default:"false"`
	HostName string `yaml:"host_name" env-default:"localhost"`
	Port     string `yaml:"port" env-default:"3306"`
	UserName string `yaml:"user_name" env-default:""`
	Password string `yaml:"password" env-default:""`
	Database string `yaml:"database" env-default:"doorlist"`
	Table    string `yaml:"table" env-default:"attribution"`
}

type StripeConfig struct {
	Enabled           bool   `yaml:"enabled" env-default:"false"`
	APIKey            string `yaml:"api_key" env-default:""`
	WebhookSecret     string `yaml:"webhook_secret" env-default:""`
	TestMode          bool   `yaml:"test_mode" env-default:"false"`
	TestKey           string `yaml:"test_key" env-default:""`
	TestWebhookSecret string `yaml:"test_webhook_secret" env-default:""`
	SuccessURL        string `yaml:"success_url" env-default:""`
}

type TelegramConfig struct {
	Enabled bool   `yaml:"enabled" env-default:"false"`
	ApiKey  string `yaml:"api_key" env-default:""`
}

type Config struct {
	Env         string               `yaml:"env" env-default:"local"`
	Listen      Listen               `yaml:"listen"`
	Sheets      SheetsConfig         `yaml:"sheets"`
	Events      []entity.EventConfig `yaml:"events"`
	Mongo       MongoConfig          `yaml:"mongo"`
	Attribution AttributionConfig    `yaml:"attribution"`
	Stripe      StripeConfig         `yaml:"stripe"`
	Telegram    TelegramConfig       `yaml:"telegram"`
}

var instance *Config
var once sync.Once

func MustLoad(path string) *Config {
	var err error
	once.Do(func() {
		instance = &Config{}
		if err = cleanenv.ReadConfig(path, instance); err != nil {
			desc, _ := cleanenv.GetDescription(instance, nil)
			err = fmt.Errorf("config: %s; %s", err, desc)
			instance = nil
			log.Fatal(err)
		}
	})
	return instance
}

// Event resolves a store reference to its event configuration. An empty
// ref falls back to the default sheet when one is configured. A nil
// result means the ref has no backing configuration.
func (c *Config) Event(ref string) *entity.EventConfig {
	if ref == "" {
		if c.Sheets.DefaultSheetID == "" {
			return nil
		}
		return &entity.EventConfig{
			Ref:         "default",
			DisplayName: "Guest List",
			SheetID:     c.Sheets.DefaultSheetID,
		}
	}
	for i := range c.Events {
		if c.Events[i].Ref == ref {
			return &c.Events[i]
		}
	}
	return nil
}
