package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App      App      `yaml:"app"`
	Database Database `yaml:"database"`
	Allows   Allows   `yaml:"allows"`
	Whatsapp Whatsapp `yaml:"whatsapp"`
}

type App struct {
	Name string `yaml:"name"`
	Port string `yaml:"port"`
	Host string `yaml:"host"`
}

type Database struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
	User string `yaml:"user"`
	Pass string `yaml:"pass"`
	Name string `yaml:"name"`
}

type Allows struct {
	Methods []string `yaml:"methods"`
	Origins []string `yaml:"origins"`
	Headers []string `yaml:"headers"`
}

type Whatsapp struct {
	CredentialsRoot    string `yaml:"credentials_root"`
	DefaultSession     string `yaml:"default_session"`
	StartTimeoutSec    int    `yaml:"start_timeout_sec"`
	StopTimeoutSec     int    `yaml:"stop_timeout_sec"`
	ShutdownTimeoutSec int    `yaml:"shutdown_timeout_sec"`
	PurgeIntervalMin   int    `yaml:"purge_interval_min"`
}

func InitConfig() *Config {
	var configs Config
	file_name, _ := filepath.Abs("./config.yaml")
	yaml_file, _ := os.ReadFile(file_name)
	yaml.Unmarshal(yaml_file, &configs)

	// Override with environment variables if they exist (for Docker)
	if dbHost := os.Getenv("DB_HOST"); dbHost != "" {
		configs.Database.Host = dbHost
	}
	if dbPort := os.Getenv("DB_PORT"); dbPort != "" {
		configs.Database.Port = dbPort
	}
	if dbUser := os.Getenv("DB_USER"); dbUser != "" {
		configs.Database.User = dbUser
	}
	if dbPassword := os.Getenv("DB_PASSWORD"); dbPassword != "" {
		configs.Database.Pass = dbPassword
	}
	if dbName := os.Getenv("DB_NAME"); dbName != "" {
		configs.Database.Name = dbName
	}

	// Override app configuration with environment variables
	if appHost := os.Getenv("APP_HOST"); appHost != "" {
		configs.App.Host = appHost
	}
	if appPort := os.Getenv("APP_PORT"); appPort != "" {
		configs.App.Port = appPort
	}
	if appName := os.Getenv("APP_NAME"); appName != "" {
		configs.App.Name = appName
	}

	// WhatsApp session manager overrides
	if credRoot := os.Getenv("WA_CREDENTIALS_ROOT"); credRoot != "" {
		configs.Whatsapp.CredentialsRoot = credRoot
	}
	if defSession := os.Getenv("WA_DEFAULT_SESSION"); defSession != "" {
		configs.Whatsapp.DefaultSession = defSession
	}

	// Defaults
	if configs.Whatsapp.CredentialsRoot == "" {
		configs.Whatsapp.CredentialsRoot = "./wa-credentials"
	}
	if configs.Whatsapp.StartTimeoutSec <= 0 {
		configs.Whatsapp.StartTimeoutSec = 60
	}
	if configs.Whatsapp.StopTimeoutSec <= 0 {
		configs.Whatsapp.StopTimeoutSec = 10
	}
	if configs.Whatsapp.ShutdownTimeoutSec <= 0 {
		configs.Whatsapp.ShutdownTimeoutSec = 20
	}

	return &configs
}
