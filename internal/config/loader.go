package config

import (
	"log"

	"github.com/rpattn/engrest/internal/db"

	"github.com/spf13/viper"
)

// Server holds HTTP-facing settings.
type Server struct {
	Port            int
	AllowedOrigins  []string
	DefaultPageSize int
	MaxPageSize     int
	MigrationsPath  string
}

// Config is the full application configuration.
type Config struct {
	DB     db.Config
	Server Server
}

// DefaultServer returns default HTTP settings.
func DefaultServer() Server {
	return Server{
		Port:            8080,
		AllowedOrigins:  []string{"http://localhost:3000"},
		DefaultPageSize: 0,
		MaxPageSize:     500,
		MigrationsPath:  "./migrations",
	}
}

// Load reads config.yaml from configPath with environment overrides.
func Load(configPath string) (Config, error) {
	cfg := Config{
		DB:     db.DefaultConfig(),
		Server: DefaultServer(),
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AutomaticEnv()
	v.SetEnvPrefix("ENGREST")

	v.BindEnv("database.host")
	v.BindEnv("database.port")
	v.BindEnv("database.user")
	v.BindEnv("database.password")
	v.BindEnv("database.dbname")
	v.BindEnv("database.sslmode")
	v.BindEnv("server.port")

	if err := v.ReadInConfig(); err != nil {
		// Config file not found? Use defaults + env.
		log.Println("No config.yaml found, using defaults and env vars")
	} else {
		log.Println("Loaded config.yaml")
	}

	if v.IsSet("database.host") {
		cfg.DB.Host = v.GetString("database.host")
	}
	if v.IsSet("database.port") {
		cfg.DB.Port = v.GetInt("database.port")
	}
	if v.IsSet("database.user") {
		cfg.DB.User = v.GetString("database.user")
	}
	if v.IsSet("database.password") {
		cfg.DB.Password = v.GetString("database.password")
	}
	if v.IsSet("database.dbname") {
		cfg.DB.DBName = v.GetString("database.dbname")
	}
	if v.IsSet("database.sslmode") {
		cfg.DB.SSLMode = v.GetString("database.sslmode")
	}

	if v.IsSet("server.port") {
		cfg.Server.Port = v.GetInt("server.port")
	}
	if v.IsSet("server.allowed_origins") {
		cfg.Server.AllowedOrigins = v.GetStringSlice("server.allowed_origins")
	}
	if v.IsSet("server.default_page_size") {
		cfg.Server.DefaultPageSize = v.GetInt("server.default_page_size")
	}
	if v.IsSet("server.max_page_size") {
		cfg.Server.MaxPageSize = v.GetInt("server.max_page_size")
	}
	if v.IsSet("server.migrations_path") {
		cfg.Server.MigrationsPath = v.GetString("server.migrations_path")
	}

	return cfg, nil
}
