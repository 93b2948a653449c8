package main

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/nkiryanov/socialfeed/internal/logger"
)

const (
	defaultListenAddr   = "localhost:3000"
	defaultCORSOrigin   = "http://localhost:5173"
	defaultLoggingLevel = logger.LevelInfo
	defaultEnvironment  = logger.EnvProduction
)

type Config struct {
	// Default logging level
	LogLevel string

	// Address on which the server will be run
	ListenAddr string

	// Database to connect to
	DatabaseDSN string

	// Origin of the web client allowed to make cross-origin requests
	CORSOrigin string

	// Redis to cache the feed in. Cache is disabled if empty
	RedisURL string

	// Environment
	Environment string

	// RUN_ADDRESS seen in any loaded source, bare PORT is ignored after that
	addrFromEnv bool
}

func NewConfig() *Config {
	return &Config{
		LogLevel:    defaultLoggingLevel,
		ListenAddr:  defaultListenAddr,
		CORSOrigin:  defaultCORSOrigin,
		Environment: defaultEnvironment,
	}
}

// Load variable from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		c.LoadEnv(func(key string) string {
			return envMap[key]
		})
		return nil
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) {
	// Set option to value if it not empty
	setString := func(o *string) func(value string) {
		return func(value string) {
			if value != "" {
				*o = value
			}
		}
	}

	// Bare PORT is what most hostings provide. RUN_ADDRESS from any source wins over it
	if addr := getenv("RUN_ADDRESS"); addr != "" {
		c.ListenAddr = addr
		c.addrFromEnv = true
	} else if !c.addrFromEnv {
		setString(&c.ListenAddr)(portToAddr(getenv("PORT")))
	}

	envMap := map[string]func(string){
		"DATABASE_URI": setString(&c.DatabaseDSN),
		"CORS_ORIGIN":  setString(&c.CORSOrigin),
		"REDIS_URL":    setString(&c.RedisURL),
		"LOG_LEVEL":    setString(&c.LogLevel),
		"ENVIRONMENT":  setString(&c.Environment),
	}

	for key, parseFn := range envMap {
		parseFn(getenv(key))
	}
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("socialfeed", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Database connection string")
	fs.StringVarP(&c.CORSOrigin, "cors-origin", "o", c.CORSOrigin, "Origin allowed to make cross-origin requests")
	fs.StringVarP(&c.RedisURL, "redis", "r", c.RedisURL, "Redis address or url to cache feed in")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (dev, prod)")

	return fs.Parse(args)
}

func (c *Config) Validate() error {
	if c.DatabaseDSN == "" {
		return errors.New("database connection string is required")
	}
	return nil
}

func portToAddr(port string) string {
	if port == "" {
		return ""
	}
	return ":" + port
}
