package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/adrg/xdg"
	"github.com/ilyakaznacheev/cleanenv"
)

const xdgConfigFile = "tictactoe/config.yml"

type Config struct {
	LogLevel   string        `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort   string        `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	SocketPort string        `yaml:"socket-port" env:"SOCKET_PORT" env-default:"8080"`
	SessionTTL time.Duration `yaml:"session-ttl" env:"SESSION_TTL" env-default:"1h"`
	Redis      Redis         `yaml:"redis"`
}

type Redis struct {
	Host string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

func Load(path string) (*Config, error) {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("unable to load config file: %w", err)
	}

	return config, nil
}

// LoadUser reads tictactoe/config.yml from the XDG config directories and
// falls back to environment variables and defaults when there is none.
func LoadUser() (*Config, error) {
	path, err := xdg.SearchConfigFile(xdgConfigFile)
	if err == nil {
		return Load(path)
	}

	config := &Config{}
	if err = cleanenv.ReadEnv(config); err != nil {
		return nil, fmt.Errorf("unable to read config from env: %w", err)
	}

	return config, nil
}

// StateFile returns a path under the XDG state directory, creating parents.
func StateFile(name string) (string, error) {
	if name == "" {
		return "", errors.New("empty state file name")
	}

	path, err := xdg.StateFile("tictactoe/" + name)
	if err != nil {
		return "", fmt.Errorf("unable to resolve state file: %w", err)
	}

	return path, nil
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
