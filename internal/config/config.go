package config

import (
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"bigtwo-server/internal/util"
)

// Config provides configuration for the Big Two server
type Config struct {
	loaded bool
	JWT    struct {
		PublicKey  string `yaml:"publicKey" envconfig:"public_key"`
		PrivateKey string `yaml:"privateKey" envconfig:"private_key"`
	}
	Log struct {
		Level             string `yaml:"level" envconfig:"level"`
		DisableAccessLogs bool   `yaml:"disableAccessLogs" envconfig:"disable_access_logs"`
	}
	// EndGameDelay is the number of seconds between the final game status
	// broadcast and the room being released for a new game
	EndGameDelay int `yaml:"endGameDelay" envconfig:"end_game_delay"`
}

var config Config

// Instance returns a singleton instance
// If the config hasn't been loaded, it will be loaded
func Instance() Config {
	if !config.loaded {
		if err := Load(); err != nil {
			panic(err)
		}
	}

	return config
}

// Load will load the configuration
func Load() error {
	config = Config{
		EndGameDelay: 5,
	}

	configFile := util.Getenv("BIG2_CONFIG_FILE", "config.yaml")
	file, err := os.Open(configFile)
	if err == nil {
		defer file.Close()

		if err := yaml.NewDecoder(file).Decode(&config); err != nil {
			return err
		}
	} else if !os.IsNotExist(err) {
		return err
	}

	if err := envconfig.Process("big2", &config); err != nil {
		return err
	}

	config.loaded = true
	return nil
}
