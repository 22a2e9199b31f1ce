package server

import (
	"os"

	"github.com/pelletier/go-toml"

	"github.com/mxd-net/mxd-core/auth"
	"github.com/mxd-net/mxd-core/common/errors"
)

// Config is the runtime configuration of the server.
//
// The default bind address 0.0.0.0:5500 listens on all interfaces. This is
// convenient for local development; production deployments should bind a
// specific interface and sit behind their own network policy.
type Config struct {
	// Bind is the listener address.
	Bind string `toml:"bind"`
	// Database is the data store connection string. The literal "memory:"
	// selects the in-process store.
	Database string `toml:"database"`
	// Banner is an optional path to the server banner served by DownloadBanner.
	Banner string `toml:"banner"`
	// Argon2MCost is the hasher memory cost.
	Argon2MCost uint32 `toml:"argon2_m_cost"`
	// Argon2TCost is the hasher time cost.
	Argon2TCost uint32 `toml:"argon2_t_cost"`
	// Argon2PCost is the hasher parallelism.
	Argon2PCost uint32 `toml:"argon2_p_cost"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Bind:        "0.0.0.0:5500",
		Database:    "mongodb://127.0.0.1:27017/mxd",
		Argon2MCost: auth.DefaultMCost,
		Argon2TCost: auth.DefaultTCost,
		Argon2PCost: auth.DefaultPCost,
	}
}

// LoadConfig reads a TOML configuration file. Options absent from the file
// keep their defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("failed to read config file ", path).Base(err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, errors.New("failed to parse config file ", path).Base(err)
	}
	return config, nil
}
