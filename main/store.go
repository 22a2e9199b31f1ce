package main

import (
	"context"
	"strings"

	"github.com/mxd-net/mxd-core/auth"
	"github.com/mxd-net/mxd-core/common/errors"
	"github.com/mxd-net/mxd-core/datastore"
	"github.com/mxd-net/mxd-core/datastore/memory"
	"github.com/mxd-net/mxd-core/datastore/mongo"
	"github.com/mxd-net/mxd-core/server"
)

// openStore opens the data store selected by the configuration. The literal
// "memory:" selects the in-process store; anything else is a MongoDB
// connection string.
func openStore(ctx context.Context, config *server.Config) (datastore.DataStore, error) {
	if config.Database == "memory:" {
		return memory.New(), nil
	}
	store, err := mongo.Open(ctx, config.Database)
	if err != nil {
		return nil, errors.New("failed to open data store").Base(err)
	}
	return store, nil
}

// newHasher builds the process-wide password hasher from the configuration.
func newHasher(config *server.Config) auth.PasswordHasher {
	return auth.NewArgon2Hasher(config.Argon2MCost, config.Argon2TCost, config.Argon2PCost)
}

// loadConfig loads the configuration file when one is given, the defaults
// otherwise.
func loadConfig(path string) (*server.Config, error) {
	if strings.TrimSpace(path) == "" {
		return server.DefaultConfig(), nil
	}
	return server.LoadConfig(path)
}
