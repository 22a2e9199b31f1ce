package main

import (
	"context"
	"fmt"

	"github.com/mxd-net/mxd-core/main/commands/base"
)

var cmdCreateUser = &base.Command{
	UsageLine: "{{.Exec}} create-user [-c config.toml] username password",
	Short:     "Create a new user account",
	Long: `
Create a new user account in the configured data store. The password is
hashed with the same Argon2 parameters the server uses.
	`,
	Run: executeCreateUser,
}

var createUserConfig string

func init() {
	cmdCreateUser.Flag.StringVar(&createUserConfig, "config", "", "Config file for the server.")
	cmdCreateUser.Flag.StringVar(&createUserConfig, "c", "", "Short alias of -config")
	base.RegisterCommand(cmdCreateUser)
}

func executeCreateUser(cmd *base.Command, args []string) {
	if len(args) != 2 {
		cmd.Usage()
	}
	username, password := args[0], args[1]

	config, err := loadConfig(createUserConfig)
	if err != nil {
		base.Fatalf("failed to load config: %s", err)
	}

	ctx := context.Background()
	store, err := openStore(ctx, config)
	if err != nil {
		base.Fatalf("failed to open data store: %s", err)
	}
	defer store.Close(ctx)

	hashed, err := newHasher(config).Hash(password)
	if err != nil {
		base.Fatalf("failed to hash password: %s", err)
	}

	id, err := store.CreateUser(ctx, username, hashed)
	if err != nil {
		base.Fatalf("failed to create user: %s", err)
	}
	fmt.Printf("created user %s with id %d\n", username, id)
}
