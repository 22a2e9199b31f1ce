package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/mxd-net/mxd-core/main/commands/base"
)

var cmdAddFile = &base.Command{
	UsageLine: "{{.Exec}} add-file [-c config.toml] name size [username...]",
	Short:     "Register a file entry and grant access",
	Long: `
Register a file entry in the configured data store under a fresh object key
and grant the listed users access to it.
	`,
	Run: executeAddFile,
}

var addFileConfig string

func init() {
	cmdAddFile.Flag.StringVar(&addFileConfig, "config", "", "Config file for the server.")
	cmdAddFile.Flag.StringVar(&addFileConfig, "c", "", "Short alias of -config")
	base.RegisterCommand(cmdAddFile)
}

func executeAddFile(cmd *base.Command, args []string) {
	if len(args) < 2 {
		cmd.Usage()
	}
	name := args[0]
	size, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		base.Fatalf("invalid size %q: %s", args[1], err)
	}

	config, err := loadConfig(addFileConfig)
	if err != nil {
		base.Fatalf("failed to load config: %s", err)
	}

	ctx := context.Background()
	store, err := openStore(ctx, config)
	if err != nil {
		base.Fatalf("failed to open data store: %s", err)
	}
	defer store.Close(ctx)

	fileID, err := store.CreateFile(ctx, name, uuid.NewString(), size)
	if err != nil {
		base.Fatalf("failed to create file: %s", err)
	}

	for _, username := range args[2:] {
		user, err := store.UserByName(ctx, username)
		if err != nil {
			base.Fatalf("failed to look up %s: %s", username, err)
		}
		if err := store.AddFileACL(ctx, fileID, user.ID); err != nil {
			base.Fatalf("failed to grant %s access: %s", username, err)
		}
	}
	fmt.Printf("created file %s with id %d\n", name, fileID)
}
