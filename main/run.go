package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mxd-net/mxd-core/main/commands/base"
	"github.com/mxd-net/mxd-core/server"
)

var cmdRun = &base.Command{
	UsageLine: "{{.Exec}} run [-c config.toml]",
	Short:     "Run the MXD server, the default command",
	Long: `
Run the MXD server with the given config, the default command.

The -config=file, -c=file flags set the TOML config file. Without one the
built-in defaults apply: bind 0.0.0.0:5500 and a local MongoDB data store.
	`,
}

var (
	configFile string
	configTest = cmdRun.Flag.Bool("test", false, "Load the config and the data store, then exit without serving.")

	/* Flags are bound in a var block so that tests parsing flags before main
	 * still see them registered. */
	_ = func() bool {
		cmdRun.Flag.StringVar(&configFile, "config", "", "Config file for the server.")
		cmdRun.Flag.StringVar(&configFile, "c", "", "Short alias of -config")
		return true
	}()
)

func init() {
	cmdRun.Run = executeRun // break init loop
	base.RegisterCommand(cmdRun)
	base.DefaultCommand = cmdRun
}

func executeRun(cmd *base.Command, args []string) {
	config, err := loadConfig(configFile)
	if err != nil {
		fmt.Println("Failed to start:", err)
		// Configuration error. Exit with a special value to prevent systemd from restarting.
		os.Exit(23)
	}

	ctx := context.Background()
	store, err := openStore(ctx, config)
	if err != nil {
		fmt.Println("Failed to start:", err)
		os.Exit(23)
	}
	defer store.Close(ctx)

	srv, err := server.New(config, store, newHasher(config))
	if err != nil {
		fmt.Println("Failed to start:", err)
		os.Exit(23)
	}

	if *configTest {
		fmt.Println("Configuration OK.")
		os.Exit(0)
	}

	if err := srv.Start(); err != nil {
		fmt.Println("Failed to start:", err)
		os.Exit(-1)
	}
	defer srv.Close()

	{
		osSignals := make(chan os.Signal, 1)
		signal.Notify(osSignals, os.Interrupt, syscall.SIGTERM)
		<-osSignals
	}
}
