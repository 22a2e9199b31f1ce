package base

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// CommandEnv holds the environment exposed to usage templates.
var CommandEnv = struct {
	Exec string
}{
	Exec: execName(),
}

func execName() string {
	exec, err := os.Executable()
	if err != nil {
		return "mxd"
	}
	return filepath.Base(exec)
}

var (
	exitStatus   = 0
	exitMu       sync.Mutex
	atExitFuncs  []func()
	atExitCalled bool
)

// SetExitStatus records the exit code of the process.
func SetExitStatus(n int) {
	exitMu.Lock()
	if exitStatus < n {
		exitStatus = n
	}
	exitMu.Unlock()
}

// Exit runs the registered exit hooks and terminates the process.
func Exit() {
	exitMu.Lock()
	funcs := atExitFuncs
	atExitCalled = true
	exitMu.Unlock()
	for _, f := range funcs {
		f()
	}
	os.Exit(exitStatus)
}

// AtExit registers a hook to run before Exit terminates the process.
func AtExit(f func()) {
	exitMu.Lock()
	defer exitMu.Unlock()
	if atExitCalled {
		panic("AtExit after Exit")
	}
	atExitFuncs = append(atExitFuncs, f)
}

// Fatalf prints the message to stderr and exits with a failure status.
func Fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	SetExitStatus(1)
	Exit()
}

// Execute parses the command line and runs the selected command.
func Execute() {
	flag.Parse()
	args := flag.Args()
	if len(args) < 1 {
		if DefaultCommand != nil && DefaultCommand.Runnable() {
			cmd := DefaultCommand
			cmd.Flag.Usage = func() { cmd.Usage() }
			cmd.Flag.Parse(args)
			cmd.Run(cmd, cmd.Flag.Args())
			Exit()
		}
		usage()
		return
	}

	if args[0] == "help" {
		help(args[1:])
		Exit()
		return
	}

	for _, cmd := range RootCommand.Commands {
		if cmd.Name() != args[0] || !cmd.Runnable() {
			continue
		}
		cmd.Flag.Usage = func() { cmd.Usage() }
		cmd.Flag.Parse(args[1:])
		cmd.Run(cmd, cmd.Flag.Args())
		Exit()
		return
	}

	fmt.Fprintf(os.Stderr, "%s %s: unknown command\n", CommandEnv.Exec, args[0])
	fmt.Fprintf(os.Stderr, "Run '%s help' for usage.\n", CommandEnv.Exec)
	SetExitStatus(2)
	Exit()
}

func usage() {
	fmt.Fprintf(os.Stderr, "%s\n\nUsage:\n\n\t%s <command> [arguments]\n\nThe commands are:\n\n", RootCommand.Long, CommandEnv.Exec)
	for _, cmd := range RootCommand.Commands {
		if cmd.Runnable() {
			fmt.Fprintf(os.Stderr, "\t%-15s %s\n", cmd.Name(), cmd.Short)
		}
	}
	fmt.Fprintf(os.Stderr, "\nUse \"%s help <command>\" for more information about a command.\n", CommandEnv.Exec)
}

func help(args []string) {
	if len(args) == 0 {
		usage()
		return
	}
	for _, cmd := range RootCommand.Commands {
		if cmd.Name() == args[0] {
			fmt.Fprintf(os.Stderr, "usage: %s\n%s\n", ExpandUsage(cmd.UsageLine), cmd.Long)
			return
		}
	}
	fmt.Fprintf(os.Stderr, "Unknown help topic %#q.\n", args[0])
	SetExitStatus(2)
}
