// Package base defines shared types for the command line framework.
package base

import (
	"flag"
	"fmt"
	"os"
	"strings"
)

// A Command is an implementation of a subcommand.
type Command struct {
	// Run runs the command. The args are the arguments after the command name.
	Run func(cmd *Command, args []string)

	// UsageLine is the one-line usage message.
	// The words between the first word and the first flag are taken to be the command name.
	UsageLine string

	// Short is the short description shown in the 'help' output.
	Short string

	// Long is the long message shown in the 'help <this-command>' output.
	Long string

	// Flag is a set of flags specific to this command.
	Flag flag.FlagSet

	// Commands lists the available commands and help topics.
	// The order here is the order in which they are printed by 'help'.
	Commands []*Command
}

// Name returns the command's short name: the second word in the usage line.
func (c *Command) Name() string {
	name := c.UsageLine
	if i := strings.Index(name, " ["); i >= 0 {
		name = name[:i]
	}
	if i := strings.LastIndex(name, " "); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// Usage prints the usage of the command and exits.
func (c *Command) Usage() {
	fmt.Fprintf(os.Stderr, "usage: %s\n", ExpandUsage(c.UsageLine))
	fmt.Fprintf(os.Stderr, "Run '%s help %s' for details.\n", CommandEnv.Exec, c.Name())
	SetExitStatus(2)
	Exit()
}

// ExpandUsage substitutes the executable name into a usage line.
func ExpandUsage(line string) string {
	return strings.ReplaceAll(line, "{{.Exec}}", CommandEnv.Exec)
}

// Runnable reports whether the command can be run; otherwise it is a
// documentation pseudo-command.
func (c *Command) Runnable() bool {
	return c.Run != nil
}

// RootCommand is the root of the command tree.
var RootCommand = &Command{
	UsageLine: "mxd",
}

// DefaultCommand runs when the command line names no subcommand.
var DefaultCommand *Command

// RegisterCommand adds a command to the root command tree.
func RegisterCommand(cmd *Command) {
	RootCommand.Commands = append(RootCommand.Commands, cmd)
}
