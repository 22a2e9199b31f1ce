// The mxd command runs the MXD server and its administrative tools.
package main

import (
	"github.com/mxd-net/mxd-core/main/commands/base"
)

func main() {
	base.RootCommand.Long = "mxd is a Hotline-style chat, file and news server."
	base.Execute()
}
