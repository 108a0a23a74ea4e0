// mmconsole is a remote console for the robot. It keeps a background poller
// draining the radio link into a log while the operator issues commands.
package main

import (
	"os"

	"github.com/ccollicutt/mmconsole/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
