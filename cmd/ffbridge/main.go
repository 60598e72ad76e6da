// Command ffbridge streams finger curl force feedback to a driver.
package main

import (
	"fmt"
	"os"

	"github.com/ayusman/ffbridge/internal/cli"
	"github.com/ayusman/ffbridge/internal/tray"
)

func main() {
	if err := cli.Execute(tray.Run); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
