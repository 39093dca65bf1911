package main

import (
	"fmt"
	"os"

	"github.com/cmlabs-hris/hris-portal-go/internal/cli"
)

func main() {
	if err := cli.NewPortalCommand(nil).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
