// Command reportql compiles and runs restricted report queries.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/reportql/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err == nil {
		return
	}

	// Commands print their own errors; usage errors from flag parsing and
	// global option checks arrive here unprinted.
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCommandError)
	}
	os.Exit(exitErr.Code)
}
