package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/roach88/callerid/internal/cli"
)

func main() {
	err := cli.NewRootCommand().ExecuteContext(context.Background())
	if err == nil {
		return
	}

	// Commands report their own failures; anything else came from flag or
	// argument parsing.
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
