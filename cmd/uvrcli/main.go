package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/shidetake/uvrcli/internal/cli"
)

func main() {
	err := cli.Execute()

	// Validation messages are already on stdout
	var validationErr *cli.ValidationError
	if err != nil && !errors.As(err, &validationErr) {
		fmt.Fprintf(os.Stderr, "\nError: %v\n", err)
	}

	os.Exit(cli.ExitCode(err))
}
