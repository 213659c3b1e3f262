package main

import (
	"os"

	"attune/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
