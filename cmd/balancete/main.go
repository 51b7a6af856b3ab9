package main

import (
	"os"

	"balancete/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
