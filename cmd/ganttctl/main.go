package main

import (
	"os"

	"ganttboard/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
