package main

import (
	"os"

	"regatta-resume/cli"
)

func main() {
	os.Exit(cli.Execute())
}
