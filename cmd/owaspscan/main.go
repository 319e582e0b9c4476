package main

import (
	"os"

	"github.com/raysh454/owaspscan/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:], cli.StdIO()))
}
