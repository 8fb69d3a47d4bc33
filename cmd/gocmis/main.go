package main

import (
	"os"

	"github.com/content-forge/gocmis/internal/cmd"
)

func main() {
	os.Exit(cmd.Main(os.Args))
}
