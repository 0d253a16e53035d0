package main

import (
	"github.com/teemow/calgate/cmd"
)

// version is set with -ldflags at release time.
var version = "dev"

func main() {
	cmd.SetVersion(version)
	cmd.Execute()
}
