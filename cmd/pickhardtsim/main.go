package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"
)

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "[pickhardtsim] %v\n", err)
	os.Exit(1)
}

func main() {
	app := cli.NewApp()
	app.Name = "pickhardtsim"
	app.Usage = "simulate probabilistic multi-path payment routing over a channel graph"
	app.Flags = globalFlags
	app.Commands = []cli.Command{
		runCommand,
		dijkstraCommand,
	}

	if err := app.Run(os.Args); err != nil {
		fatal(err)
	}
}
