package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"

	photobooth "github.com/menta2k/photobooth"
	"github.com/menta2k/photobooth/internal/cli"
)

func main() {
	root := cli.NewRootCmd()

	if err := fang.Execute(
		context.Background(),
		root,
		fang.WithVersion(photobooth.Version),
		fang.WithNotifySignal(os.Interrupt, os.Kill),
	); err != nil {
		os.Exit(1)
	}
}
