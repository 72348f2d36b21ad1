package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"

	pagesplitter "github.com/menta2k/page-splitter"
)

func main() {
	root := newRootCmd()

	if err := fang.Execute(
		context.Background(),
		root,
		fang.WithVersion(pagesplitter.Version),
		fang.WithNotifySignal(os.Interrupt, os.Kill),
	); err != nil {
		os.Exit(1)
	}
}
