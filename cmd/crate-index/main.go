package main

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
)

func exitError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

func main() {
	cwd, err := os.Getwd()
	if err != nil {
		exitError(err)
	}

	root := newRootCmd(cwd, afero.NewOsFs())
	if err = root.Execute(); err != nil {
		exitError(err)
	}
}
