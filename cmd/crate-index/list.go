package main

import (
	"fmt"
	"io"

	"github.com/Rust-Bucket/Crate-Index/tree"
	"github.com/spf13/cobra"
)

func newListCmd(cfg *config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [CRATE]",
		Short: "list the crates of the index, or the versions of a crate",
		Args:  cobra.MaximumNArgs(1),
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		name := ""
		if len(args) == 1 {
			name = args[0]
		}
		return listCmd(cmd.OutOrStdout(), cfg, name)
	}
	return cmd
}

func listCmd(out io.Writer, cfg *config, name string) error {
	root, err := cfg.root()
	if err != nil {
		return err
	}
	t, err := tree.OpenWithOptions(root, tree.OpenOptions{
		FS:     cfg.fs,
		Logger: cfg.log,
	})
	if err != nil {
		return err
	}

	if name == "" {
		for _, crate := range t.Crates() {
			fmt.Fprintln(out, crate)
		}
		return nil
	}

	f, err := t.File(name)
	if err != nil {
		return err
	}
	data, err := f.Bytes()
	if err != nil {
		return err
	}
	_, err = out.Write(data)
	return err
}
