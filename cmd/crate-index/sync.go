package main

import (
	"fmt"
	"io"

	crateindex "github.com/Rust-Bucket/Crate-Index"
	"github.com/Rust-Bucket/Crate-Index/internal/errutil"
	"github.com/spf13/cobra"
)

func newPushCmd(cfg *config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "push",
		Short: "send the commits of the index to its origin",
		Args:  cobra.NoArgs,
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return pushCmd(cmd.OutOrStdout(), cfg)
	}
	return cmd
}

func pushCmd(out io.Writer, cfg *config) (err error) {
	idx, err := openIndex(cfg)
	if err != nil {
		return err
	}
	defer errutil.Close(idx, &err)

	if err = idx.Push(); err != nil {
		return err
	}
	fmt.Fprintln(out, "index pushed")
	return nil
}

func newPullCmd(cfg *config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pull",
		Short: "update the index with the commits of its origin",
		Args:  cobra.NoArgs,
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return pullCmd(cmd.OutOrStdout(), cfg)
	}
	return cmd
}

func pullCmd(out io.Writer, cfg *config) (err error) {
	idx, err := openIndex(cfg)
	if err != nil {
		return err
	}
	defer errutil.Close(idx, &err)

	if err = idx.Pull(); err != nil {
		return err
	}
	fmt.Fprintf(out, "index up to date, %d crates\n", len(idx.Tree().Crates()))
	return nil
}

func newCloneCmd(cfg *config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clone URL",
		Short: "copy the index stored in the git repository at URL into the current directory",
		Args:  cobra.ExactArgs(1),
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return cloneCmd(cmd.OutOrStdout(), cfg, args[0])
	}
	return cmd
}

func cloneCmd(out io.Writer, cfg *config, url string) (err error) {
	root, err := cfg.root()
	if err != nil {
		return err
	}
	idx, err := crateindex.Clone(url, root, crateindex.OpenOptions{
		FS:     cfg.fs,
		Logger: cfg.log,
	})
	if err != nil {
		return err
	}
	defer errutil.Close(idx, &err)

	fmt.Fprintf(out, "Cloned %s into %s\n", url, root)
	return nil
}
