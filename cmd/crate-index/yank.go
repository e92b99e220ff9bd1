package main

import (
	"fmt"
	"io"

	"github.com/Masterminds/semver/v3"
	"github.com/Rust-Bucket/Crate-Index/internal/errutil"
	"github.com/spf13/cobra"
)

func newYankCmd(cfg *config, yanked bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "yank CRATE VERSION",
		Short: "prevent new crates from depending on a version",
		Args:  cobra.ExactArgs(2),
	}
	if !yanked {
		cmd.Use = "unyank CRATE VERSION"
		cmd.Short = "allow new crates to depend on a yanked version"
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return yankCmd(cmd.OutOrStdout(), cfg, args[0], args[1], yanked)
	}
	return cmd
}

func yankCmd(out io.Writer, cfg *config, name, version string, yanked bool) (err error) {
	v, err := semver.StrictNewVersion(version)
	if err != nil {
		return fmt.Errorf("invalid version %q: %w", version, err)
	}

	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer errutil.Close(s, &err)

	action := "yanked"
	if yanked {
		err = s.Yank(name, v)
	} else {
		action = "unyanked"
		err = s.Unyank(name, v)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s %s#%s\n", action, name, v.String())
	return nil
}
