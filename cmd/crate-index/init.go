package main

import (
	"fmt"
	"io"

	crateindex "github.com/Rust-Bucket/Crate-Index"
	"github.com/Rust-Bucket/Crate-Index/git"
	"github.com/Rust-Bucket/Crate-Index/tree"
	"github.com/spf13/cobra"
)

const (
	keyAPI             = "api"
	keyAllowedRegistry = "allowed-registry"
	keyAllowCratesIO   = "allow-crates-io"
	keyOrigin          = "origin"
	keyUserName        = "user-name"
	keyUserEmail       = "user-email"
	keyNoGit           = "no-git"
)

func newInitCmd(cfg *config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init DOWNLOAD_URL",
		Short: "create a new empty index",
		Long: "Create a new empty index in the current directory.\n" +
			"DOWNLOAD_URL is the URL used to download a crate, it may contain the {crate} and {version} markers.",
		Args: cobra.ExactArgs(1),
	}

	flags := cmd.Flags()
	flags.String(keyAPI, "", "Base URL of the web API of the registry.")
	flags.StringSlice(keyAllowedRegistry, nil, "URL of an index the crates are allowed to depend on. Can be repeated.")
	flags.Bool(keyAllowCratesIO, false, "Allow the crates to depend on crates.io.")
	flags.String(keyOrigin, "", "URL of the git repository the index is pushed to.")
	flags.String(keyUserName, "", "Name of the author of the commits.")
	flags.String(keyUserEmail, "", "Email of the author of the commits.")
	flags.Bool(keyNoGit, false, "Don't create a git repository. The changes made to the index will not be committed.")
	bindFlags(cfg.v, flags, keyAPI, keyAllowedRegistry, keyAllowCratesIO, keyOrigin, keyUserName, keyUserEmail, keyNoGit)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		p := initParams{
			download:          args[0],
			api:               cfg.v.GetString(keyAPI),
			allowedRegistries: cfg.v.GetStringSlice(keyAllowedRegistry),
			allowCratesIO:     cfg.v.GetBool(keyAllowCratesIO),
			origin:            cfg.v.GetString(keyOrigin),
			userName:          cfg.v.GetString(keyUserName),
			userEmail:         cfg.v.GetString(keyUserEmail),
			noGit:             cfg.v.GetBool(keyNoGit),
		}
		return initCmd(cmd.OutOrStdout(), cfg, p)
	}
	return cmd
}

type initParams struct {
	download          string
	api               string
	allowedRegistries []string
	allowCratesIO     bool
	origin            string
	userName          string
	userEmail         string
	noGit             bool
}

func initCmd(out io.Writer, cfg *config, p initParams) error {
	root, err := cfg.root()
	if err != nil {
		return err
	}

	if p.noGit {
		if p.origin != "" || p.userName != "" || p.userEmail != "" {
			return fmt.Errorf("--%s cannot be used with --%s, --%s, or --%s", keyNoGit, keyOrigin, keyUserName, keyUserEmail)
		}
		_, err = tree.InitWithOptions(root, p.download, tree.InitOptions{
			API:               p.api,
			AllowedRegistries: p.allowedRegistries,
			AllowCratesIO:     p.allowCratesIO,
			FS:                cfg.fs,
			Logger:            cfg.log,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Initialized empty crate index in %s\n", root)
		return nil
	}

	opts := crateindex.InitOptions{
		API:               p.api,
		AllowedRegistries: p.allowedRegistries,
		AllowCratesIO:     p.allowCratesIO,
		Origin:            p.origin,
		FS:                cfg.fs,
		Logger:            cfg.log,
	}
	if p.userName != "" || p.userEmail != "" {
		opts.Identity = &crateindex.Identity{
			Name:  p.userName,
			Email: p.userEmail,
		}
		if opts.Identity.Name == "" {
			opts.Identity.Name = git.DefaultUserName
		}
		if opts.Identity.Email == "" {
			opts.Identity.Email = git.DefaultUserEmail
		}
	}
	idx, err := crateindex.InitWithOptions(root, p.download, opts)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Initialized empty crate index in %s\n", root)
	return idx.Close()
}
