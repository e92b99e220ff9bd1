package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	crateindex "github.com/Rust-Bucket/Crate-Index"
	"github.com/Rust-Bucket/Crate-Index/internal/gitpath"
	"github.com/Rust-Bucket/Crate-Index/internal/logging"
	"github.com/Rust-Bucket/Crate-Index/internal/pathutil"
	"github.com/Rust-Bucket/Crate-Index/record"
	"github.com/Rust-Bucket/Crate-Index/tree"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// envPrefix is the prefix of the environment variables that can be
// used instead of the flags. ex. CRATE_INDEX_LOG_LEVEL=debug
const envPrefix = "CRATE_INDEX"

// Keys of the settings shared by all the commands
const (
	keyRoot     = "root"
	keyLogLevel = "log-level"
	keyLogFile  = "log-file"
)

type config struct {
	fs afero.Fs
	v  *viper.Viper

	C          *pathutil.PathValue // simpler version of git's -C
	configFile *pathutil.PathValue
	logFile    *pathutil.PathValue

	log logrus.FieldLogger
}

func newRootCmd(cwd string, fs afero.Fs) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "crate-index",
		Short:         "manage a git-backed index of crates",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cfg := &config{
		fs:         fs,
		v:          viper.New(),
		C:          pathutil.NewDirPathFlag(fs, cwd, false),
		configFile: pathutil.NewFilePathFlag(fs, "", true),
		logFile:    pathutil.NewFilePathFlag(afero.NewOsFs(), "", false),
		log:        logging.Discard(),
	}
	cfg.v.SetFs(fs)
	cfg.v.SetEnvPrefix(envPrefix)
	cfg.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	cfg.v.AutomaticEnv()

	flags := cmd.PersistentFlags()
	flags.VarP(cfg.C, keyRoot, "C", "Run as if crate-index was started in the provided path instead of the current working directory.")
	flags.Var(cfg.configFile, "config", "Configuration file (yaml, json, or toml) containing default values for the flags.")
	flags.String(keyLogLevel, logrus.InfoLevel.String(), "Minimum level of the logs (debug, info, warn, error).")
	flags.Var(cfg.logFile, keyLogFile, "Write the logs to the provided file instead of stderr. The file is rotated when it gets too big.")
	bindFlags(cfg.v, flags, keyRoot, keyLogLevel, keyLogFile)

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return cfg.load(cmd.ErrOrStderr())
	}

	cmd.AddCommand(newInitCmd(cfg))
	cmd.AddCommand(newInsertCmd(cfg))
	cmd.AddCommand(newYankCmd(cfg, true))
	cmd.AddCommand(newYankCmd(cfg, false))
	cmd.AddCommand(newListCmd(cfg))
	cmd.AddCommand(newPushCmd(cfg))
	cmd.AddCommand(newPullCmd(cfg))
	cmd.AddCommand(newCloneCmd(cfg))

	return cmd
}

// bindFlags binds the provided flags to the viper keys of the same
// name, so they can also be set from the config file or the env
func bindFlags(v *viper.Viper, flags *pflag.FlagSet, names ...string) {
	for _, name := range names {
		// BindPFlag only fails when the flag is nil
		if err := v.BindPFlag(name, flags.Lookup(name)); err != nil {
			panic(fmt.Sprintf("could not bind flag %s: %s", name, err.Error()))
		}
	}
}

// load reads the config file, if any, and sets up the logger
func (cfg *config) load(errOut io.Writer) error {
	if p := cfg.configFile.String(); p != "" {
		cfg.v.SetConfigFile(p)
		if err := cfg.v.ReadInConfig(); err != nil {
			return fmt.Errorf("could not read the configuration file %s: %w", p, err)
		}
	}

	logger, err := logging.New(logging.Options{
		Level:      cfg.v.GetString(keyLogLevel),
		FilePath:   cfg.v.GetString(keyLogFile),
		MaxSize:    10,
		MaxBackups: 3,
		Compress:   true,
		JSON:       true,
		Out:        errOut,
	})
	if err != nil {
		return err
	}
	cfg.log = logger
	return nil
}

// root returns the absolute path of the index
func (cfg *config) root() (string, error) {
	p, err := filepath.Abs(cfg.v.GetString(keyRoot))
	if err != nil {
		return "", fmt.Errorf("could not find absolute path: %w", err)
	}
	return p, nil
}

// store represents an index that can be modified
type store interface {
	Insert(r *record.Record) error
	Yank(name string, v *semver.Version) error
	Unyank(name string, v *semver.Version) error
	Tree() *tree.Tree
	Close() error
}

var (
	_ store = (*crateindex.Index)(nil)
	_ store = plainTree{}
)

// plainTree is an index that was created without git. Nothing is
// committed
type plainTree struct {
	t *tree.Tree
}

func (p plainTree) Insert(r *record.Record) error { return p.t.Insert(r) }
func (p plainTree) Tree() *tree.Tree { return p.t }
func (p plainTree) Close() error { return nil }

func (p plainTree) Yank(name string, v *semver.Version) error {
	return p.t.Yank(name, v)
}

func (p plainTree) Unyank(name string, v *semver.Version) error {
	return p.t.Unyank(name, v)
}

// openStore opens the index located at the root. The changes are
// committed if the index has a git repository
func openStore(cfg *config) (store, error) {
	root, err := cfg.root()
	if err != nil {
		return nil, err
	}

	_, statErr := cfg.fs.Stat(filepath.Join(root, gitpath.DotGitPath))
	switch {
	case statErr == nil:
		idx, err := openIndex(cfg)
		if err != nil {
			return nil, err
		}
		return idx, nil
	case errors.Is(statErr, os.ErrNotExist):
		cfg.log.WithField("root", root).Debug("no git repository, changes will not be committed")
		t, err := tree.OpenWithOptions(root, tree.OpenOptions{
			FS:     cfg.fs,
			Logger: cfg.log,
		})
		if err != nil {
			return nil, err
		}
		return plainTree{t: t}, nil
	default:
		return nil, fmt.Errorf("could not check %s: %w", root, statErr)
	}
}

// openIndex opens the index located at the root. The index must have
// a git repository
func openIndex(cfg *config) (*crateindex.Index, error) {
	root, err := cfg.root()
	if err != nil {
		return nil, err
	}
	return crateindex.OpenWithOptions(root, crateindex.OpenOptions{
		FS:     cfg.fs,
		Logger: cfg.log,
	})
}
