package main

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/Rust-Bucket/Crate-Index/internal/errutil"
	"github.com/Rust-Bucket/Crate-Index/record"
	"github.com/spf13/cobra"
)

// maxRecordSize is the maximum size of a line of the input
const maxRecordSize = 1024 * 1024

func newInsertCmd(cfg *config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "insert [FILE|-]",
		Short: "add new versions of crates to the index",
		Long: "Add new versions of crates to the index. The input contains one JSON record per line.\n" +
			"The records are read from stdin when no FILE is provided, or when FILE is -.",
		Args: cobra.MaximumNArgs(1),
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		}
		return insertCmd(cmd.OutOrStdout(), cmd.InOrStdin(), cfg, path)
	}
	return cmd
}

func insertCmd(out io.Writer, in io.Reader, cfg *config, path string) (err error) {
	if path != "" && path != "-" {
		f, e := cfg.fs.Open(path)
		if e != nil {
			return fmt.Errorf("could not open %s: %w", path, e)
		}
		defer errutil.Close(f, &err)
		in = f
	}

	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer errutil.Close(s, &err)

	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), maxRecordSize)
	for line := 1; sc.Scan(); line++ {
		data := bytes.TrimSpace(sc.Bytes())
		if len(data) == 0 {
			continue
		}
		r, parseErr := record.Parse(data)
		if parseErr != nil {
			return fmt.Errorf("line %d: %w", line, parseErr)
		}
		if err = s.Insert(r); err != nil {
			return fmt.Errorf("could not insert %s: %w", r.String(), err)
		}
		fmt.Fprintf(out, "inserted %s\n", r.String())
	}
	if err = sc.Err(); err != nil {
		return fmt.Errorf("could not read the records: %w", err)
	}
	return nil
}
