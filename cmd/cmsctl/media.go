package main

import (
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"

	"agency-cms/internal/metadata"
)

var identifier = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

type mediaOptions struct {
	Table  string
	Column string
	Match  string
	Raw    bool
}

func mediaSQLCommand() *cobra.Command {
	opts := mediaOptions{}
	var out string

	cmd := &cobra.Command{
		Use:   "media-sql <file|dir>...",
		Short: "Emit UPDATE statements that embed image files as base64",
		Long: `Reads image files, base64-encodes them and prints one UPDATE statement per
file. Rows are matched by file name. Directories are read one level deep.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("create output: %w", err)
				}
				defer f.Close()
				w = f
			}
			files, err := expandPaths(args)
			if err != nil {
				return err
			}
			n, err := writeMediaSQL(w, cmd.ErrOrStderr(), files, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d statement(s) written\n", n)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.Table, "table", metadata.MediaLibrary, "table to update")
	f.StringVar(&opts.Column, "column", "url", "column receiving the encoded image (url or thumbnail_url)")
	f.StringVar(&opts.Match, "match", "filename", "column compared with the file name")
	f.BoolVar(&opts.Raw, "raw", false, "write bare base64 instead of a data: URI")
	f.StringVarP(&out, "output", "o", "", "write SQL to a file instead of stdout")
	return cmd
}

// expandPaths replaces directories by the regular files they contain, sorted.
func expandPaths(args []string) ([]string, error) {
	var files []string
	for _, p := range args {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, fmt.Errorf("read dir %s: %w", p, err)
		}
		for _, e := range entries {
			if e.Type().IsRegular() {
				files = append(files, filepath.Join(p, e.Name()))
			}
		}
	}
	slices.Sort(files)
	return files, nil
}

// writeMediaSQL writes one statement per image and reports skipped files to
// warn. It returns the number of statements written.
func writeMediaSQL(w, warn io.Writer, files []string, opts mediaOptions) (int, error) {
	for _, id := range []string{opts.Table, opts.Column, opts.Match} {
		if !identifier.MatchString(id) {
			return 0, fmt.Errorf("invalid SQL identifier %q", id)
		}
	}

	n := 0
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return n, fmt.Errorf("read %s: %w", path, err)
		}
		mtype := mimetype.Detect(data)
		if !strings.HasPrefix(mtype.String(), "image/") {
			fmt.Fprintf(warn, "skip %s: %s is not an image\n", path, mtype.String())
			continue
		}

		value := base64.StdEncoding.EncodeToString(data)
		if !opts.Raw {
			value = "data:" + mtype.String() + ";base64," + value
		}
		_, err = fmt.Fprintf(w, "UPDATE %s SET %s = %s WHERE %s = %s;\n",
			opts.Table, opts.Column, quote(value), opts.Match, quote(filepath.Base(path)))
		if err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
