// Command codafind walks a list of files or directories and prints the
// paths of products matching a filter expression (spec.md §6): "codafind
// [-D defpath] [-d] [-f "<expr>"] [-V] files_or_dirs…". With -V, each
// file's disposition is printed: match / no match / unsupported product /
// could not open file — UnsupportedProduct is deliberately not treated as
// an error (spec.md §7: "callers such as codafind treat it as 'not a
// match'").
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	coda "github.com/stcorp/coda-go"
	"github.com/stcorp/coda-go/errs"
	"github.com/stcorp/coda-go/expr"
)

func main() {
	var (
		defPath    string
		diagnostic bool
		filterExpr string
		verbose    bool
	)

	root := &cobra.Command{
		Use:   "codafind files_or_dirs...",
		Short: "Walk files or directories and print matching product paths",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter expr.Node
			if filterExpr != "" {
				node, err := expr.Parse(filterExpr)
				if err != nil {
					return fmt.Errorf("invalid filter expression: %w", err)
				}
				filter = node
			}
			for _, f := range listFiles(args) {
				status, matched := checkFile(f, filter)
				if verbose {
					fmt.Printf("%s: %s\n", f, status)
				}
				if matched {
					fmt.Println(f)
				}
			}
			return nil
		},
	}
	root.Flags().StringVarP(&defPath, "defpath", "D", "", "codadef search path")
	root.Flags().BoolVarP(&diagnostic, "diagnostic", "d", false, "enable diagnostic logging")
	root.Flags().StringVarP(&filterExpr, "filter", "f", "", "filter expression")
	root.Flags().BoolVarP(&verbose, "verbose", "V", false, "print each file's match status")
	root.SilenceUsage = true

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "codafind: %v\n", err)
		os.Exit(1)
	}
}

func listFiles(args []string) []string {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "codafind: %v\n", err)
			continue
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		filepath.Walk(arg, func(p string, fi os.FileInfo, err error) error {
			if err == nil && !fi.IsDir() {
				files = append(files, p)
			}
			return nil
		})
	}
	return files
}

// checkFile reports a human-readable status and whether f should be
// printed as a match.
func checkFile(path string, filter expr.Node) (string, bool) {
	p, err := coda.Open(path, nil)
	if err != nil {
		if errs.Is(err, errs.UnsupportedProduct) {
			return "unsupported product", false
		}
		return "could not open file", false
	}
	defer p.Close()

	if filter == nil {
		return "match", true
	}

	c := p.NewCursor()
	ctx := expr.NewContext().WithCursor(c)
	v, err := filter.Eval(ctx)
	if err != nil {
		return "no match", false
	}
	ok, err := v.AsBool()
	if err != nil || !ok {
		return "no match", false
	}
	return "match", true
}
