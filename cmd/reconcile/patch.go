package main

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/reconcile/internal/errors"
	"github.com/vango-dev/reconcile/pkg/dom"
	"github.com/vango-dev/reconcile/pkg/dom/htmldom"
	"github.com/vango-dev/reconcile/pkg/protocol"
	"github.com/vango-dev/reconcile/pkg/render"
	"github.com/vango-dev/reconcile/pkg/session"
	"github.com/vango-dev/reconcile/pkg/vdom"
)

func diffCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "diff OLD NEW",
		Short: "Print the patches that turn OLD into NEW",
		Long: `Read two HTML fragments, each holding one root node, and print the
positional patches that turn the first into the second. An empty file is
an empty tree.

Examples:
  reconcile diff old.html new.html
  reconcile diff old.html new.html --format json
  reconcile diff old.html new.html --format binary > patches.bin`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			prev, err := readSnapshot(args[0])
			if err != nil {
				return err
			}
			next, err := readSnapshot(args[1])
			if err != nil {
				return err
			}
			return writePatches(cmd, vdom.Diff(prev, next), format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format (text, json, binary)")

	return cmd
}

func applyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply DOC PATCH",
		Short: "Apply a patch file to an HTML fragment",
		Long: `Mount the HTML fragment DOC, apply the JSON or binary patches in PATCH
and print the resulting markup. A patch that does not fit the document
fails with a desync error.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			markup, err := readMarkup(args[0])
			if err != nil {
				return err
			}
			patches, err := readPatches(args[1])
			if err != nil {
				return err
			}

			doc, root, err := mountMarkup(markup)
			if err != nil {
				return err
			}
			if err := dom.Apply(doc, root, patches); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), htmldom.InnerMarkup(root))
			return nil
		},
	}
	return cmd
}

func verifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify OLD NEW",
		Short: "Check that applying diff(OLD, NEW) to OLD yields NEW",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			prev, err := readSnapshot(args[0])
			if err != nil {
				return err
			}
			next, err := readSnapshot(args[1])
			if err != nil {
				return err
			}

			patches := vdom.Diff(prev, next)
			doc, root, err := mountMarkup(render.Markup(prev))
			if err != nil {
				return err
			}
			if err := dom.Apply(doc, root, patches); err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if live := dom.TreeSnapshot(root); !next.Equal(live) {
				diff := session.MarkupDiff(render.Markup(next), htmldom.InnerMarkup(root))
				warn(w, "live tree differs from %s", args[1])
				fmt.Fprintln(w, diff)
				return errors.New(errors.CodeDesync).
					With("old", args[0]).
					With("new", args[1]).
					WithDetail(diff)
			}

			success(w, "%d patches reproduce %s (%s)", len(patches), args[1], summarize(patches))
			return nil
		},
	}
	return cmd
}

// readMarkup reads a fragment file, trimming surrounding whitespace.
func readMarkup(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// readSnapshot reads a one-node fragment. An empty file is a nil tree.
func readSnapshot(path string) (*vdom.Snapshot, error) {
	markup, err := readMarkup(path)
	if err != nil {
		return nil, err
	}
	if markup == "" {
		return nil, nil
	}
	s, err := htmldom.ParseSnapshot(markup)
	if err != nil {
		return nil, errors.FromError(err, errors.CodeMarkup).With("file", path)
	}
	return s, nil
}

// readPatches reads JSON patches, or binary patches when the file does not
// start with '['.
func readPatches(path string) (vdom.Patches, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		return protocol.DecodePatchesJSON(trimmed)
	}
	_, patches, err := protocol.DecodePatches(data)
	return patches, err
}

func mountMarkup(markup string) (*htmldom.Document, dom.Element, error) {
	doc := htmldom.New()
	root, _ := doc.ElementByID("root")
	if err := doc.SetInnerMarkup(root, markup); err != nil {
		return nil, nil, err
	}
	return doc, root, nil
}

func writePatches(cmd *cobra.Command, patches vdom.Patches, format string) error {
	w := cmd.OutOrStdout()
	switch format {
	case "text":
		if patches.Empty() {
			fmt.Fprintln(w, "no changes")
			return nil
		}
		fmt.Fprintln(w, patches.String())
		return nil
	case "json":
		data, err := protocol.EncodePatchesJSON(patches)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))
		return nil
	case "binary":
		_, err := w.Write(protocol.EncodePatches(0, patches))
		return err
	default:
		return errors.Newf(errors.CategoryCLI, "unknown format %q", format).
			WithSuggestion("Use text, json or binary")
	}
}

// summarize formats per-op counts, e.g. "delete=1 insert=2".
func summarize(patches vdom.Patches) string {
	counts := patches.CountByOp()
	if len(counts) == 0 {
		return "no changes"
	}
	parts := make([]string, 0, len(counts))
	for op, n := range counts {
		parts = append(parts, fmt.Sprintf("%s=%d", op, n))
	}
	sort.Strings(parts)
	return strings.Join(parts, " ")
}
