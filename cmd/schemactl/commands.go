package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"schemaboard/internal/graph"
	"schemaboard/internal/interaction"
	"schemaboard/internal/layout"
	"schemaboard/internal/models"
	"schemaboard/internal/render"
	schemasync "schemaboard/internal/sync"
	"schemaboard/internal/utils"
)

func newPullCmd(opts *rootOptions) *cobra.Command {
	var out, format string
	var noLayout bool
	cmd := &cobra.Command{
		Use:   "pull <project-id>",
		Short: "Download a project schema, laid out",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.context()
			defer cancel()

			ctrl := opts.controller(args[0])
			defer ctrl.Close()

			var doc models.SchemaDocument
			if noLayout {
				var err error
				if doc, err = ctrl.Load(ctx); err != nil {
					return err
				}
			} else {
				session, err := schemasync.Open(ctx, ctrl, schemasync.SessionOptions{Layout: layout.DefaultOptions()})
				if err != nil {
					return err
				}
				doc = session.Graph.Snapshot()
				doc.Version = ctrl.Version()
			}

			w, closeFn, err := output(out, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if err := writeDocument(w, out, format, doc); err != nil {
				closeFn()
				return err
			}
			return closeFn()
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format: yaml or json (default: from extension, else yaml)")
	cmd.Flags().BoolVar(&noLayout, "no-layout", false, "Keep stored positions (all at the origin)")
	return cmd
}

func newPushCmd(opts *rootOptions) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "push <project-id>",
		Short: "Replace a project schema with a local document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(file, cmd.InOrStdin())
			if err != nil {
				return err
			}

			ctx, cancel := opts.context()
			defer cancel()
			ctrl := opts.controller(args[0])
			defer ctrl.Close()

			res, err := ctrl.Save(ctx, doc)
			if err != nil {
				return err
			}
			printSaveResult(cmd.OutOrStdout(), res)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "Schema document (yaml or json, - for stdin)")
	return cmd
}

func printSaveResult(w io.Writer, res schemasync.SaveResult) {
	fmt.Fprintf(w, "saved version %d\n", res.Version)
	for _, d := range res.Diagnostics {
		fmt.Fprintf(w, "warning: %s\n", d)
	}
}

func newLayoutCmd() *cobra.Command {
	var file, out, format string
	var rankSep, nodeSep float64
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Lay out a local schema document left to right",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(file, cmd.InOrStdin())
			if err != nil {
				return err
			}
			lo := layout.DefaultOptions()
			if rankSep > 0 {
				lo.RankSep = rankSep
			}
			if nodeSep > 0 {
				lo.NodeSep = nodeSep
			}

			g := graph.FromDocument(doc)
			if err := layout.Apply(g, lo); err != nil {
				return err
			}
			laid := g.Snapshot()
			laid.Version = doc.Version

			w, closeFn, err := output(out, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if err := writeDocument(w, out, format, laid); err != nil {
				closeFn()
				return err
			}
			return closeFn()
		},
	}
	cmd.Flags().StringVarP(&file, "file", "i", "-", "Schema document (yaml or json, - for stdin)")
	cmd.Flags().StringVarP(&out, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format: yaml or json")
	cmd.Flags().Float64Var(&rankSep, "rank-sep", 0, "Horizontal gap between ranks")
	cmd.Flags().Float64Var(&nodeSep, "node-sep", 0, "Vertical gap between tables in a rank")
	return cmd
}

func newMermaidCmd(opts *rootOptions) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "mermaid [project-id]",
		Short: "Render a schema as a Mermaid ER diagram",
		Long:  "Renders a local document given with --file, or asks the server to render a project.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if file != "" {
				doc, err := readDocument(file, cmd.InOrStdin())
				if err != nil {
					return err
				}
				_, err = io.WriteString(cmd.OutOrStdout(), render.Mermaid(doc))
				return err
			}
			if len(args) != 1 {
				return fmt.Errorf("a project id or --file is required")
			}

			ctx, cancel := opts.context()
			defer cancel()
			text, err := opts.client().Mermaid(ctx, args[0])
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), text)
			return err
		},
	}
	cmd.Flags().StringVarP(&file, "file", "i", "", "Render a local document instead of a project")
	return cmd
}

// editProject loads a project into an editor, runs edit and saves once if
// anything changed.
func editProject(cmd *cobra.Command, opts *rootOptions, projectID string, edit func(*interaction.Editor) error) error {
	ctx, cancel := opts.context()
	defer cancel()

	ctrl := opts.controller(projectID)
	defer ctrl.Close()
	session, err := schemasync.Open(ctx, ctrl, schemasync.SessionOptions{Layout: layout.DefaultOptions()})
	if err != nil {
		return err
	}

	changed := false
	editor := interaction.NewEditor(session.Graph, interaction.WithOnChange(func() { changed = true }))
	if err := edit(editor); err != nil {
		return err
	}
	if !changed {
		fmt.Fprintln(cmd.OutOrStdout(), "nothing to save")
		return nil
	}

	res, err := session.Save(ctx)
	if err != nil {
		return err
	}
	printSaveResult(cmd.OutOrStdout(), res)
	return nil
}

func findTable(e *interaction.Editor, label string) (graph.Table, error) {
	for _, t := range e.FilterTables(label) {
		if strings.EqualFold(t.Label, label) {
			return t, nil
		}
	}
	return graph.Table{}, fmt.Errorf("%w: %s", graph.ErrTableNotFound, label)
}

func newAddTableCmd(opts *rootOptions) *cobra.Command {
	var columns []string
	cmd := &cobra.Command{
		Use:   "add-table <project-id> <label>",
		Short: "Add a table to a project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editProject(cmd, opts, args[0], func(e *interaction.Editor) error {
				var cols []graph.Column
				for _, arg := range columns {
					name, dataType, _ := strings.Cut(arg, ":")
					if dataType == "" {
						dataType = "varchar"
					}
					cols = append(cols, graph.Column{Title: name, DataType: dataType})
				}
				t := e.AddTable(args[1], cols...)
				fmt.Fprintf(cmd.OutOrStdout(), "added table %s (%s)\n", t.Label, t.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVarP(&columns, "column", "c", nil, "Column as name[:type], repeatable (default: id uuid primary key)")
	return cmd
}

func newConnectCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "connect <project-id> <Table.column> <Table.column>",
		Short: "Relate a referencing column to the column it references",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			srcTable, srcCol, ok1 := strings.Cut(args[1], ".")
			dstTable, dstCol, ok2 := strings.Cut(args[2], ".")
			if !ok1 || !ok2 {
				return fmt.Errorf("endpoints must look like Table.column")
			}
			return editProject(cmd, opts, args[0], func(e *interaction.Editor) error {
				src, err := findTable(e, srcTable)
				if err != nil {
					return err
				}
				dst, err := findTable(e, dstTable)
				if err != nil {
					return err
				}
				rel, err := e.Connect(interaction.Connection{
					Source: interaction.Handle{TableID: src.ID, Column: srcCol},
					Target: interaction.Handle{TableID: dst.ID, Column: dstCol},
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "connected %s\n", e.Graph().RelationshipLabel(rel))
				return nil
			})
		},
	}
}

func newTokenCmd() *cobra.Command {
	var user, secret string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an access token for local development",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				return fmt.Errorf("--secret or ACCESS_TOKEN_SECRET is required")
			}
			id := uuid.New()
			if user != "" {
				var err error
				if id, err = utils.ParseUUID(user, "user id"); err != nil {
					return err
				}
			}
			tok, err := utils.GenerateAccessToken(id, []byte(secret), ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "User id (default: a new random id)")
	cmd.Flags().StringVar(&secret, "secret", os.Getenv("ACCESS_TOKEN_SECRET"), "Signing secret")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	return cmd
}
