package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"schemaboard/internal/client"
	"schemaboard/internal/logger"
	schemasync "schemaboard/internal/sync"
)

type rootOptions struct {
	server  string
	token   string
	timeout time.Duration
	verbose bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "schemactl",
		Short:         "Work with schemaboard schemas from the command line",
		Long:          `schemactl pulls and pushes project schemas, lays them out, renders Mermaid ER diagrams and makes small edits.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.server, "server", envOr("SCHEMABOARD_URL", "http://localhost:8080"), "API base URL")
	root.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("SCHEMABOARD_TOKEN"), "Bearer access token")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "Timeout per API call")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log controller activity to stderr")

	root.AddCommand(
		newPullCmd(opts),
		newPushCmd(opts),
		newLayoutCmd(),
		newMermaidCmd(opts),
		newAddTableCmd(opts),
		newConnectCmd(opts),
		newTokenCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func (o *rootOptions) logger() *logger.Logger {
	if !o.verbose {
		return logger.Nop()
	}
	return logger.New(&logger.Config{Level: "debug", Format: "console", Output: os.Stderr})
}

func (o *rootOptions) client() *client.Client {
	return client.New(o.server, o.token)
}

// controller returns a sync controller for projectID backed by the API.
func (o *rootOptions) controller(projectID string) *schemasync.Controller {
	return schemasync.New(o.client(), projectID,
		schemasync.WithSaveTimeout(o.timeout),
		schemasync.WithLogger(o.logger()),
	)
}

func (o *rootOptions) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), o.timeout)
}
