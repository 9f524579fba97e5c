// Package cli implements the gophsync client commands.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iudanet/gophsync/internal/client/iocli"
)

// Options global flags shared by all commands
type Options struct {
	ConfigPath string
	DBPath     string
	ServerURL  string
	Remote     string
	Strategy   string
	Offline    bool
	Verbose    bool
}

// Opener builds the command environment from the global options
type Opener func(ctx context.Context, opts *Options, io iocli.IO) (*Env, error)

// Cli holds state shared by the command implementations
type Cli struct {
	io   iocli.IO
	opts *Options
	open Opener
	env  *Env
}

// New creates the CLI
func New(io iocli.IO, open Opener) *Cli {
	return &Cli{
		io:   io,
		opts: &Options{},
		open: open,
	}
}

// NewRootCommand creates the root command of the client
func (c *Cli) NewRootCommand(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "gophsync",
		Short:         "gophsync - offline-first client",
		Long:          "Manage clients and missions locally and synchronize them with a remote document store.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(c.io)
	cmd.SetErr(c.io)

	flags := cmd.PersistentFlags()
	flags.StringVar(&c.opts.ConfigPath, "config", "", "path to YAML config file")
	flags.StringVar(&c.opts.DBPath, "db", "", "path to local database")
	flags.StringVar(&c.opts.ServerURL, "server", "", "document server URL")
	flags.StringVar(&c.opts.Remote, "remote", "", "remote store DSN (overrides --server)")
	flags.StringVar(&c.opts.Strategy, "strategy", "", "conflict strategy")
	flags.BoolVar(&c.opts.Offline, "offline", false, "disable synchronization")
	flags.BoolVarP(&c.opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(c.newLoginCommand())
	cmd.AddCommand(c.newLogoutCommand())
	cmd.AddCommand(c.newStatusCommand())
	cmd.AddCommand(c.newClientCommand())
	cmd.AddCommand(c.newMissionCommand())
	cmd.AddCommand(c.newSyncCommand())

	return cmd
}

// environment открывает окружение при первом обращении
func (c *Cli) environment(ctx context.Context) (*Env, error) {
	if c.env != nil {
		return c.env, nil
	}

	env, err := c.open(ctx, c.opts, c.io)
	if err != nil {
		return nil, fmt.Errorf("failed to open environment: %w", err)
	}
	c.env = env
	return env, nil
}

func (c *Cli) close() error {
	if c.env == nil {
		return nil
	}
	err := c.env.Close()
	c.env = nil
	return err
}

// Execute runs the command tree and always releases the environment
func (c *Cli) Execute(ctx context.Context, cmd *cobra.Command) error {
	err := cmd.ExecuteContext(ctx)
	return errors.Join(err, c.close())
}
