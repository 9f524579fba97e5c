package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/iudanet/gophsync/internal/models"
)

func (c *Cli) newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show authentication and synchronization status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runStatus(cmd.Context())
		},
	}
}

func (c *Cli) runStatus(ctx context.Context) error {
	env, err := c.environment(ctx)
	if err != nil {
		return err
	}

	c.io.Println("=== Status ===")
	c.io.Println()

	isAuth, err := env.Auth.IsAuthenticated(ctx)
	if err != nil {
		return fmt.Errorf("failed to check authentication: %w", err)
	}

	c.io.Printf("Server: %s\n", env.ServerURL)
	if isAuth {
		c.io.Println("Authentication: authenticated")
	} else {
		c.io.Println("Authentication: not authenticated (run 'gophsync login')")
	}

	if env.ClientSync.Enabled() {
		c.io.Println("Synchronization: enabled")
	} else {
		c.io.Println("Synchronization: disabled")
	}
	c.io.Println()

	kinds := []struct {
		pending    func(context.Context) (int, error)
		collection string
	}{
		{pending: env.ClientSync.Pending, collection: models.CollectionClients},
		{pending: env.MissionSync.Pending, collection: models.CollectionMissions},
	}

	for _, kind := range kinds {
		lastSync, err := env.Watermarks.GetLastSync(ctx, kind.collection)
		if err != nil {
			return err
		}

		pending, err := kind.pending(ctx)
		if err != nil {
			// Не прерываем выполнение, просто предупреждаем
			c.io.Printf("%s: failed to get pending count: %v\n", kind.collection, err)
			continue
		}

		last := "never"
		if !lastSync.IsZero() {
			last = lastSync.Local().Format(time.RFC3339)
		}
		c.io.Printf("%-9s last full sync: %s, pending: %d\n", kind.collection, last, pending)
	}

	return nil
}
