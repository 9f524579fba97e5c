package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"

	"github.com/iudanet/gophsync/internal/client/api"
	"github.com/iudanet/gophsync/internal/client/storage"
	"github.com/iudanet/gophsync/internal/models"
)

func (c *Cli) newLoginCommand() *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store the document server URL and access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLogin(cmd.Context(), token)
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "access token (prompted when empty)")

	return cmd
}

func (c *Cli) runLogin(ctx context.Context, token string) error {
	env, err := c.environment(ctx)
	if err != nil {
		return err
	}

	c.io.Println("=== Login ===")
	c.io.Println()

	if token == "" {
		token, err = c.io.ReadPassword("Access token: ")
		if err != nil {
			return fmt.Errorf("failed to read token: %w", err)
		}
	}
	if token == "" {
		return fmt.Errorf("token cannot be empty")
	}

	serverURL := env.ServerURL
	if c.opts.ServerURL != "" {
		serverURL = c.opts.ServerURL
	}

	// Проверяем токен запросом к защищенному endpoint
	client := api.NewClient(serverURL, api.WithToken(token))
	if _, err := client.List(ctx, models.CollectionClients); err != nil {
		return fmt.Errorf("server rejected credentials: %w", err)
	}

	authData := &storage.AuthData{
		ServerURL: serverURL,
		Token:     token,
		ExpiresAt: tokenExpiry(token),
	}
	if err := env.Auth.SaveAuth(ctx, authData); err != nil {
		return fmt.Errorf("failed to save auth data: %w", err)
	}

	c.io.Println("✓ Login successful!")
	c.io.Printf("Server: %s\n", serverURL)
	if authData.ExpiresAt != 0 {
		c.io.Printf("Token expires: %s\n", time.Unix(authData.ExpiresAt, 0).UTC().Format(time.RFC3339))
	}

	return nil
}

// tokenExpiry читает exp из JWT без проверки подписи; 0 если токен не JWT
func tokenExpiry(token string) int64 {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return 0
	}
	if claims.ExpiresAt == nil {
		return 0
	}
	return claims.ExpiresAt.Unix()
}
