package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iudanet/gophsync/internal/models"
	"github.com/iudanet/gophsync/internal/validation"
)

// clientFlags значения флагов add/edit
type clientFlags struct {
	clientType  string
	lastName    string
	firstName   string
	email       string
	phone       string
	mobilePhone string
	address     string
	notes       string
}

func (f *clientFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.clientType, "type", string(models.ClientTypeIndividual), "client type (individual|professional)")
	flags.StringVar(&f.lastName, "last-name", "", "last name or company name")
	flags.StringVar(&f.firstName, "first-name", "", "first name")
	flags.StringVar(&f.email, "email", "", "email")
	flags.StringVar(&f.phone, "phone", "", "phone")
	flags.StringVar(&f.mobilePhone, "mobile", "", "mobile phone")
	flags.StringVar(&f.address, "address", "", "postal address")
	flags.StringVar(&f.notes, "notes", "", "notes")
}

// apply переносит в client только флаги, явно заданные в командной строке
func (f *clientFlags) apply(cmd *cobra.Command, client *models.Client) error {
	changed := cmd.Flags().Changed

	if changed("type") {
		switch t := models.ClientType(f.clientType); t {
		case models.ClientTypeIndividual, models.ClientTypeProfessional:
			client.Type = t
		default:
			return fmt.Errorf("unknown client type %q", f.clientType)
		}
	}
	if changed("last-name") {
		client.LastName = f.lastName
	}
	if changed("first-name") {
		client.FirstName = optional(f.firstName)
	}
	if changed("email") {
		client.Email = f.email
	}
	if changed("phone") {
		client.Phone = optional(f.phone)
	}
	if changed("mobile") {
		client.MobilePhone = optional(f.mobilePhone)
	}
	if changed("address") {
		client.Address = f.address
	}
	if changed("notes") {
		client.Notes = f.notes
	}
	return nil
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func (c *Cli) newClientCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "client",
		Short: "Manage clients",
	}

	cmd.AddCommand(c.newClientAddCommand())
	cmd.AddCommand(c.newClientListCommand())
	cmd.AddCommand(c.newClientShowCommand())
	cmd.AddCommand(c.newClientEditCommand())
	cmd.AddCommand(c.newClientDeleteCommand())

	return cmd
}

func (c *Cli) newClientAddCommand() *cobra.Command {
	flags := &clientFlags{}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a client",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := c.environment(cmd.Context())
			if err != nil {
				return err
			}

			client := &models.Client{Type: models.ClientType(flags.clientType)}
			if err := flags.apply(cmd, client); err != nil {
				return err
			}
			if err := validation.ValidateClient(client); err != nil {
				return err
			}

			if err := env.Clients.Create(cmd.Context(), client); err != nil {
				return err
			}

			c.io.Printf("✓ Client %s added (id %s)\n", client.FullName(), client.ID)
			return nil
		},
	}
	flags.register(cmd)

	return cmd
}

func (c *Cli) newClientListCommand() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List clients",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := c.environment(cmd.Context())
			if err != nil {
				return err
			}

			clients, err := env.Clients.List(cmd.Context(), all)
			if err != nil {
				return err
			}

			c.io.Println("=== Clients ===")
			c.io.Println()
			if len(clients) == 0 {
				c.io.Println("No clients found.")
				return nil
			}
			for _, client := range clients {
				c.io.Printf("%s  %-30s %-25s v%d %s\n",
					client.ID, client.FullName(), client.Email, client.Version, syncMark(&client.SyncMetadata))
			}
			c.io.Println()
			c.io.Printf("Total: %d\n", len(clients))
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include deleted clients")

	return cmd
}

func (c *Cli) newClientShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show client details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := c.environment(cmd.Context())
			if err != nil {
				return err
			}

			client, err := env.Clients.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return clientTmpl.ExecuteTemplate(c.io, "client", client)
		},
	}
}

func (c *Cli) newClientEditCommand() *cobra.Command {
	flags := &clientFlags{}

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := c.environment(cmd.Context())
			if err != nil {
				return err
			}

			client, err := env.Clients.Update(cmd.Context(), args[0], func(client *models.Client) error {
				if err := flags.apply(cmd, client); err != nil {
					return err
				}
				return validation.ValidateClient(client)
			})
			if err != nil {
				return err
			}

			c.io.Printf("✓ Client %s updated (version %d)\n", client.ID, client.Version)
			return nil
		},
	}
	flags.register(cmd)

	return cmd
}

func (c *Cli) newClientDeleteCommand() *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Soft-delete a client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			env, err := c.environment(ctx)
			if err != nil {
				return err
			}

			client, err := env.Clients.Delete(ctx, args[0])
			if err != nil {
				return err
			}
			c.io.Printf("✓ Client %s deleted\n", client.ID)

			if remote && client.HasRemote() {
				c.printResult(env.ClientSync.DeleteFromCloud(ctx, models.CollectionClients, client.RemoteID))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&remote, "cloud", false, "also delete the remote document")

	return cmd
}

// syncMark короткий статус синхронизации для списков
func syncMark(meta *models.SyncMetadata) string {
	switch {
	case meta.IsDeleted:
		return "[deleted]"
	case meta.HasChangedSinceLastSync():
		return "[pending]"
	default:
		return "[synced]"
	}
}
