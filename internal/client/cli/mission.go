package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/iudanet/gophsync/internal/models"
	"github.com/iudanet/gophsync/internal/validation"
)

func (c *Cli) newMissionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mission",
		Short: "Manage missions",
	}

	cmd.AddCommand(c.newMissionAddCommand())
	cmd.AddCommand(c.newMissionListCommand())
	cmd.AddCommand(c.newMissionShowCommand())

	return cmd
}

func (c *Cli) newMissionAddCommand() *cobra.Command {
	var (
		mission   models.Mission
		status    string
		scheduled string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a mission",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			env, err := c.environment(ctx)
			if err != nil {
				return err
			}

			mission.Status = models.MissionStatus(status)
			if scheduled != "" {
				at, err := parseDate(scheduled)
				if err != nil {
					return err
				}
				mission.ScheduledAt = &at
			}
			if err := validation.ValidateMission(&mission); err != nil {
				return err
			}
			if mission.ClientID != "" {
				if _, err := env.Clients.Get(ctx, mission.ClientID); err != nil {
					return fmt.Errorf("unknown client %s: %w", mission.ClientID, err)
				}
			}
			if mission.Number == "" {
				mission.Number = "M-" + time.Now().UTC().Format("20060102-150405")
			}

			if err := env.Missions.Create(ctx, &mission); err != nil {
				return err
			}

			c.io.Printf("✓ Mission %s added (id %s)\n", mission.Number, mission.ID)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&mission.Number, "number", "", "mission number (generated when empty)")
	flags.StringVar(&mission.Title, "title", "", "short description")
	flags.StringVar(&mission.ClientID, "client", "", "local client id")
	flags.StringVar(&status, "status", string(models.MissionStatusCreated), "mission status")
	flags.StringVar(&scheduled, "scheduled", "", "scheduled date (RFC3339 or YYYY-MM-DD)")
	flags.StringVar(&mission.Address, "address", "", "site address")
	flags.StringVar(&mission.Notes, "notes", "", "internal notes")
	flags.StringSliceVar(&mission.Tags, "tag", nil, "tag, repeatable")

	return cmd
}

func (c *Cli) newMissionListCommand() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List missions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := c.environment(cmd.Context())
			if err != nil {
				return err
			}

			missions, err := env.Missions.List(cmd.Context(), all)
			if err != nil {
				return err
			}

			c.io.Println("=== Missions ===")
			c.io.Println()
			if len(missions) == 0 {
				c.io.Println("No missions found.")
				return nil
			}
			for _, mission := range missions {
				c.io.Printf("%s  %-20s %-30s %-11s v%d %s\n",
					mission.ID, mission.Number, mission.Title, mission.Status, mission.Version, syncMark(&mission.SyncMetadata))
			}
			c.io.Println()
			c.io.Printf("Total: %d\n", len(missions))
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include deleted missions")

	return cmd
}

func (c *Cli) newMissionShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show mission details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := c.environment(cmd.Context())
			if err != nil {
				return err
			}

			mission, err := env.Missions.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return missionTmpl.ExecuteTemplate(c.io, "mission", mission)
		},
	}
}

func parseDate(value string) (time.Time, error) {
	if at, err := time.Parse(time.RFC3339, value); err == nil {
		return at.UTC(), nil
	}
	at, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: use RFC3339 or YYYY-MM-DD", value)
	}
	return at, nil
}
