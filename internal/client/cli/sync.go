package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iudanet/gophsync/internal/client/data"
	"github.com/iudanet/gophsync/internal/client/storage"
	"github.com/iudanet/gophsync/internal/client/sync"
	"github.com/iudanet/gophsync/internal/conflict"
	"github.com/iudanet/gophsync/internal/models"
)

// ErrSyncFailed возвращается командой sync, если хотя бы одна операция завершилась ошибкой
var ErrSyncFailed = errors.New("synchronization failed")

// kindOps операции синхронизации одного типа сущностей, без параметра типа
type kindOps struct {
	exists     func(ctx context.Context, id string) (bool, error)
	remoteID   func(ctx context.Context, id string) (string, error)
	push       func(ctx context.Context, id string) (sync.Result, error)
	pullOne    func(ctx context.Context, id string) (sync.Result, error)
	merge      func(ctx context.Context, id string, fr conflict.FieldResolver) (sync.Result, error)
	report     func(ctx context.Context, id string) (conflict.ConflictReport, error)
	pull       func(ctx context.Context) sync.Result
	full       func(ctx context.Context) sync.Result
	remove     func(ctx context.Context, remoteID string) sync.Result
	collection string
}

func newKindOps[T models.Replica](svc *data.Service[T], engine *sync.Engine[T], collection string) kindOps {
	return kindOps{
		collection: collection,
		exists: func(ctx context.Context, id string) (bool, error) {
			_, err := svc.Get(ctx, id)
			switch {
			case err == nil:
				return true, nil
			case errors.Is(err, storage.ErrReplicaNotFound):
				return false, nil
			default:
				return false, err
			}
		},
		remoteID: func(ctx context.Context, id string) (string, error) {
			entity, err := svc.Get(ctx, id)
			if err != nil {
				return "", err
			}
			return entity.Meta().RemoteID, nil
		},
		push: func(ctx context.Context, id string) (sync.Result, error) {
			entity, err := svc.Get(ctx, id)
			if err != nil {
				return sync.Result{}, err
			}
			return engine.SyncToCloud(ctx, entity, collection), nil
		},
		pullOne: func(ctx context.Context, id string) (sync.Result, error) {
			entity, err := svc.Get(ctx, id)
			if err != nil {
				return sync.Result{}, err
			}
			return engine.PullEntity(ctx, entity, collection), nil
		},
		merge: func(ctx context.Context, id string, fr conflict.FieldResolver) (sync.Result, error) {
			entity, err := svc.Get(ctx, id)
			if err != nil {
				return sync.Result{}, err
			}
			return engine.MergeWithRemote(ctx, entity, collection, fr), nil
		},
		report: func(ctx context.Context, id string) (conflict.ConflictReport, error) {
			entity, err := svc.Get(ctx, id)
			if err != nil {
				return conflict.ConflictReport{}, err
			}
			return engine.Report(ctx, entity, collection)
		},
		pull: func(ctx context.Context) sync.Result {
			return engine.SyncFromCloud(ctx, collection)
		},
		full: func(ctx context.Context) sync.Result {
			return engine.FullSync(ctx, collection)
		},
		remove: func(ctx context.Context, remoteID string) sync.Result {
			return engine.DeleteFromCloud(ctx, collection, remoteID)
		},
	}
}

// kinds возвращает операции для --kind; пустое значение означает все типы
func (c *Cli) kinds(env *Env, kind string) ([]kindOps, error) {
	all := []kindOps{
		newKindOps(env.Clients, env.ClientSync, models.CollectionClients),
		newKindOps(env.Missions, env.MissionSync, models.CollectionMissions),
	}
	if kind == "" {
		return all, nil
	}
	for _, ops := range all {
		if ops.collection == kind {
			return []kindOps{ops}, nil
		}
	}
	return nil, fmt.Errorf("unknown kind %q (use %s or %s)", kind, models.CollectionClients, models.CollectionMissions)
}

// locate находит тип сущности, которому принадлежит локальный id
func (c *Cli) locate(ctx context.Context, env *Env, kind, id string) (kindOps, error) {
	candidates, err := c.kinds(env, kind)
	if err != nil {
		return kindOps{}, err
	}
	for _, ops := range candidates {
		ok, err := ops.exists(ctx, id)
		if err != nil {
			return kindOps{}, err
		}
		if ok {
			return ops, nil
		}
	}
	return kindOps{}, fmt.Errorf("%s: %w", id, storage.ErrReplicaNotFound)
}

func (c *Cli) newSyncCommand() *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Synchronize with the remote store",
	}
	cmd.PersistentFlags().StringVar(&kind, "kind", "", "entity kind: clients or missions (default: all)")

	cmd.AddCommand(c.newSyncPushCommand(&kind))
	cmd.AddCommand(c.newSyncPullCommand(&kind))
	cmd.AddCommand(c.newSyncFullCommand(&kind))
	cmd.AddCommand(c.newSyncDeleteCommand(&kind))
	cmd.AddCommand(c.newSyncReportCommand(&kind))
	cmd.AddCommand(c.newSyncMergeCommand(&kind))

	return cmd
}

func (c *Cli) newSyncPushCommand(kind *string) *cobra.Command {
	return &cobra.Command{
		Use:   "push <id>",
		Short: "Push one local replica",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			env, err := c.environment(ctx)
			if err != nil {
				return err
			}
			ops, err := c.locate(ctx, env, *kind, args[0])
			if err != nil {
				return err
			}
			res, err := ops.push(ctx, args[0])
			if err != nil {
				return err
			}
			return c.report(res)
		},
	}
}

func (c *Cli) newSyncPullCommand(kind *string) *cobra.Command {
	return &cobra.Command{
		Use:   "pull [id]",
		Short: "Pull remote changes, for one replica or whole collections",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			env, err := c.environment(ctx)
			if err != nil {
				return err
			}

			if len(args) == 1 {
				ops, err := c.locate(ctx, env, *kind, args[0])
				if err != nil {
					return err
				}
				res, err := ops.pullOne(ctx, args[0])
				if err != nil {
					return err
				}
				return c.report(res)
			}

			all, err := c.kinds(env, *kind)
			if err != nil {
				return err
			}
			results := make([]sync.Result, 0, len(all))
			for _, ops := range all {
				c.io.Printf("%s:\n", ops.collection)
				results = append(results, ops.pull(ctx))
				c.printResult(results[len(results)-1])
			}
			return failed(results...)
		},
	}
}

func (c *Cli) newSyncFullCommand(kind *string) *cobra.Command {
	return &cobra.Command{
		Use:   "full",
		Short: "Push local changes, then pull remote ones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			env, err := c.environment(ctx)
			if err != nil {
				return err
			}

			all, err := c.kinds(env, *kind)
			if err != nil {
				return err
			}
			results := make([]sync.Result, 0, len(all))
			for _, ops := range all {
				c.io.Printf("%s:\n", ops.collection)
				results = append(results, ops.full(ctx))
				c.printResult(results[len(results)-1])
			}
			return failed(results...)
		},
	}
}

func (c *Cli) newSyncDeleteCommand(kind *string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete the remote document of a replica (local state is kept)",
		Long: "Delete the remote document bound to a local replica. " +
			"When no local replica has this id, it is used as the remote document id.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			env, err := c.environment(ctx)
			if err != nil {
				return err
			}

			ops, err := c.locate(ctx, env, *kind, args[0])
			switch {
			case err == nil:
				remoteID, err := ops.remoteID(ctx, args[0])
				if err != nil {
					return err
				}
				if remoteID == "" {
					c.io.Println("Replica was never pushed, nothing to delete.")
					return nil
				}
				return c.report(ops.remove(ctx, remoteID))
			case errors.Is(err, storage.ErrReplicaNotFound) && *kind != "":
				all, err := c.kinds(env, *kind)
				if err != nil {
					return err
				}
				return c.report(all[0].remove(ctx, args[0]))
			case errors.Is(err, storage.ErrReplicaNotFound):
				return fmt.Errorf("%w; pass --kind to delete a remote document by its id", err)
			default:
				return err
			}
		},
	}
}

func (c *Cli) newSyncReportCommand(kind *string) *cobra.Command {
	return &cobra.Command{
		Use:   "report <id>",
		Short: "Compare a local replica with its remote document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			env, err := c.environment(ctx)
			if err != nil {
				return err
			}
			ops, err := c.locate(ctx, env, *kind, args[0])
			if err != nil {
				return err
			}
			report, err := ops.report(ctx, args[0])
			if err != nil {
				return err
			}
			return reportTmpl.Execute(c.io, report)
		},
	}
}

func (c *Cli) newSyncMergeCommand(kind *string) *cobra.Command {
	var prefer string

	cmd := &cobra.Command{
		Use:   "merge <id>",
		Short: "Merge a local replica with its remote document field by field and push the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var fr conflict.FieldResolver
			switch prefer {
			case "local":
				fr = conflict.PreferLocal
			case "remote":
				fr = conflict.PreferRemote
			default:
				return fmt.Errorf("unknown --prefer value %q (use local or remote)", prefer)
			}

			env, err := c.environment(ctx)
			if err != nil {
				return err
			}
			ops, err := c.locate(ctx, env, *kind, args[0])
			if err != nil {
				return err
			}
			res, err := ops.merge(ctx, args[0], fr)
			if err != nil {
				return err
			}
			return c.report(res)
		},
	}
	cmd.Flags().StringVar(&prefer, "prefer", "local", "side kept for diverging fields: local or remote")

	return cmd
}

// report печатает результат и превращает Failed в ошибку команды
func (c *Cli) report(res sync.Result) error {
	c.printResult(res)
	return failed(res)
}

func (c *Cli) printResult(res sync.Result) {
	mark := "✓"
	if !res.IsSuccess {
		mark = "✗"
	}
	c.io.Printf("%s [%s] %s\n", mark, res.Status, res.Message)
	if res.Pushed+res.Synced+res.Conflicts+res.Failed > 0 {
		c.io.Printf("  pushed: %d, pulled: %d, conflicts: %d, failed: %d\n",
			res.Pushed, res.Synced, res.Conflicts, res.Failed)
	}
}

func failed(results ...sync.Result) error {
	for _, res := range results {
		if res.Status == models.SyncStatusFailed {
			return ErrSyncFailed
		}
	}
	return nil
}
