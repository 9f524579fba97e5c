// Package conflict decides how two replicas of the same entity are reconciled.
// Everything here is pure: no storage, no network.
package conflict

import (
	"fmt"
	"strings"
	"time"

	"github.com/iudanet/gophsync/internal/models"
)

// Strategy выбирает победителя при расхождении реплик.
type Strategy int

const (
	// LastWriteWins побеждает сторона с более поздним updatedAt.
	LastWriteWins Strategy = iota
	// HighestVersionWins побеждает сторона с большей версией.
	HighestVersionWins
	// LocalWins локальная версия побеждает всегда.
	LocalWins
	// RemoteWins удаленная версия побеждает всегда.
	RemoteWins
	// Manual всегда требует ручного разрешения.
	Manual
)

var strategyNames = map[Strategy]string{
	LastWriteWins:      "last-write-wins",
	HighestVersionWins: "highest-version-wins",
	LocalWins:          "local-wins",
	RemoteWins:         "remote-wins",
	Manual:             "manual",
}

func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// ParseStrategy parses a strategy name as used in config files.
func ParseStrategy(name string) (Strategy, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	normalized = strings.ReplaceAll(normalized, "_", "-")
	for strategy, candidate := range strategyNames {
		if candidate == normalized {
			return strategy, nil
		}
	}
	return LastWriteWins, fmt.Errorf("unknown conflict strategy %q", name)
}

// Resolution результат сравнения двух реплик.
type Resolution int

const (
	NoConflict Resolution = iota // одинаковое состояние, действий не требуется
	UseLocal                     // отправить локальную версию на remote
	UseRemote                    // перезаписать локальную версию удаленной
	Conflict                     // автоматическое разрешение невозможно
)

func (r Resolution) String() string {
	switch r {
	case NoConflict:
		return "no-conflict"
	case UseLocal:
		return "use-local"
	case UseRemote:
		return "use-remote"
	case Conflict:
		return "conflict"
	default:
		return fmt.Sprintf("Resolution(%d)", int(r))
	}
}

// SyncAction действие синхронизации, необходимое для пары реплик.
type SyncAction int

const (
	NoAction SyncAction = iota
	UploadToRemote
	DownloadFromRemote
	ResolveConflict
)

func (a SyncAction) String() string {
	switch a {
	case NoAction:
		return "no-action"
	case UploadToRemote:
		return "upload"
	case DownloadFromRemote:
		return "download"
	case ResolveConflict:
		return "resolve-conflict"
	default:
		return fmt.Sprintf("SyncAction(%d)", int(a))
	}
}

// Resolver applies one strategy, fixed at construction time.
type Resolver struct {
	now      func() time.Time
	strategy Strategy
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithClock overrides the clock used to stamp merged replicas.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		r.now = now
	}
}

// New creates a resolver for the given strategy.
func New(strategy Strategy, opts ...Option) *Resolver {
	r := &Resolver{
		strategy: strategy,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Strategy returns the configured strategy.
func (r *Resolver) Strategy() Strategy {
	return r.strategy
}

// Resolve decides which of two snapshots of the same entity wins.
// Both snapshots must be non-nil.
func (r *Resolver) Resolve(local, remote models.Replica) Resolution {
	l, rm := local.Meta(), remote.Meta()

	// Та же версия и тот же timestamp - это одно и то же состояние
	if l.SameState(rm) {
		return NoConflict
	}

	switch r.strategy {
	case HighestVersionWins:
		return resolveHighestVersionWins(l, rm)
	case LocalWins:
		return UseLocal
	case RemoteWins:
		return UseRemote
	case Manual:
		return Conflict
	default:
		return resolveLastWriteWins(l, rm)
	}
}

func resolveLastWriteWins(local, remote *models.SyncMetadata) Resolution {
	switch {
	case local.UpdatedAt.After(remote.UpdatedAt):
		return UseLocal
	case remote.UpdatedAt.After(local.UpdatedAt):
		return UseRemote
	case local.Version >= remote.Version:
		// Одинаковый timestamp - выигрывает большая версия, при равенстве локальная
		return UseLocal
	default:
		return UseRemote
	}
}

func resolveHighestVersionWins(local, remote *models.SyncMetadata) Resolution {
	switch {
	case local.Version > remote.Version:
		return UseLocal
	case remote.Version > local.Version:
		return UseRemote
	case !remote.UpdatedAt.After(local.UpdatedAt):
		// Одинаковая версия - выигрывает более поздний timestamp, при равенстве локальная
		return UseLocal
	default:
		return UseRemote
	}
}

// HasChangedSinceLastSync reports whether a replica is dirty.
func HasChangedSinceLastSync(replica models.Replica) bool {
	return replica.Meta().HasChangedSinceLastSync()
}

// DetermineSyncAction classifies what has to happen for a pair of replicas.
// Either side may be nil (absent).
func (r *Resolver) DetermineSyncAction(local, remote models.Replica) SyncAction {
	hasLocal := !models.IsNil(local)
	hasRemote := !models.IsNil(remote)

	switch {
	case hasLocal && !hasRemote:
		return UploadToRemote
	case !hasLocal && hasRemote:
		return DownloadFromRemote
	case !hasLocal && !hasRemote:
		return NoAction
	}

	localChanged := HasChangedSinceLastSync(local)
	remoteChanged := HasChangedSinceLastSync(remote)

	switch {
	case localChanged && remoteChanged:
		return ResolveConflict
	case localChanged:
		return UploadToRemote
	case remoteChanged:
		return DownloadFromRemote
	default:
		return NoAction
	}
}
