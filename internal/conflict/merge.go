package conflict

import (
	"strconv"
	"time"

	"github.com/iudanet/gophsync/internal/models"
)

// FieldTombstone is the pseudo-field under which soft-delete divergence is
// reported and resolved.
const FieldTombstone = "is_deleted"

// FieldResolver picks the surviving side for one diverging field.
// Any result other than UseRemote keeps the local value.
type FieldResolver func(field string) Resolution

// PreferLocal keeps local values for every diverging field.
func PreferLocal(string) Resolution { return UseLocal }

// PreferRemote keeps remote values for every diverging field.
func PreferRemote(string) Resolution { return UseRemote }

// FieldDifference одно расхождение между локальной и удаленной репликой
type FieldDifference struct {
	FieldName   string `json:"field"`
	LocalValue  string `json:"local"`
	RemoteValue string `json:"remote"`
}

// ConflictReport детальный отчет о расхождениях для диагностики и ручного разрешения
type ConflictReport struct {
	LocalUpdatedAt  time.Time         `json:"local_updated_at"`
	RemoteUpdatedAt time.Time         `json:"remote_updated_at"`
	Differences     []FieldDifference `json:"differences"`
	LocalVersion    int64             `json:"local_version"`
	RemoteVersion   int64             `json:"remote_version"`
}

// HasConflicts reports whether any field diverges.
func (r ConflictReport) HasConflicts() bool {
	return len(r.Differences) > 0
}

// ConflictCount returns the number of diverging fields.
func (r ConflictReport) ConflictCount() int {
	return len(r.Differences)
}

// Merge builds a new replica out of local and remote, field by field.
// Equal fields are kept; diverging ones go through fieldResolver (local wins
// when it is nil). The result gets version max(local, remote)+1 and both
// updatedAt and lastSyncAt set to the resolver clock.
func Merge[T models.Replica](r *Resolver, schema models.Schema[T], local, remote T, fieldResolver FieldResolver) T {
	if fieldResolver == nil {
		fieldResolver = PreferLocal
	}

	lm, rm := local.Meta(), remote.Meta()
	merged := schema.New()

	for _, field := range schema.Fields {
		if field.Equal(local, remote) || fieldResolver(field.Name) != UseRemote {
			field.Copy(merged, local)
			continue
		}
		field.Copy(merged, remote)
	}

	meta := merged.Meta()
	*meta = models.CloneMetadata(*lm)
	if meta.RemoteID == "" {
		meta.RemoteID = rm.RemoteID
	}
	if lm.IsDeleted != rm.IsDeleted && fieldResolver(FieldTombstone) == UseRemote {
		meta.IsDeleted = rm.IsDeleted
		meta.DeletedAt = nil
		if rm.DeletedAt != nil {
			deletedAt := *rm.DeletedAt
			meta.DeletedAt = &deletedAt
		}
	}

	now := r.now().UTC()
	meta.UpdatedAt = now
	meta.Version = max(lm.Version, rm.Version) + 1
	meta.MarkSynced(now)

	return merged
}

// GetConflictReport lists every business field where local and remote differ.
func GetConflictReport[T models.Replica](schema models.Schema[T], local, remote T) ConflictReport {
	lm, rm := local.Meta(), remote.Meta()

	report := ConflictReport{
		LocalVersion:    lm.Version,
		RemoteVersion:   rm.Version,
		LocalUpdatedAt:  lm.UpdatedAt,
		RemoteUpdatedAt: rm.UpdatedAt,
		Differences:     []FieldDifference{},
	}

	for _, field := range schema.Fields {
		if field.Equal(local, remote) {
			continue
		}
		report.Differences = append(report.Differences, FieldDifference{
			FieldName:   field.Name,
			LocalValue:  field.Format(local),
			RemoteValue: field.Format(remote),
		})
	}

	if lm.IsDeleted != rm.IsDeleted {
		report.Differences = append(report.Differences, FieldDifference{
			FieldName:   FieldTombstone,
			LocalValue:  strconv.FormatBool(lm.IsDeleted),
			RemoteValue: strconv.FormatBool(rm.IsDeleted),
		})
	}

	return report
}
