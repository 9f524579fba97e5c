package conflict

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/gophsync/internal/models"
)

func fixedClock(at time.Time) Option {
	return WithClock(func() time.Time { return at })
}

func TestMerge_DefaultPrefersLocal(t *testing.T) {
	now := t2.Add(24 * time.Hour)
	r := New(Manual, fixedClock(now))

	local := createTestClient("c1", 4, t2, &t1)
	local.Email = "local@acme.test"
	local.Notes = "shared"
	remote := createTestClient("c1", 7, t1, &t1)
	remote.Email = "remote@acme.test"
	remote.Notes = "shared"
	remote.RemoteID = "doc-1"

	merged := Merge(r, models.ClientSchema, local, remote, nil)

	assert.Equal(t, "c1", merged.ID)
	assert.Equal(t, "local@acme.test", merged.Email)
	assert.Equal(t, "shared", merged.Notes)
	assert.Equal(t, int64(8), merged.Version, "version = max(4, 7) + 1")
	assert.True(t, merged.UpdatedAt.Equal(now))
	require.NotNil(t, merged.LastSyncAt)
	assert.True(t, merged.LastSyncAt.Equal(now))
	assert.Equal(t, "doc-1", merged.RemoteID, "remote id falls back to the remote side")
	assert.True(t, merged.CreatedAt.Equal(local.CreatedAt))

	// входные реплики не изменяются
	assert.Equal(t, int64(4), local.Version)
	assert.Equal(t, "remote@acme.test", remote.Email)
}

func TestMerge_FieldResolver(t *testing.T) {
	r := New(LastWriteWins, fixedClock(t2))

	phone := "0102"
	local := createTestClient("c1", 2, t1, nil)
	local.Email = "local@acme.test"
	local.Address = "1 rue locale"
	remote := createTestClient("c1", 2, t2, nil)
	remote.Email = "remote@acme.test"
	remote.Address = "2 rue distante"
	remote.Phone = &phone

	merged := Merge(r, models.ClientSchema, local, remote, func(field string) Resolution {
		if field == "address" || field == "phone" {
			return UseRemote
		}
		return UseLocal
	})

	assert.Equal(t, "local@acme.test", merged.Email)
	assert.Equal(t, "2 rue distante", merged.Address)
	require.NotNil(t, merged.Phone)
	assert.Equal(t, "0102", *merged.Phone)
	assert.NotSame(t, remote.Phone, merged.Phone)
	assert.Equal(t, int64(3), merged.Version)
}

func TestMerge_Tombstone(t *testing.T) {
	r := New(LastWriteWins, fixedClock(t2))

	local := createTestClient("c1", 2, t1, nil)
	remote := createTestClient("c1", 3, t1, nil)
	remote.MarkAsDeleted(t1)

	kept := Merge(r, models.ClientSchema, local, remote, PreferLocal)
	assert.False(t, kept.IsDeleted)

	deleted := Merge(r, models.ClientSchema, local, remote, PreferRemote)
	assert.True(t, deleted.IsDeleted)
	require.NotNil(t, deleted.DeletedAt)
	assert.NotSame(t, remote.DeletedAt, deleted.DeletedAt)
}

func TestMerge_VersionStrictlyIncreases(t *testing.T) {
	r := New(LastWriteWins, fixedClock(t2))
	local := createTestClient("c1", 1, t1, nil)
	remote := createTestClient("c1", 1, t1, nil)

	for range 3 {
		merged := Merge(r, models.ClientSchema, local, remote, nil)
		assert.Greater(t, merged.Version, local.Version)
		assert.Greater(t, merged.Version, remote.Version)
		local, remote = merged, merged
	}
	assert.Equal(t, int64(4), local.Version)
}

func TestGetConflictReport(t *testing.T) {
	first := "Jeanne"
	local := createTestClient("c1", 2, t2, nil)
	local.FirstName = &first
	local.Email = "local@acme.test"
	remote := createTestClient("c1", 3, t1, nil)
	remote.Email = "remote@acme.test"
	remote.MarkAsDeleted(t2)

	report := GetConflictReport(models.ClientSchema, local, remote)

	assert.True(t, report.HasConflicts())
	assert.Equal(t, 3, report.ConflictCount())
	assert.Equal(t, int64(2), report.LocalVersion)
	assert.Equal(t, int64(4), report.RemoteVersion)
	assert.True(t, report.LocalUpdatedAt.Equal(t2))

	assert.Equal(t, []FieldDifference{
		{FieldName: "first_name", LocalValue: "Jeanne", RemoteValue: "null"},
		{FieldName: "email", LocalValue: "local@acme.test", RemoteValue: "remote@acme.test"},
		{FieldName: FieldTombstone, LocalValue: "false", RemoteValue: "true"},
	}, report.Differences)
}

func TestGetConflictReport_Identical(t *testing.T) {
	local := createTestClient("c1", 2, t2, nil)
	remote := createTestClient("c1", 2, t2, nil)

	report := GetConflictReport(models.ClientSchema, local, remote)

	assert.False(t, report.HasConflicts())
	assert.Equal(t, 0, report.ConflictCount())
	assert.NotNil(t, report.Differences)
}
