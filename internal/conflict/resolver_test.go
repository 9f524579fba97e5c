package conflict

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/gophsync/internal/models"
)

var (
	t1 = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	t2 = t1.Add(time.Hour)
)

// createTestClient создает тестового клиента с заданными метаданными
func createTestClient(id string, version int64, updatedAt time.Time, lastSync *time.Time) *models.Client {
	return &models.Client{
		Type:     models.ClientTypeProfessional,
		LastName: "ACME",
		Email:    "contact@acme.test",
		SyncMetadata: models.SyncMetadata{
			ID:         id,
			Version:    version,
			CreatedAt:  t1,
			UpdatedAt:  updatedAt,
			LastSyncAt: lastSync,
		},
	}
}

func TestResolve_SameStateIsNoConflict(t *testing.T) {
	for strategy := range strategyNames {
		t.Run(strategy.String(), func(t *testing.T) {
			r := New(strategy)
			local := createTestClient("c1", 3, t2, nil)
			remote := createTestClient("c1", 3, t2.In(time.FixedZone("CET", 3600)), nil)

			assert.Equal(t, NoConflict, r.Resolve(local, remote))
		})
	}
}

func TestResolve_Strategies(t *testing.T) {
	tests := []struct {
		local    *models.Client
		remote   *models.Client
		name     string
		strategy Strategy
		expected Resolution
	}{
		{
			name:     "lww: local newer (scenario B)",
			strategy: LastWriteWins,
			local:    createTestClient("c1", 2, t2, nil),
			remote:   createTestClient("c1", 1, t1, nil),
			expected: UseLocal,
		},
		{
			name:     "lww: remote newer even with lower version",
			strategy: LastWriteWins,
			local:    createTestClient("c1", 5, t1, nil),
			remote:   createTestClient("c1", 2, t2, nil),
			expected: UseRemote,
		},
		{
			name:     "lww: timestamp tie, higher remote version",
			strategy: LastWriteWins,
			local:    createTestClient("c1", 1, t1, nil),
			remote:   createTestClient("c1", 2, t1, nil),
			expected: UseRemote,
		},
		{
			name:     "lww: timestamp tie, higher local version",
			strategy: LastWriteWins,
			local:    createTestClient("c1", 3, t1, nil),
			remote:   createTestClient("c1", 2, t1, nil),
			expected: UseLocal,
		},
		{
			name:     "hvw: local higher version despite older timestamp",
			strategy: HighestVersionWins,
			local:    createTestClient("c1", 4, t1, nil),
			remote:   createTestClient("c1", 3, t2, nil),
			expected: UseLocal,
		},
		{
			name:     "hvw: remote higher version",
			strategy: HighestVersionWins,
			local:    createTestClient("c1", 1, t2, nil),
			remote:   createTestClient("c1", 2, t1, nil),
			expected: UseRemote,
		},
		{
			name:     "hvw: version tie, remote newer",
			strategy: HighestVersionWins,
			local:    createTestClient("c1", 2, t1, nil),
			remote:   createTestClient("c1", 2, t2, nil),
			expected: UseRemote,
		},
		{
			name:     "hvw: version tie, local newer",
			strategy: HighestVersionWins,
			local:    createTestClient("c1", 2, t2, nil),
			remote:   createTestClient("c1", 2, t1, nil),
			expected: UseLocal,
		},
		{
			name:     "local wins regardless of metadata",
			strategy: LocalWins,
			local:    createTestClient("c1", 1, t1, nil),
			remote:   createTestClient("c1", 9, t2, nil),
			expected: UseLocal,
		},
		{
			name:     "remote wins regardless of metadata",
			strategy: RemoteWins,
			local:    createTestClient("c1", 9, t2, nil),
			remote:   createTestClient("c1", 1, t1, nil),
			expected: UseRemote,
		},
		{
			name:     "manual always conflicts (scenario C)",
			strategy: Manual,
			local:    createTestClient("c1", 2, t2, &t1),
			remote:   createTestClient("c1", 3, t2.Add(time.Minute), &t1),
			expected: Conflict,
		},
		{
			name:     "unknown strategy falls back to lww",
			strategy: Strategy(99),
			local:    createTestClient("c1", 1, t2, nil),
			remote:   createTestClient("c1", 1, t1, nil),
			expected: UseLocal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(tt.strategy)

			got := r.Resolve(tt.local, tt.remote)
			assert.Equal(t, tt.expected, got)

			// детерминизм: повторный вызов дает тот же результат
			for range 5 {
				assert.Equal(t, got, r.Resolve(tt.local, tt.remote))
			}
		})
	}
}

func TestDetermineSyncAction(t *testing.T) {
	r := New(Manual)
	synced := t2.Add(time.Minute)
	stale := t1.Add(-time.Minute)

	tests := []struct {
		local    models.Replica
		remote   models.Replica
		name     string
		expected SyncAction
	}{
		{name: "both absent", expected: NoAction},
		{name: "typed nil both absent", local: (*models.Client)(nil), remote: (*models.Client)(nil), expected: NoAction},
		{name: "local only", local: createTestClient("c1", 1, t1, nil), expected: UploadToRemote},
		{name: "remote only (scenario D)", remote: createTestClient("c1", 1, t1, nil), expected: DownloadFromRemote},
		{name: "typed nil local", local: (*models.Client)(nil), remote: createTestClient("c1", 1, t1, nil), expected: DownloadFromRemote},
		{
			name:     "dirty local, clean remote",
			local:    createTestClient("c1", 2, t2, &stale),
			remote:   createTestClient("c1", 1, t1, &synced),
			expected: UploadToRemote,
		},
		{
			name:     "clean local, dirty remote",
			local:    createTestClient("c1", 1, t1, &synced),
			remote:   createTestClient("c1", 2, t2, nil),
			expected: DownloadFromRemote,
		},
		{
			name:     "both dirty (scenario C)",
			local:    createTestClient("c1", 2, t2, &stale),
			remote:   createTestClient("c1", 2, t2, &stale),
			expected: ResolveConflict,
		},
		{
			name:     "both clean",
			local:    createTestClient("c1", 1, t1, &synced),
			remote:   createTestClient("c1", 1, t1, &synced),
			expected: NoAction,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, r.DetermineSyncAction(tt.local, tt.remote))
		})
	}
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		input    string
		expected Strategy
		wantErr  bool
	}{
		{input: "last-write-wins", expected: LastWriteWins},
		{input: "HIGHEST_VERSION_WINS", expected: HighestVersionWins},
		{input: " local-wins ", expected: LocalWins},
		{input: "remote-wins", expected: RemoteWins},
		{input: "manual", expected: Manual},
		{input: "coin-flip", expected: LastWriteWins, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseStrategy(tt.input)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.expected, got)
		})
	}
}
