package models

import "fmt"

// SyncStatus статус синхронизации записи
type SyncStatus int

const (
	SyncStatusSynced   SyncStatus = iota // данные синхронизированы
	SyncStatusPending                    // синхронизация отложена (например, выключена)
	SyncStatusFailed                     // ошибка синхронизации
	SyncStatusConflict                   // конфликт, требующий решения
)

var syncStatusNames = map[SyncStatus]string{
	SyncStatusSynced:   "synced",
	SyncStatusPending:  "pending",
	SyncStatusFailed:   "failed",
	SyncStatusConflict: "conflict",
}

func (s SyncStatus) String() string {
	if name, ok := syncStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("SyncStatus(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s SyncStatus) MarshalText() ([]byte, error) {
	name, ok := syncStatusNames[s]
	if !ok {
		return nil, fmt.Errorf("unknown sync status %d", int(s))
	}
	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *SyncStatus) UnmarshalText(text []byte) error {
	for status, name := range syncStatusNames {
		if name == string(text) {
			*s = status
			return nil
		}
	}
	return fmt.Errorf("unknown sync status %q", string(text))
}
