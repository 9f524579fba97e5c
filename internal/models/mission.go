package models

import "time"

// MissionStatus статус миссии
type MissionStatus string

const (
	MissionStatusCreated    MissionStatus = "created"
	MissionStatusScheduled  MissionStatus = "scheduled"
	MissionStatusInProgress MissionStatus = "in_progress"
	MissionStatusCompleted  MissionStatus = "completed"
	MissionStatusCancelled  MissionStatus = "cancelled"
	MissionStatusOnHold     MissionStatus = "on_hold"
)

// CollectionMissions коллекция миссий в удаленном хранилище
const CollectionMissions = "missions"

// Mission представляет выезд диагноста к клиенту.
type Mission struct {
	ScheduledAt *time.Time    `json:"scheduled_at,omitempty"` // ScheduledAt запланированная дата
	Status      MissionStatus `json:"status"`                 // Status текущий статус
	Number      string        `json:"number"`                 // Number номер миссии (например, "M-20260101-0001")
	Title       string        `json:"title"`                  // Title краткое описание
	ClientID    string        `json:"client_id"`              // ClientID локальный ID клиента
	Address     string        `json:"address"`                // Address адрес объекта
	Notes       string        `json:"notes"`                  // Notes внутренние заметки
	Tags        []string      `json:"tags"`                   // Tags теги для поиска
	SyncMetadata
}

// MissionSchema describes the business fields of Mission.
var MissionSchema = Schema[*Mission]{
	Kind: CollectionMissions,
	New:  func() *Mission { return &Mission{} },
	Fields: []Field[*Mission]{
		Scalar("number",
			func(m *Mission) string { return m.Number },
			func(m *Mission, v string) { m.Number = v }),
		Scalar("status",
			func(m *Mission) MissionStatus { return m.Status },
			func(m *Mission, v MissionStatus) { m.Status = v }),
		Scalar("title",
			func(m *Mission) string { return m.Title },
			func(m *Mission, v string) { m.Title = v }),
		Scalar("client_id",
			func(m *Mission) string { return m.ClientID },
			func(m *Mission, v string) { m.ClientID = v }),
		Timestamp("scheduled_at",
			func(m *Mission) *time.Time { return m.ScheduledAt },
			func(m *Mission, v *time.Time) { m.ScheduledAt = v }),
		Scalar("address",
			func(m *Mission) string { return m.Address },
			func(m *Mission, v string) { m.Address = v }),
		Scalar("notes",
			func(m *Mission) string { return m.Notes },
			func(m *Mission, v string) { m.Notes = v }),
		Strings("tags",
			func(m *Mission) []string { return m.Tags },
			func(m *Mission, v []string) { m.Tags = v }),
	},
}
