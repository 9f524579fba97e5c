package sync

import "github.com/iudanet/gophsync/internal/models"

// Result is the outcome of a sync operation. Engine methods never return
// errors: every failure is reported as a Failed result.
type Result struct {
	Message   string            `json:"message"`
	Status    models.SyncStatus `json:"status"`
	Pushed    int               `json:"pushed"`    // записей отправлено на remote
	Synced    int               `json:"synced"`    // записей получено с remote
	Conflicts int               `json:"conflicts"` // неразрешенных конфликтов
	Failed    int               `json:"failed"`    // записей с ошибкой (только FullSync)
	IsSuccess bool              `json:"is_success"`
}

// Success creates a successful result
func Success(message string) Result {
	return Result{IsSuccess: true, Message: message, Status: models.SyncStatusSynced}
}

// Error creates a failed result
func Error(message string) Result {
	return Result{Message: message, Status: models.SyncStatusFailed}
}

// ConflictResult creates a result for divergence that needs an explicit resolution
func ConflictResult(message string) Result {
	return Result{Message: message, Status: models.SyncStatusConflict, Conflicts: 1}
}

// Disabled creates the result returned while synchronization is turned off
func Disabled() Result {
	return Result{Message: "synchronization is disabled", Status: models.SyncStatusPending}
}
