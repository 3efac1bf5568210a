package websocket

import "github.com/dukerupert/tripquest/internal/backup"

// Entities and actions clients can subscribe to.
const (
	EntityProgress = "progress"
	EntityBackup   = "backup"

	ActionToggled  = "toggled"
	ActionImported = "imported"
	ActionCleared  = "cleared"
	ActionStatus   = "status"
)

// ProgressToggled reports a single id flip in slot.
func ProgressToggled(slot, id string, checked bool) Message {
	return NewMessage(EntityProgress, ActionToggled, id, map[string]any{
		"slot":    slot,
		"checked": checked,
	})
}

// ProgressImported reports a bulk replace or merge of slot.
func ProgressImported(slot, mode string, count int) Message {
	return NewMessage(EntityProgress, ActionImported, "", map[string]any{
		"slot":  slot,
		"mode":  mode,
		"count": count,
	})
}

func ProgressCleared(slot string) Message {
	return NewMessage(EntityProgress, ActionCleared, "", map[string]any{"slot": slot})
}

func BackupStatus(s backup.Status) Message {
	extra := map[string]any{
		"state":       string(s.State),
		"in_progress": s.InProgress,
	}
	if s.Error != "" {
		extra["error"] = s.Error
	}
	if s.LastBackup != nil {
		extra["last_backup"] = s.LastBackup
	}
	return NewMessage(EntityBackup, ActionStatus, "", extra)
}
