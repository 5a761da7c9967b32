package models

// Note status flag values stored in note_status
const (
	StatusIncomplete = 0
	StatusComplete   = 1
)

// Note represents a to-do item owned by a caller IP
type Note struct {
	ID     int64  `db:"id" json:"id"`
	UserIP string `db:"user_ip" json:"user_ip"`
	Text   string `db:"note_text" json:"note_text"`
	Done   bool   `db:"note_status" json:"note_status"`
}

// StatusFilter selects notes by completion state on read
type StatusFilter string

const (
	FilterUncomplete StatusFilter = "uncomplete"
	FilterComplete   StatusFilter = "complete"
	FilterAny        StatusFilter = "any"
)

// StatusFlag converts the completion state to the stored integer flag
func StatusFlag(done bool) int {
	if done {
		return StatusComplete
	}
	return StatusIncomplete
}
