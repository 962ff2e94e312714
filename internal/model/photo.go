package model

// TimestampLayout is the ledger's wall-clock format (YYYY-MM-DD HH:MM:SS).
const TimestampLayout = "2006-01-02 15:04:05"

// Photo represents a ledger row for a saved image.
type Photo struct {
	ID        int64  `json:"id"`
	FilePath  string `json:"file_path"`
	Timestamp string `json:"timestamp"`
	Uploaded  bool   `json:"uploaded"`
}
