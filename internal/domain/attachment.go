package domain

import "time"

// Attachment stores metadata for a file uploaded with a ticket. The
// blob itself lives in the storage layer under StorageKey.
type Attachment struct {
	ID           string
	TicketID     string
	StorageKey   string
	FileName     string
	MimeType     string
	SizeBytes    int64
	UploaderRole UserRole
	CreatedAt    time.Time
}
