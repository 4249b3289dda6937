package document

import "time"

// Document is the unit of storage: an opaque payload stored under a
// client-supplied id. The service never interprets Content. StoredAt is
// assigned by the coordinator when a write is accepted, not by the caller.
type Document struct {
	ID       string    `json:"id" bson:"id"`
	Content  []byte    `json:"content" bson:"content"`
	StoredAt time.Time `json:"storedAt" bson:"storedAt"`
}
