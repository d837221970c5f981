package model

import "time"

// Guest is one anonymous visitor session. The client only ever sees the
// opaque token, which it keeps in the guest cookie and round-trips on every
// request.
type Guest struct {
	ID         string    `gorm:"primaryKey;type:uuid" json:"id"`
	Token      string    `gorm:"size:64;not null;uniqueIndex" json:"-"`
	LastSeenAt time.Time `gorm:"index" json:"last_seen_at"`
	// Last seen client IP. Only written when guest.track_source_addr is on
	SourceAddr string    `gorm:"size:45" json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}
