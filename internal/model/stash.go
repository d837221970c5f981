// Package model defines database models
package model

// StashItem is a stashed snippet. Exactly one of UserID/GuestID may be set:
// items created while logged in belong to the user, items created
// anonymously belong to the request's guest identity until a login migrates
// them over.
type StashItem struct {
	ID      uint    `gorm:"primaryKey;autoIncrement;index" json:"id"`
	UserID  *string `gorm:"index" json:"-"`
	GuestID *string `gorm:"index" json:"-"`

	// Stable name within one owner's stash. The pinned-note upsert matches on it
	Slug    string `gorm:"size:64;index" json:"slug,omitempty"`
	Title   string `gorm:"size:256" json:"title"`
	Content string      `json:"content"`
	Tags    StringSlice `json:"tags"`
	Private bool        `json:"private"`
	Views   int32  `json:"views"`
	// Unix millisecond timestamps
	CreatedAt int64 `gorm:"autoCreateTime:milli;not null" json:"created_at"`
	UpdatedAt int64 `gorm:"autoUpdateTime:milli" json:"updated_at"`
}

func (s *StashItem) OwnerUserID() *string       { return s.UserID }
func (s *StashItem) OwnerGuestID() *string      { return s.GuestID }
func (s *StashItem) SetOwnerUserID(id *string)  { s.UserID = id }
func (s *StashItem) SetOwnerGuestID(id *string) { s.GuestID = id }
