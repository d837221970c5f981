package model

type User struct {
	ID           string `gorm:"primaryKey;type:uuid"`
	Email        string `gorm:"unique; not null"`
	PasswordHash string `gorm:"not null"`

	Stash []StashItem `gorm:"foreignKey:UserID"`
}
