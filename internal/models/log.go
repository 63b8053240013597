package models

import "time"

// AccessLog records logins and mutating API calls for auditing.
type AccessLog struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"index;not null"`
	Action    string `gorm:"size:1024;not null"` // "Login", "POST /api/aih", ...
	Method    string `gorm:"size:16"`
	Path      string `gorm:"size:255"`
	IP        string `gorm:"size:64"`
	UserAgent string `gorm:"size:255"`
	Status    int
	CreatedAt time.Time `gorm:"index"`
}

// Backup is an encrypted database snapshot stored in the backup dir.
type Backup struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"index;not null"`
	FileName  string `gorm:"size:255;not null"`
	FilePath  string `gorm:"size:1024;not null"`
	Size      int64
	CreatedAt time.Time
}

// ActionLogin is the AccessLog action written on successful login.
const ActionLogin = "Login"
