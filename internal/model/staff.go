package model

import "time"

type Staff struct {
	ID           string
	Email        string
	DisplayName  string
	Role         string
	PasswordHash string
	CreatedAt    time.Time
}
