package dto

import (
	"time"

	"github.com/fekuna/repairshop-service/internal/model"
)

type SignInInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type CreateStaffInput struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      User      `json:"user"`
}

func UserFromStaff(s *model.Staff) User {
	return User{ID: s.ID, Email: s.Email, DisplayName: s.DisplayName, Role: s.Role}
}
