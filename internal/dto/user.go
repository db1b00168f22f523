package dto

import "github.com/yutasato/campus-crm-api/internal/models"

// UserDTO represents a user in API responses
type UserDTO struct {
	ID    uint64 `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
	}
}
