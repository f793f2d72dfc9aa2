// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"github.com/usermeta/usermeta/internal/model"
)

// UserResponse represents a user record in API responses.
// Keys are lower case, matching the stored document shape.
type UserResponse struct {
	ID     string `json:"id"`
	UserID string `json:"userid"`
	Email  string `json:"email"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ToUserResponse converts a UserRecord to a UserResponse DTO.
func ToUserResponse(record model.UserRecord) UserResponse {
	return UserResponse{
		ID:     record.ID(),
		UserID: record.OwnerID,
		Email:  record.Email,
	}
}

// ToUserListResponse converts records to response DTOs. The result is
// never nil so an empty list serializes as [].
func ToUserListResponse(records []model.UserRecord) []UserResponse {
	responses := make([]UserResponse, len(records))
	for i, record := range records {
		responses[i] = ToUserResponse(record)
	}
	return responses
}
