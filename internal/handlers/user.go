package handlers

import (
	"context"

	"github.com/campus-hub/campus-events-api/internal/auth"
	"github.com/campus-hub/campus-events-api/internal/models"
	"github.com/danielgtaylor/huma/v2"
	"gorm.io/gorm"
)

type UserHandler struct {
	db          *gorm.DB
	authHandler *auth.AuthHandler
}

func NewUserHandler(db *gorm.DB, authHandler *auth.AuthHandler) *UserHandler {
	return &UserHandler{db: db, authHandler: authHandler}
}

type ListUsersRequest struct {
	auth.AuthInput
}

type ListUsersResponse struct {
	Body []models.User
}

func (h *UserHandler) HandleListUsers(ctx context.Context, input *ListUsersRequest) (*ListUsersResponse, error) {
	user, err := h.authHandler.Authorize(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() {
		return nil, huma.Error403Forbidden("Only admins can list users")
	}

	var users []models.User
	if err := h.db.WithContext(ctx).Find(&users).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to list users")
	}
	if users == nil {
		users = []models.User{}
	}
	return &ListUsersResponse{Body: users}, nil
}

type GetUserRequest struct {
	auth.AuthInput
	ID uint `path:"id"`
}

type UserResponse struct {
	Body models.User
}

func (h *UserHandler) HandleGetUser(ctx context.Context, input *GetUserRequest) (*UserResponse, error) {
	actor, err := h.authHandler.Authorize(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && actor.ID != input.ID {
		return nil, huma.Error403Forbidden("Forbidden")
	}

	var user models.User
	if err := h.db.WithContext(ctx).First(&user, input.ID).Error; err != nil {
		return nil, huma.Error404NotFound("User not found")
	}
	return &UserResponse{Body: user}, nil
}

type UpdateUserRequest struct {
	auth.AuthInput
	ID   uint `path:"id"`
	Body struct {
		Name        *string      `json:"name,omitempty"`
		PhoneNumber *string      `json:"phone_number,omitempty"`
		Department  *string      `json:"department,omitempty"`
		StudentID   *string      `json:"student_id,omitempty"`
		Role        *models.Role `json:"role,omitempty" doc:"Only admins may change roles"`
	}
}

func (h *UserHandler) HandleUpdateUser(ctx context.Context, input *UpdateUserRequest) (*UserResponse, error) {
	actor, err := h.authHandler.Authorize(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && actor.ID != input.ID {
		return nil, huma.Error403Forbidden("Forbidden")
	}

	var user models.User
	if err := h.db.WithContext(ctx).First(&user, input.ID).Error; err != nil {
		return nil, huma.Error404NotFound("User not found")
	}

	b := input.Body
	if b.Name != nil {
		user.Name = *b.Name
	}
	if b.PhoneNumber != nil {
		user.PhoneNumber = *b.PhoneNumber
	}
	if b.Department != nil {
		user.Department = *b.Department
	}
	if b.StudentID != nil {
		user.StudentID = *b.StudentID
	}
	if b.Role != nil {
		if !actor.IsAdmin() {
			return nil, huma.Error403Forbidden("Only admins can change roles")
		}
		if !b.Role.Valid() {
			return nil, huma.Error400BadRequest("Unknown role")
		}
		user.Role = *b.Role
	}

	if err := h.db.Save(&user).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to update user")
	}
	return &UserResponse{Body: user}, nil
}

type DeleteUserRequest struct {
	auth.AuthInput
	ID uint `path:"id"`
}

func (h *UserHandler) HandleDeleteUser(ctx context.Context, input *DeleteUserRequest) (*MessageResponse, error) {
	actor, err := h.authHandler.Authorize(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		return nil, huma.Error403Forbidden("Only admins can delete users")
	}

	var user models.User
	if err := h.db.WithContext(ctx).First(&user, input.ID).Error; err != nil {
		return nil, huma.Error404NotFound("User not found")
	}
	if err := h.db.Delete(&user).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to delete user")
	}

	res := &MessageResponse{}
	res.Body.Message = "User deleted successfully"
	return res, nil
}
