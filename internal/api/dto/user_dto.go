package dto

import "github.com/quickdesk/helpdesk-service/internal/domain"

// AdminCreateUserRequest payload for admin-provisioned accounts.
type AdminCreateUserRequest struct {
	Username string      `json:"username"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     domain.Role `json:"role"`
}

// AdminUpdateUserRequest payload; nil fields stay untouched.
type AdminUpdateUserRequest struct {
	Username *string      `json:"username"`
	Email    *string      `json:"email"`
	Password *string      `json:"password"`
	Role     *domain.Role `json:"role"`
}

// ChangeRoleRequest payload.
type ChangeRoleRequest struct {
	Role domain.Role `json:"role"`
}
