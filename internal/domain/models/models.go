package models

import "time"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

const (
	StatusOpen       = "open"
	StatusInProgress = "in_progress"
	StatusDone       = "done"
)

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	AssignedTo  string    `json:"assignedTo"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	// Assignee is resolved by the store (join or map lookup) and is nil
	// when the referenced user no longer exists.
	Assignee *Assignee `json:"-"`
}

// Assignee is the resolved user a task points at.
type Assignee struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role,omitempty"`
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type CreateTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	AssignedTo  string `json:"assignedTo"`
	Status      string `json:"status" validate:"omitempty,oneof=open in_progress done"`
}

// UpdateTaskRequest uses pointers so a partial update can tell "field
// absent" apart from "field set to its zero value".
type UpdateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	AssignedTo  *string `json:"assignedTo"`
	Status      *string `json:"status" validate:"omitempty,oneof=open in_progress done"`
}

type UserResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type UserSummary struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// TaskResponse is the normalized task shape: internal store metadata is
// never exposed and the assignee is embedded as a summary.
type TaskResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	AssignedTo  *Assignee `json:"assignedTo"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Pagination struct {
	TotalCount int `json:"totalCount"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

type TaskListResponse struct {
	Data       []TaskResponse `json:"data"`
	Pagination Pagination     `json:"pagination"`
}
