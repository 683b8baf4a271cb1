package errors

import "errors"

// Sentinel errors for the service. The text of each error is the exact
// message rendered to the client, so handlers can return err.Error()
// directly in the {"message": ...} body.
var (
	ErrUserNotFound      = errors.New("User not found")
	ErrTaskNotFound      = errors.New("Task not found")
	ErrUserAlreadyExists = errors.New("Username already exists")
	ErrAssigneeNotFound  = errors.New("assignee does not exist")

	ErrValidation = errors.New("Validation error")
	ErrInvalidID  = errors.New("Invalid identifier")

	ErrMissingCredentials = errors.New("username and password are required")
	ErrTitleRequired      = errors.New("title is required")

	ErrAuthRequired      = errors.New("Authentication required")
	ErrInvalidAuthHeader = errors.New("Invalid authorization header")
	ErrInvalidCreds      = errors.New("Invalid credentials")
	ErrAdminOnly         = errors.New("Admin only")
	ErrForbidden         = errors.New("Forbidden")

	ErrNotFound       = errors.New("Not Found")
	ErrBadRequest     = errors.New("Bad Request")
	ErrInternalServer = errors.New("Internal Server Error")
)
