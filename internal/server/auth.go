package server

import (
	"encoding/base64"
	stderrors "errors"
	"fmt"
	"strings"

	"taskapi/internal/domain/errors"
	"taskapi/internal/domain/models"

	"github.com/gin-gonic/gin"
)

const (
	identityKey = "identity"
	taskKey     = "task"
)

// basicAuth resolves the acting user from the Authorization header.
// A missing or malformed header gets the challenge; an empty username or
// password does not. Unknown user and wrong password share one message so
// the response never leaks which part was wrong.
func (api *TaskAPI) basicAuth(ctx *gin.Context) {
	scheme, encoded, found := strings.Cut(ctx.GetHeader("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "Basic") || encoded == "" {
		ctx.Header("WWW-Authenticate", fmt.Sprintf("Basic realm=%q", api.cfg.Realm))
		api.renderError(ctx, errors.ErrAuthRequired)
		return
	}

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		api.renderError(ctx, errors.ErrInvalidAuthHeader)
		return
	}
	username, password, found := strings.Cut(string(decoded), ":")
	if !found || username == "" || password == "" {
		api.renderError(ctx, errors.ErrInvalidAuthHeader)
		return
	}

	user, err := api.users.GetUserByUsername(ctx.Request.Context(), username)
	if err != nil {
		if stderrors.Is(err, errors.ErrUserNotFound) {
			api.renderError(ctx, errors.ErrInvalidCreds)
			return
		}
		api.renderError(ctx, err)
		return
	}

	if !api.hasher.Verify(password, user.PasswordHash) {
		api.renderError(ctx, errors.ErrInvalidCreds)
		return
	}

	ctx.Set(identityKey, user)
	ctx.Next()
}

func (api *TaskAPI) requireAdmin(ctx *gin.Context) {
	identity := identityFrom(ctx)
	if identity == nil || identity.Role != models.RoleAdmin {
		api.renderError(ctx, errors.ErrAdminOnly)
		return
	}
	ctx.Next()
}

// requireTaskAccess loads the task named in the path and verifies the
// acting user is admin or its assignee. The loaded task is stashed in the
// context so the handler does not hit the store twice.
func (api *TaskAPI) requireTaskAccess(ctx *gin.Context) {
	task, err := api.tasks.GetTaskByID(ctx.Request.Context(), ctx.Param("taskID"))
	if err != nil {
		api.renderError(ctx, err)
		return
	}

	identity := identityFrom(ctx)
	if identity == nil {
		api.renderError(ctx, errors.ErrAuthRequired)
		return
	}
	if identity.Role != models.RoleAdmin && task.AssignedTo != identity.ID {
		api.renderError(ctx, errors.ErrForbidden)
		return
	}

	ctx.Set(taskKey, task)
	ctx.Next()
}

// enforceAssignmentRules applies the create-path assignment policy: an
// admin may assign to anyone, everyone else is forced onto themselves no
// matter what was submitted.
func enforceAssignmentRules(identity *models.User, req *models.CreateTaskRequest) {
	if identity.Role == models.RoleAdmin {
		return
	}
	req.AssignedTo = identity.ID
}

// blockReassignmentForUsers strips assignedTo from a non-admin's update
// payload. The field is dropped silently, not rejected.
func blockReassignmentForUsers(identity *models.User, req *models.UpdateTaskRequest) {
	if identity.Role == models.RoleAdmin {
		return
	}
	req.AssignedTo = nil
}

func identityFrom(ctx *gin.Context) *models.User {
	v, ok := ctx.Get(identityKey)
	if !ok {
		return nil
	}
	user, ok := v.(*models.User)
	if !ok {
		return nil
	}
	return user
}

func taskFrom(ctx *gin.Context) *models.Task {
	v, ok := ctx.Get(taskKey)
	if !ok {
		return nil
	}
	task, ok := v.(*models.Task)
	if !ok {
		return nil
	}
	return task
}
