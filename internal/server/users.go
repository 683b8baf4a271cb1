package server

import (
	"net/http"
	"strings"

	"taskapi/internal/domain/errors"
	"taskapi/internal/domain/models"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator"
)

// register is the only public write endpoint. The submitted role, if any,
// is ignored: registration always produces a regular user. Admins are
// created by an operator (startup bootstrap), never through this path.
func (api *TaskAPI) register(ctx *gin.Context) {
	var req models.RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		api.renderError(ctx, errors.ErrMissingCredentials)
		return
	}

	req.Username = strings.TrimSpace(req.Username)

	valid := validator.New()
	if err := valid.Struct(req); err != nil {
		api.renderError(ctx, errors.ErrMissingCredentials)
		return
	}

	hash, err := api.hasher.Hash(req.Password)
	if err != nil {
		api.renderError(ctx, err)
		return
	}

	user := models.User{
		Username:     req.Username,
		PasswordHash: hash,
		Role:         models.RoleUser,
	}
	if err := api.users.CreateUser(ctx.Request.Context(), &user); err != nil {
		api.renderError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, models.UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	})
}

func (api *TaskAPI) listUsers(ctx *gin.Context) {
	users, err := api.users.ListUsers(ctx.Request.Context())
	if err != nil {
		api.renderError(ctx, err)
		return
	}

	out := make([]models.UserSummary, 0, len(users))
	for _, u := range users {
		out = append(out, models.UserSummary{
			ID:        u.ID,
			Username:  u.Username,
			Role:      u.Role,
			CreatedAt: u.CreatedAt,
		})
	}

	ctx.JSON(http.StatusOK, out)
}
