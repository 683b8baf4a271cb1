package server

import (
	"net/http"
	"strings"

	"taskapi/internal/domain/errors"
	"taskapi/internal/domain/models"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator"
)

func (api *TaskAPI) createTask(ctx *gin.Context) {
	var req models.CreateTaskRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		api.renderError(ctx, errors.ErrBadRequest)
		return
	}

	identity := identityFrom(ctx)
	if identity == nil {
		api.renderError(ctx, errors.ErrAuthRequired)
		return
	}

	enforceAssignmentRules(identity, &req)

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		api.renderError(ctx, errors.ErrTitleRequired)
		return
	}

	valid := validator.New()
	if err := valid.Struct(req); err != nil {
		api.renderError(ctx, errors.ErrValidation)
		return
	}
	if req.Status == "" {
		req.Status = models.StatusOpen
	}
	if req.AssignedTo == "" {
		api.renderError(ctx, errors.ErrValidation)
		return
	}

	task := models.Task{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		AssignedTo:  req.AssignedTo,
	}
	if err := api.tasks.CreateTask(ctx.Request.Context(), &task); err != nil {
		api.renderError(ctx, err)
		return
	}

	// The create response carries the assignee's role as well, matching
	// the richer populate done on this path.
	if assignee, err := api.users.GetUserByID(ctx.Request.Context(), task.AssignedTo); err == nil {
		task.Assignee = &models.Assignee{ID: assignee.ID, Username: assignee.Username, Role: assignee.Role}
	}

	ctx.JSON(http.StatusCreated, normalizeTask(&task, true))
}

func (api *TaskAPI) getTasks(ctx *gin.Context) {
	params := NormalizePage(ctx.Query("page"), ctx.Query("limit"))

	tasks, totalCount, err := api.tasks.ListTasks(ctx.Request.Context(), params.Skip, params.Limit)
	if err != nil {
		api.renderError(ctx, err)
		return
	}

	data := make([]models.TaskResponse, 0, len(tasks))
	for i := range tasks {
		data = append(data, normalizeTask(&tasks[i], false))
	}

	ctx.JSON(http.StatusOK, models.TaskListResponse{
		Data:       data,
		Pagination: BuildPagination(totalCount, params.Page, params.Limit),
	})
}

func (api *TaskAPI) getTaskByID(ctx *gin.Context) {
	task, err := api.tasks.GetTaskByID(ctx.Request.Context(), ctx.Param("taskID"))
	if err != nil {
		api.renderError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, normalizeTask(task, false))
}

// updateTask applies a partial update to the task loaded by
// requireTaskAccess. Only fields present in the payload change.
func (api *TaskAPI) updateTask(ctx *gin.Context) {
	task := taskFrom(ctx)
	identity := identityFrom(ctx)
	if task == nil || identity == nil {
		api.renderError(ctx, errors.ErrInternalServer)
		return
	}

	var req models.UpdateTaskRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		api.renderError(ctx, errors.ErrBadRequest)
		return
	}

	blockReassignmentForUsers(identity, &req)

	valid := validator.New()
	if err := valid.Struct(req); err != nil {
		api.renderError(ctx, errors.ErrValidation)
		return
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			api.renderError(ctx, errors.ErrValidation)
			return
		}
		task.Title = title
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Status != nil {
		task.Status = *req.Status
	}
	if req.AssignedTo != nil {
		if *req.AssignedTo == "" {
			api.renderError(ctx, errors.ErrValidation)
			return
		}
		task.AssignedTo = *req.AssignedTo
	}

	if err := api.tasks.UpdateTask(ctx.Request.Context(), task.ID, task); err != nil {
		api.renderError(ctx, err)
		return
	}

	updated, err := api.tasks.GetTaskByID(ctx.Request.Context(), task.ID)
	if err != nil {
		api.renderError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, normalizeTask(updated, false))
}

func (api *TaskAPI) deleteTask(ctx *gin.Context) {
	task := taskFrom(ctx)
	if task == nil {
		api.renderError(ctx, errors.ErrInternalServer)
		return
	}

	if err := api.tasks.DeleteTask(ctx.Request.Context(), task.ID); err != nil {
		api.renderError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

func normalizeTask(task *models.Task, withRole bool) models.TaskResponse {
	var assignee *models.Assignee
	if task.Assignee != nil {
		a := *task.Assignee
		if !withRole {
			a.Role = ""
		}
		assignee = &a
	}
	return models.TaskResponse{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		AssignedTo:  assignee,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}
