package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"taskapi/internal/domain/errors"
	"taskapi/internal/domain/models"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
}

type TaskRepository interface {
	CreateTask(ctx context.Context, task *models.Task) error
	GetTaskByID(ctx context.Context, id string) (*models.Task, error)
	ListTasks(ctx context.Context, skip, limit int) ([]models.Task, int, error)
	UpdateTask(ctx context.Context, id string, task *models.Task) error
	DeleteTask(ctx context.Context, id string) error
}

// TaskAPI holds everything a request needs: the store interfaces, the
// password hasher, the logger and the config. It is constructed once at
// startup and passed around explicitly instead of living in globals.
type TaskAPI struct {
	httpSrv *http.Server
	users   UserRepository
	tasks   TaskRepository
	hasher  *Hasher
	log     *slog.Logger
	cfg     *Config
	started time.Time
}

func NewTaskAPI(users UserRepository, tasks TaskRepository, cfg *Config, log *slog.Logger) *TaskAPI {
	if users == nil || tasks == nil {
		return nil
	}
	if cfg == nil {
		cfg = ReadConfig()
	}
	if log == nil {
		log = slog.Default()
	}

	api := TaskAPI{
		httpSrv: &http.Server{
			Addr: fmt.Sprintf("%s:%d", cfg.Addr, cfg.Port),
		},
		users:   users,
		tasks:   tasks,
		hasher:  NewHasher(cfg.BcryptCost),
		log:     log,
		cfg:     cfg,
		started: time.Now(),
	}

	api.configRoutes()

	return &api
}

func (api *TaskAPI) Start() error {
	if api.httpSrv == nil {
		return errors.ErrInternalServer
	}
	return api.httpSrv.ListenAndServe()
}

func (api *TaskAPI) Shutdown(ctx context.Context) error {
	if api.httpSrv == nil {
		return nil
	}
	return api.httpSrv.Shutdown(ctx)
}

// Handler exposes the configured router, mainly for tests driving the API
// through httptest without a listening socket.
func (api *TaskAPI) Handler() http.Handler {
	return api.httpSrv.Handler
}

func (api *TaskAPI) configRoutes() {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(api.log), Metrics(), GzipResponse())

	router.NoRoute(func(ctx *gin.Context) {
		ctx.JSON(http.StatusNotFound, gin.H{"message": errors.ErrNotFound.Error()})
	})

	router.GET("/health", api.health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	users := router.Group("/users")
	{
		users.POST("", api.register)
		users.GET("", api.basicAuth, api.requireAdmin, api.listUsers)
	}

	tasks := router.Group("/tasks", api.basicAuth)
	{
		tasks.POST("", api.createTask)
		tasks.GET("", api.getTasks)
		tasks.GET(":taskID", api.getTaskByID)
		tasks.PUT(":taskID", api.requireTaskAccess, api.updateTask)
		tasks.DELETE(":taskID", api.requireTaskAccess, api.deleteTask)
	}

	api.httpSrv.Handler = router
}

func (api *TaskAPI) health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"uptime": time.Since(api.started).Seconds(),
	})
}

// renderError maps a sentinel error to its HTTP status and writes the
// {"message": ...} body. Unknown errors become a generic 500; the original
// error is logged unless the service runs in test mode.
func (api *TaskAPI) renderError(ctx *gin.Context, err error) {
	switch {
	case stderrors.Is(err, errors.ErrMissingCredentials),
		stderrors.Is(err, errors.ErrTitleRequired),
		stderrors.Is(err, errors.ErrValidation),
		stderrors.Is(err, errors.ErrInvalidID),
		stderrors.Is(err, errors.ErrBadRequest):
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	case stderrors.Is(err, errors.ErrAssigneeNotFound):
		// A dangling assignee reference is a validation problem from the
		// client's point of view; the store detail stays internal.
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": errors.ErrValidation.Error()})
	case stderrors.Is(err, errors.ErrAuthRequired),
		stderrors.Is(err, errors.ErrInvalidAuthHeader),
		stderrors.Is(err, errors.ErrInvalidCreds):
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": err.Error()})
	case stderrors.Is(err, errors.ErrAdminOnly), stderrors.Is(err, errors.ErrForbidden):
		ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": err.Error()})
	case stderrors.Is(err, errors.ErrTaskNotFound), stderrors.Is(err, errors.ErrUserNotFound),
		stderrors.Is(err, errors.ErrNotFound):
		ctx.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": err.Error()})
	case stderrors.Is(err, errors.ErrUserAlreadyExists):
		ctx.AbortWithStatusJSON(http.StatusConflict, gin.H{"message": err.Error()})
	default:
		if api.cfg.Mode != ModeTest {
			api.log.Error("unhandled request error",
				slog.String("method", ctx.Request.Method),
				slog.String("path", ctx.Request.URL.Path),
				slog.String("error", err.Error()),
			)
		}
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": errors.ErrInternalServer.Error()})
	}
}
