package db

import (
	"context"
	stderrors "errors"
	"log/slog"
	"time"

	"taskapi/internal/domain/errors"
	"taskapi/internal/domain/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgInvalidTextRepr     = "22P02"
)

// PgxPool is the subset of pgxpool.Pool the storage uses. pgxmock's pool
// satisfies it too, which keeps the SQL layer testable without a database.
type PgxPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// Storage is the PostgreSQL-backed store. One pool is shared by every
// request; the database is the sole mutation arbiter.
type Storage struct {
	pool PgxPool
	log  *slog.Logger
}

const (
	queryCreateUser = `INSERT INTO users (id, username, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	queryGetUserByID = `SELECT id, username, password_hash, role, created_at, updated_at
		FROM users WHERE id = $1`
	queryGetUserByUsername = `SELECT id, username, password_hash, role, created_at, updated_at
		FROM users WHERE username = $1`
	queryListUsers = `SELECT id, username, password_hash, role, created_at, updated_at
		FROM users ORDER BY created_at DESC`

	queryCreateTask = `INSERT INTO tasks (id, title, description, status, assigned_to, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	queryGetTaskByID = `SELECT t.id, t.title, t.description, t.status, t.assigned_to, t.created_at, t.updated_at,
			u.id, u.username, u.role
		FROM tasks t LEFT JOIN users u ON u.id = t.assigned_to
		WHERE t.id = $1`
	queryListTasks = `SELECT t.id, t.title, t.description, t.status, t.assigned_to, t.created_at, t.updated_at,
			u.id, u.username, u.role
		FROM tasks t LEFT JOIN users u ON u.id = t.assigned_to
		ORDER BY t.created_at DESC OFFSET $1 LIMIT $2`
	queryCountTasks = `SELECT count(*) FROM tasks`
	queryUpdateTask = `UPDATE tasks SET title = $1, description = $2, status = $3, assigned_to = $4, updated_at = $5
		WHERE id = $6`
	queryDeleteTask = `DELETE FROM tasks WHERE id = $1`
)

func NewStorage(ctx context.Context, connStr string, log *slog.Logger) (*Storage, error) {
	if log == nil {
		log = slog.Default()
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		log.Error("could not create connection pool", slog.String("error", err.Error()))
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		log.Error("could not reach database", slog.String("error", err.Error()))
		return nil, err
	}

	log.Info("database connection established")
	return &Storage{pool: pool, log: log}, nil
}

// NewStorageWithPool wires an existing pool, used by tests with pgxmock.
func NewStorageWithPool(pool PgxPool, log *slog.Logger) *Storage {
	if log == nil {
		log = slog.Default()
	}
	return &Storage{pool: pool, log: log}
}

func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Storage) CreateUser(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	user.ID = uuid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := s.pool.Exec(ctx, queryCreateUser,
		user.ID, user.Username, user.PasswordHash, user.Role, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return s.mapError(err, errors.ErrUserNotFound)
	}
	return nil
}

func (s *Storage) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	return s.scanUser(s.pool.QueryRow(ctx, queryGetUserByID, id))
}

func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.scanUser(s.pool.QueryRow(ctx, queryGetUserByUsername, username))
}

func (s *Storage) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.pool.Query(ctx, queryListUsers)
	if err != nil {
		return nil, s.mapError(err, errors.ErrUserNotFound)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *Storage) CreateTask(ctx context.Context, task *models.Task) error {
	if err := validateID(task.AssignedTo); err != nil {
		return errors.ErrAssigneeNotFound
	}

	now := time.Now().UTC()
	task.ID = uuid.New().String()
	task.CreatedAt = now
	task.UpdatedAt = now

	_, err := s.pool.Exec(ctx, queryCreateTask,
		task.ID, task.Title, task.Description, task.Status, task.AssignedTo, task.CreatedAt, task.UpdatedAt)
	if err != nil {
		return s.mapError(err, errors.ErrTaskNotFound)
	}
	return nil
}

func (s *Storage) GetTaskByID(ctx context.Context, id string) (*models.Task, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	return s.scanTask(s.pool.QueryRow(ctx, queryGetTaskByID, id))
}

func (s *Storage) ListTasks(ctx context.Context, skip, limit int) ([]models.Task, int, error) {
	var totalCount int
	if err := s.pool.QueryRow(ctx, queryCountTasks).Scan(&totalCount); err != nil {
		return nil, 0, err
	}

	rows, err := s.pool.Query(ctx, queryListTasks, skip, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		task, err := scanTaskRow(rows)
		if err != nil {
			return nil, 0, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, totalCount, rows.Err()
}

func (s *Storage) UpdateTask(ctx context.Context, id string, task *models.Task) error {
	if err := validateID(id); err != nil {
		return err
	}

	task.UpdatedAt = time.Now().UTC()

	ct, err := s.pool.Exec(ctx, queryUpdateTask,
		task.Title, task.Description, task.Status, task.AssignedTo, task.UpdatedAt, id)
	if err != nil {
		return s.mapError(err, errors.ErrTaskNotFound)
	}
	if ct.RowsAffected() == 0 {
		return errors.ErrTaskNotFound
	}
	return nil
}

func (s *Storage) DeleteTask(ctx context.Context, id string) error {
	if err := validateID(id); err != nil {
		return err
	}

	ct, err := s.pool.Exec(ctx, queryDeleteTask, id)
	if err != nil {
		return s.mapError(err, errors.ErrTaskNotFound)
	}
	if ct.RowsAffected() == 0 {
		return errors.ErrTaskNotFound
	}
	return nil
}

func (s *Storage) scanUser(row pgx.Row) (*models.User, error) {
	user := &models.User{}
	if err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Role, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return nil, s.mapError(err, errors.ErrUserNotFound)
	}
	return user, nil
}

func (s *Storage) scanTask(row pgx.Row) (*models.Task, error) {
	task, err := scanTaskRow(row)
	if err != nil {
		return nil, s.mapError(err, errors.ErrTaskNotFound)
	}
	return task, nil
}

func scanTaskRow(row pgx.Row) (*models.Task, error) {
	task := &models.Task{}
	var assigneeID, assigneeName, assigneeRole *string
	err := row.Scan(&task.ID, &task.Title, &task.Description, &task.Status, &task.AssignedTo,
		&task.CreatedAt, &task.UpdatedAt, &assigneeID, &assigneeName, &assigneeRole)
	if err != nil {
		return nil, err
	}
	if assigneeID != nil && assigneeName != nil {
		task.Assignee = &models.Assignee{ID: *assigneeID, Username: *assigneeName}
		if assigneeRole != nil {
			task.Assignee.Role = *assigneeRole
		}
	}
	return task, nil
}

// mapError normalizes driver errors into the domain sentinels: no rows
// becomes notFound, a unique violation a duplicate, a broken assignee FK a
// missing assignee, and malformed uuid text an invalid identifier.
func (s *Storage) mapError(err error, notFound error) error {
	if stderrors.Is(err, pgx.ErrNoRows) {
		return notFound
	}

	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return errors.ErrUserAlreadyExists
		case pgForeignKeyViolation:
			return errors.ErrAssigneeNotFound
		case pgInvalidTextRepr:
			return errors.ErrInvalidID
		}
	}

	s.log.Error("database error", slog.String("error", err.Error()))
	return err
}

// validateID rejects syntactically malformed identifiers before they reach
// the database, so a bad uuid is an invalid-identifier error on every path.
func validateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.ErrInvalidID
	}
	return nil
}
