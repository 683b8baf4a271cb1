package inmemory

import (
	"context"
	"sort"
	"sync"
	"time"

	"taskapi/internal/domain/errors"
	"taskapi/internal/domain/models"

	"github.com/google/uuid"
)

// Storage keeps everything in process memory. It is the fallback when the
// database is unreachable and the store used by the end-to-end tests. It
// applies the same referential and uniqueness rules the SQL schema does.
type Storage struct {
	mu    sync.RWMutex
	users map[string]models.User
	tasks map[string]models.Task
}

func NewStorage() *Storage {
	return &Storage{
		users: make(map[string]models.User),
		tasks: make(map[string]models.Task),
	}
}

func (s *Storage) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Username == user.Username {
			return errors.ErrUserAlreadyExists
		}
	}

	now := time.Now().UTC()
	user.ID = uuid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now
	s.users[user.ID] = *user
	return nil
}

func (s *Storage) GetUserByID(_ context.Context, id string) (*models.User, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.users[id]
	if !exists {
		return nil, errors.ErrUserNotFound
	}
	return &user, nil
}

func (s *Storage) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Username == username {
			u := user
			return &u, nil
		}
	}
	return nil, errors.ErrUserNotFound
}

func (s *Storage) ListUsers(_ context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})
	return users, nil
}

func (s *Storage) CreateTask(_ context.Context, task *models.Task) error {
	if err := validateID(task.AssignedTo); err != nil {
		return errors.ErrAssigneeNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[task.AssignedTo]; !exists {
		return errors.ErrAssigneeNotFound
	}

	now := time.Now().UTC()
	task.ID = uuid.New().String()
	task.CreatedAt = now
	task.UpdatedAt = now
	stored := *task
	stored.Assignee = nil
	s.tasks[task.ID] = stored
	return nil
}

func (s *Storage) GetTaskByID(_ context.Context, id string) (*models.Task, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	task, exists := s.tasks[id]
	if !exists {
		return nil, errors.ErrTaskNotFound
	}
	s.resolveAssignee(&task)
	return &task, nil
}

func (s *Storage) ListTasks(_ context.Context, skip, limit int) ([]models.Task, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]models.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		all = append(all, t)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	totalCount := len(all)
	if skip >= totalCount {
		return []models.Task{}, totalCount, nil
	}
	end := skip + limit
	if end > totalCount {
		end = totalCount
	}

	page := make([]models.Task, end-skip)
	copy(page, all[skip:end])
	for i := range page {
		s.resolveAssignee(&page[i])
	}
	return page, totalCount, nil
}

func (s *Storage) UpdateTask(_ context.Context, id string, task *models.Task) error {
	if err := validateID(id); err != nil {
		return err
	}
	if err := validateID(task.AssignedTo); err != nil {
		return errors.ErrAssigneeNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[id]; !exists {
		return errors.ErrTaskNotFound
	}
	if _, exists := s.users[task.AssignedTo]; !exists {
		return errors.ErrAssigneeNotFound
	}

	task.ID = id
	task.UpdatedAt = time.Now().UTC()
	stored := *task
	stored.Assignee = nil
	s.tasks[id] = stored
	return nil
}

func (s *Storage) DeleteTask(_ context.Context, id string) error {
	if err := validateID(id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[id]; !exists {
		return errors.ErrTaskNotFound
	}
	delete(s.tasks, id)
	return nil
}

// resolveAssignee mirrors the join the SQL store performs. Caller holds at
// least the read lock.
func (s *Storage) resolveAssignee(task *models.Task) {
	if user, exists := s.users[task.AssignedTo]; exists {
		task.Assignee = &models.Assignee{ID: user.ID, Username: user.Username, Role: user.Role}
	}
}

func validateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.ErrInvalidID
	}
	return nil
}
