package todos

import (
	"context"
	"errors"
	"time"

	"github.com/khanghh/taskvault/model"
)

var (
	ErrNotOwner = errors.New("todo belongs to another user")
)

type CreateTodoOptions struct {
	Title       string
	Description string
	DueDate     *time.Time
}

type UpdateTodoOptions struct {
	Title       *string
	Description *string
	Completed   *bool
	DueDate     *time.Time
}

type TodoService struct {
	todoRepo TodoRepository
}

// authorize returns the todo when the principal owns it or is an admin.
func (s *TodoService) authorize(ctx context.Context, todoID uint, userID uint, role string) (*model.Todo, error) {
	todo, err := s.todoRepo.FindByID(ctx, todoID)
	if err != nil {
		return nil, err
	}
	if todo.UserID != userID && role != model.RoleAdmin {
		return nil, ErrNotOwner
	}
	return todo, nil
}

func (s *TodoService) Create(ctx context.Context, userID uint, opts CreateTodoOptions) (*model.Todo, error) {
	todo := model.Todo{
		UserID:      userID,
		Title:       opts.Title,
		Description: opts.Description,
		DueDate:     opts.DueDate,
	}
	if err := s.todoRepo.Create(ctx, &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

func (s *TodoService) Get(ctx context.Context, todoID uint, userID uint, role string) (*model.Todo, error) {
	return s.authorize(ctx, todoID, userID, role)
}

func (s *TodoService) List(ctx context.Context, userID uint, role string) ([]*model.Todo, error) {
	if role == model.RoleAdmin {
		return s.todoRepo.FindAll(ctx)
	}
	return s.todoRepo.FindByUser(ctx, userID)
}

func (s *TodoService) Update(ctx context.Context, todoID uint, userID uint, role string, opts UpdateTodoOptions) (*model.Todo, error) {
	if _, err := s.authorize(ctx, todoID, userID, role); err != nil {
		return nil, err
	}
	fields := map[string]interface{}{}
	if opts.Title != nil {
		fields["title"] = *opts.Title
	}
	if opts.Description != nil {
		fields["description"] = *opts.Description
	}
	if opts.Completed != nil {
		fields["completed"] = *opts.Completed
	}
	if opts.DueDate != nil {
		fields["due_date"] = *opts.DueDate
	}
	if len(fields) > 0 {
		if err := s.todoRepo.UpdateFields(ctx, todoID, fields); err != nil {
			return nil, err
		}
	}
	return s.todoRepo.FindByID(ctx, todoID)
}

func (s *TodoService) Delete(ctx context.Context, todoID uint, userID uint, role string) error {
	if _, err := s.authorize(ctx, todoID, userID, role); err != nil {
		return err
	}
	return s.todoRepo.Delete(ctx, todoID)
}

func NewTodoService(todoRepo TodoRepository) *TodoService {
	return &TodoService{
		todoRepo: todoRepo,
	}
}
