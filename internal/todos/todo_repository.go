package todos

import (
	"context"
	"errors"

	"github.com/khanghh/taskvault/model"
	"gorm.io/gorm"
)

var (
	ErrTodoNotFound = errors.New("todo not found")
)

type TodoRepository interface {
	Create(ctx context.Context, todo *model.Todo) error
	FindByID(ctx context.Context, todoID uint) (*model.Todo, error)
	FindByUser(ctx context.Context, userID uint) ([]*model.Todo, error)
	FindAll(ctx context.Context) ([]*model.Todo, error)
	UpdateFields(ctx context.Context, todoID uint, fields map[string]interface{}) error
	Delete(ctx context.Context, todoID uint) error
}

type todoRepository struct {
	db *gorm.DB
}

func (r *todoRepository) Create(ctx context.Context, todo *model.Todo) error {
	return r.db.WithContext(ctx).Create(todo).Error
}

func (r *todoRepository) FindByID(ctx context.Context, todoID uint) (*model.Todo, error) {
	var todo model.Todo
	err := r.db.WithContext(ctx).First(&todo, todoID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTodoNotFound
	}
	if err != nil {
		return nil, err
	}
	return &todo, nil
}

func (r *todoRepository) FindByUser(ctx context.Context, userID uint) ([]*model.Todo, error) {
	var items []*model.Todo
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&items).Error
	return items, err
}

func (r *todoRepository) FindAll(ctx context.Context) ([]*model.Todo, error) {
	var items []*model.Todo
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&items).Error
	return items, err
}

func (r *todoRepository) UpdateFields(ctx context.Context, todoID uint, fields map[string]interface{}) error {
	ret := r.db.WithContext(ctx).Model(&model.Todo{}).Where("id = ?", todoID).Updates(fields)
	if ret.Error != nil {
		return ret.Error
	}
	if ret.RowsAffected == 0 {
		return ErrTodoNotFound
	}
	return nil
}

func (r *todoRepository) Delete(ctx context.Context, todoID uint) error {
	ret := r.db.WithContext(ctx).Delete(&model.Todo{}, todoID)
	if ret.Error != nil {
		return ret.Error
	}
	if ret.RowsAffected == 0 {
		return ErrTodoNotFound
	}
	return nil
}

func NewTodoRepository(db *gorm.DB) TodoRepository {
	return &todoRepository{db}
}
