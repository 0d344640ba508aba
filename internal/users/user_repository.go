package users

import (
	"context"
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/khanghh/taskvault/model"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, userID uint) (*model.User, error)
	// UpdateFields applies a partial update as a single UPDATE statement keyed
	// by user id. Concurrent writers cannot lose each other's columns.
	UpdateFields(ctx context.Context, userID uint, fields map[string]interface{}) error
	List(ctx context.Context, offset int, limit int) ([]*model.User, int64, error)
	Search(ctx context.Context, query string, offset int, limit int) ([]*model.User, int64, error)
	Delete(ctx context.Context, userID uint) error
}

type userRepository struct {
	db *gorm.DB
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	err := r.db.WithContext(ctx).Create(user).Error
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
		return ErrEmailRegistered
	}
	return err
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByID(ctx context.Context, userID uint) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) UpdateFields(ctx context.Context, userID uint, fields map[string]interface{}) error {
	ret := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).Updates(fields)
	if ret.Error != nil {
		return ret.Error
	}
	if ret.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *userRepository) List(ctx context.Context, offset int, limit int) ([]*model.User, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var users []*model.User
	err := r.db.WithContext(ctx).Order("created_at DESC").Offset(offset).Limit(limit).Find(&users).Error
	return users, total, err
}

func (r *userRepository) Search(ctx context.Context, query string, offset int, limit int) ([]*model.User, int64, error) {
	pattern := "%" + query + "%"
	scope := r.db.WithContext(ctx).Model(&model.User{}).
		Where("email LIKE ? OR name LIKE ?", pattern, pattern)

	var total int64
	if err := scope.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var users []*model.User
	err := scope.Order("created_at DESC").Offset(offset).Limit(limit).Find(&users).Error
	return users, total, err
}

func (r *userRepository) Delete(ctx context.Context, userID uint) error {
	ret := r.db.WithContext(ctx).Delete(&model.User{}, userID)
	if ret.Error != nil {
		return ret.Error
	}
	if ret.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db}
}
