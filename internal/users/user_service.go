package users

import (
	"context"
	"net/mail"

	"github.com/khanghh/taskvault/model"
	"github.com/khanghh/taskvault/params"
)

type ListResult struct {
	Items []SafeUser `json:"items"`
	Total int64      `json:"total"`
	Page  int        `json:"page"`
	Limit int        `json:"limit"`
}

type UserService struct {
	userRepo UserRepository
}

func (s *UserService) GetByID(ctx context.Context, userID uint) (SafeUser, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return SafeUser{}, err
	}
	return ToSafeUser(user), nil
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (SafeUser, error) {
	email = NormalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return SafeUser{}, ErrUserNotFound
	}
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return SafeUser{}, err
	}
	return ToSafeUser(user), nil
}

func (s *UserService) List(ctx context.Context, page int, limit int) (*ListResult, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = params.PageLimit
	}
	if limit > params.PageLimitMax {
		limit = params.PageLimitMax
	}
	records, total, err := s.userRepo.List(ctx, (page-1)*limit, limit)
	if err != nil {
		return nil, err
	}
	items := make([]SafeUser, 0, len(records))
	for _, record := range records {
		items = append(items, ToSafeUser(record))
	}
	return &ListResult{Items: items, Total: total, Page: page, Limit: limit}, nil
}

// Search matches the query as a substring of email or name. An empty query
// degrades to a plain listing.
func (s *UserService) Search(ctx context.Context, query string, page int, limit int) (*ListResult, error) {
	if query == "" {
		return s.List(ctx, page, limit)
	}
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = params.PageLimit
	}
	if limit > params.PageLimitMax {
		limit = params.PageLimitMax
	}
	records, total, err := s.userRepo.Search(ctx, query, (page-1)*limit, limit)
	if err != nil {
		return nil, err
	}
	items := make([]SafeUser, 0, len(records))
	for _, record := range records {
		items = append(items, ToSafeUser(record))
	}
	return &ListResult{Items: items, Total: total, Page: page, Limit: limit}, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID uint, name string) (SafeUser, error) {
	if err := s.userRepo.UpdateFields(ctx, userID, map[string]interface{}{"name": name}); err != nil {
		return SafeUser{}, err
	}
	return s.GetByID(ctx, userID)
}

// UpdateRole sets the user's role to one of the known role constants.
func (s *UserService) UpdateRole(ctx context.Context, userID uint, role string) (SafeUser, error) {
	switch role {
	case model.RoleGuest, model.RoleOwner, model.RoleAdmin:
	default:
		return SafeUser{}, ErrInvalidRole
	}
	if err := s.userRepo.UpdateFields(ctx, userID, map[string]interface{}{"role": role}); err != nil {
		return SafeUser{}, err
	}
	return s.GetByID(ctx, userID)
}

func (s *UserService) Delete(ctx context.Context, userID uint) error {
	return s.userRepo.Delete(ctx, userID)
}

func NewUserService(userRepo UserRepository) *UserService {
	return &UserService{
		userRepo: userRepo,
	}
}
