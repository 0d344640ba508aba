package auth

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/khanghh/taskvault/internal/audit"
	"github.com/khanghh/taskvault/internal/mail"
	"github.com/khanghh/taskvault/internal/render"
	"github.com/khanghh/taskvault/internal/store"
	"github.com/khanghh/taskvault/internal/users"
	"github.com/khanghh/taskvault/model"
	"gorm.io/datatypes"
)

func TestMain(m *testing.M) {
	if err := render.Initialize(map[string]interface{}{"siteName": "taskvault"}, ""); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID uint
	users  map[uint]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		nextID: 1,
		users:  make(map[uint]*model.User),
	}
}

func copyUser(user *model.User) *model.User {
	clone := *user
	clone.MFABackupCodes = append(datatypes.JSONSlice[string]{}, user.MFABackupCodes...)
	return &clone
}

func (r *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return users.ErrEmailRegistered
		}
	}
	if user.ID == 0 {
		user.ID = r.nextID
		r.nextID++
	}
	r.users[user.ID] = copyUser(user)
	return nil
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			return copyUser(user), nil
		}
	}
	return nil, users.ErrUserNotFound
}

func (r *fakeUserRepo) FindByID(ctx context.Context, userID uint) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return nil, users.ErrUserNotFound
	}
	return copyUser(user), nil
}

func (r *fakeUserRepo) UpdateFields(ctx context.Context, userID uint, fields map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return users.ErrUserNotFound
	}
	for column, value := range fields {
		switch column {
		case "name":
			user.Name = value.(string)
		case "role":
			user.Role = value.(string)
		case "email_verified":
			user.EmailVerified = value.(bool)
		case "otp_code":
			user.OTPCode = value.(string)
		case "otp_expires_at":
			user.OTPExpiresAt = toTimePtr(value)
		case "reset_otp_code":
			user.ResetOTPCode = value.(string)
		case "reset_otp_expires_at":
			user.ResetOTPExpiresAt = toTimePtr(value)
		case "password_hash":
			user.PasswordHash = value.(string)
		case "mfa_enabled":
			user.MFAEnabled = value.(bool)
		case "mfa_secret":
			user.MFASecret = value.(string)
		case "mfa_backup_codes":
			user.MFABackupCodes = value.(datatypes.JSONSlice[string])
		}
	}
	return nil
}

func toTimePtr(value interface{}) *time.Time {
	if value == nil {
		return nil
	}
	t := value.(time.Time)
	return &t
}

func (r *fakeUserRepo) List(ctx context.Context, offset int, limit int) ([]*model.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var items []*model.User
	for _, user := range r.users {
		items = append(items, copyUser(user))
	}
	return items, int64(len(r.users)), nil
}

func (r *fakeUserRepo) Search(ctx context.Context, query string, offset int, limit int) ([]*model.User, int64, error) {
	return r.List(ctx, offset, limit)
}

func (r *fakeUserRepo) Delete(ctx context.Context, userID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[userID]; !ok {
		return users.ErrUserNotFound
	}
	delete(r.users, userID)
	return nil
}

// get returns the stored record without copy, for assertions only.
func (r *fakeUserRepo) get(userID uint) *model.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users[userID]
}

type fakeAuditRepo struct {
	mu      sync.Mutex
	failErr error
	entries []*model.AuditLog
}

func (r *fakeAuditRepo) RecordEvent(ctx context.Context, event *model.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return r.failErr
	}
	r.entries = append(r.entries, event)
	return nil
}

func (r *fakeAuditRepo) events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kinds []string
	for _, entry := range r.entries {
		kinds = append(kinds, entry.Event)
	}
	return kinds
}

func (r *fakeAuditRepo) lastDetails(event string) map[string]interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.entries) - 1; i >= 0; i-- {
		if r.entries[i].Event == event {
			return r.entries[i].Details
		}
	}
	return nil
}

type fakeMailSender struct {
	mu      sync.Mutex
	failErr error
	sent    []*mail.Message
}

func (s *fakeMailSender) Send(message *mail.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}
	s.sent = append(s.sent, message)
	return nil
}

type testEnv struct {
	userRepo  *fakeUserRepo
	auditRepo *fakeAuditRepo
	sender    *fakeMailSender
	tokens    *TokenService
	blacklist *TokenBlacklist
	svc       *AuthService
}

func newTestEnv() *testEnv {
	userRepo := newFakeUserRepo()
	auditRepo := &fakeAuditRepo{}
	sender := &fakeMailSender{}
	tokens := NewTokenService("test-master-key")
	blacklist := NewTokenBlacklist(store.NewMemoryStorage())
	svc := NewAuthService(userRepo, tokens, blacklist, audit.NewLogger(auditRepo), sender, "taskvault")
	return &testEnv{
		userRepo:  userRepo,
		auditRepo: auditRepo,
		sender:    sender,
		tokens:    tokens,
		blacklist: blacklist,
		svc:       svc,
	}
}
