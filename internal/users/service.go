package users

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"

	"github.com/goliatone/go-blog/internal/auth"
	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/internal/permissions"
	fieldvalidation "github.com/goliatone/go-blog/internal/validation"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

// DefaultResetTokenTTL is how long a password reset link stays valid.
const DefaultResetTokenTTL = 15 * time.Minute

// Service manages accounts and password resets.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*User, error)
	Create(ctx context.Context, actor auth.Principal, req CreateRequest) (*User, error)
	EnsureAdmin(ctx context.Context, req CreateRequest) (*User, bool, error)
	UpdateSettings(ctx context.Context, actor auth.Principal, req SettingsRequest) (*User, error)
	Patch(ctx context.Context, actor auth.Principal, id uuid.UUID, req PatchRequest) (*User, error)
	Get(ctx context.Context, actor auth.Principal, id uuid.UUID) (*User, error)
	List(ctx context.Context, actor auth.Principal) ([]*User, error)
	Delete(ctx context.Context, actor auth.Principal, id uuid.UUID) error

	RequestPasswordReset(ctx context.Context, email string) (*ResetRequest, error)
	ValidateResetToken(ctx context.Context, query string) (*ResetToken, error)
	ResetPassword(ctx context.Context, query, password string) (*User, error)
	PurgeExpiredTokens(ctx context.Context) (int, error)
}

// RegisterRequest is the public sign up form.
type RegisterRequest struct {
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, usernameRules...),
		validation.Field(&r.FullName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, is.EmailFormat),
		validation.Field(&r.Password, validation.Required),
	)
}

// CreateRequest is the admin account creation payload.
type CreateRequest struct {
	Username       string  `json:"username"`
	FullName       string  `json:"full_name"`
	Email          string  `json:"email"`
	Password       string  `json:"password"`
	Timezone       string  `json:"timezone"`
	AvatarLocation *string `json:"avatar_location,omitempty"`
}

func (r CreateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, usernameRules...),
		validation.Field(&r.FullName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, is.EmailFormat),
		validation.Field(&r.Password, validation.Required),
		validation.Field(&r.Timezone, validation.By(validTimezone)),
	)
}

// SettingsRequest replaces the editable profile of the signed in user. An
// empty Password keeps the current one; a nil AvatarLocation clears it.
type SettingsRequest struct {
	Username       string  `json:"username"`
	FullName       string  `json:"full_name"`
	Email          string  `json:"email"`
	Timezone       string  `json:"timezone"`
	Password       string  `json:"password"`
	AvatarLocation *string `json:"avatar_location,omitempty"`
}

func (r SettingsRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, usernameRules...),
		validation.Field(&r.FullName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, is.EmailFormat),
		validation.Field(&r.Timezone, validation.By(validTimezone)),
	)
}

// PatchRequest updates only the fields that are set.
type PatchRequest struct {
	Username       *string `json:"username,omitempty"`
	FullName       *string `json:"full_name,omitempty"`
	Email          *string `json:"email,omitempty"`
	Timezone       *string `json:"timezone,omitempty"`
	IsActive       *bool   `json:"is_active,omitempty"`
	AvatarLocation *string `json:"avatar_location,omitempty"`
	Password       *string `json:"password,omitempty"`
	Role           *string `json:"role,omitempty"`
}

func (r PatchRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.NilOrNotEmpty, validation.Length(1, 64)),
		validation.Field(&r.FullName, validation.NilOrNotEmpty),
		validation.Field(&r.Email, validation.NilOrNotEmpty, is.EmailFormat),
		validation.Field(&r.Timezone, validation.By(validTimezone)),
		validation.Field(&r.Password, validation.NilOrNotEmpty),
		validation.Field(&r.Role, validation.By(validRole)),
	)
}

var usernameRules = []validation.Rule{
	validation.Required,
	validation.Length(1, 64),
	validation.By(func(value any) error {
		if strings.ContainsAny(value.(string), "@ \t\n") {
			return errors.New("must not contain spaces or @")
		}
		return nil
	}),
}

func validTimezone(value any) error {
	var name string
	switch v := value.(type) {
	case string:
		name = v
	case *string:
		if v == nil {
			return nil
		}
		name = *v
	}
	if name == "" {
		return nil
	}
	if _, err := time.LoadLocation(name); err != nil {
		return errors.New("must be a valid timezone")
	}
	return nil
}

func validRole(value any) error {
	role, _ := value.(*string)
	if role == nil {
		return nil
	}
	if _, err := permissions.ParseRole(*role); err != nil {
		return errors.New("must be a known role")
	}
	return nil
}

// ServiceOption configures the users service.
type ServiceOption func(*service)

// WithClock overrides the internal time source.
func WithClock(clock func() time.Time) ServiceOption {
	return func(s *service) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *service) {
		s.logger = logging.Ensure(logger)
	}
}

// WithResetTokenTTL sets the lifetime of reset links.
func WithResetTokenTTL(ttl time.Duration) ServiceOption {
	return func(s *service) {
		if ttl > 0 {
			s.resetTTL = ttl
		}
	}
}

// WithResetURL sets how the link sent to the user is built from a query.
func WithResetURL(build func(query string) string) ServiceOption {
	return func(s *service) {
		if build != nil {
			s.resetURL = build
		}
	}
}

type service struct {
	users  UserRepository
	tokens ResetTokenRepository
	secret []byte

	now      func() time.Time
	logger   interfaces.Logger
	resetTTL time.Duration
	resetURL func(string) string
}

// NewService constructs the users service. secret keys the hash under which
// reset queries are stored.
func NewService(users UserRepository, tokens ResetTokenRepository, secret string, opts ...ServiceOption) (Service, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrTokenSecret
	}
	s := &service{
		users:    users,
		tokens:   tokens,
		secret:   []byte(secret),
		now:      func() time.Time { return time.Now().UTC() },
		logger:   logging.NoOp(),
		resetTTL: DefaultResetTokenTTL,
		resetURL: func(query string) string { return "/reset-password/" + query },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if err := req.Validate(); err != nil {
		return nil, fieldvalidation.FromOzzo(err)
	}
	if fields := s.conflictFields(ctx, uuid.Nil, req.Username, req.Email); !fields.Empty() {
		return nil, fields
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	now := s.now()
	created, err := s.users.Create(ctx, &User{
		ID:           uuid.New(),
		Username:     req.Username,
		FullName:     strings.TrimSpace(req.FullName),
		Email:        req.Email,
		Timezone:     DefaultTimezone,
		IsActive:     true,
		PasswordHash: hash,
		Role:         permissions.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, fieldErrorFor(err)
	}
	s.logger.Info("users.registered", "user_id", created.ID, "username", created.Username)
	return created, nil
}

func (s *service) Create(ctx context.Context, actor auth.Principal, req CreateRequest) (*User, error) {
	if !actor.IsAdmin() {
		return nil, permissions.Denied(MsgPermissionDenied)
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if err := req.Validate(); err != nil {
		return nil, fieldvalidation.FromOzzo(err)
	}
	created, err := s.create(ctx, req, permissions.RoleUser)
	if err != nil {
		return nil, err
	}
	s.logger.Info("users.created", "user_id", created.ID, "by", actor.UserID)
	return created, nil
}

// EnsureAdmin creates an admin account unless one with the same username
// already exists. The boolean reports whether an account was created.
func (s *service) EnsureAdmin(ctx context.Context, req CreateRequest) (*User, bool, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if existing, err := s.users.GetByUsername(ctx, req.Username); err == nil {
		return existing, false, nil
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, false, err
	}
	if err := req.Validate(); err != nil {
		return nil, false, fieldvalidation.FromOzzo(err)
	}
	created, err := s.create(ctx, req, permissions.RoleAdmin)
	if err != nil {
		return nil, false, err
	}
	s.logger.Info("users.admin_bootstrapped", "user_id", created.ID, "username", created.Username)
	return created, true, nil
}

func (s *service) create(ctx context.Context, req CreateRequest, role permissions.Role) (*User, error) {
	if err := s.conflict(ctx, uuid.Nil, req.Username, req.Email); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	timezone := req.Timezone
	if timezone == "" {
		timezone = DefaultTimezone
	}
	now := s.now()
	created, err := s.users.Create(ctx, &User{
		ID:             uuid.New(),
		Username:       req.Username,
		FullName:       strings.TrimSpace(req.FullName),
		Email:          req.Email,
		Timezone:       timezone,
		IsActive:       true,
		AvatarLocation: req.AvatarLocation,
		PasswordHash:   hash,
		Role:           role,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		return nil, alreadyExists(err, req.Username, req.Email)
	}
	return created, nil
}

func (s *service) UpdateSettings(ctx context.Context, actor auth.Principal, req SettingsRequest) (*User, error) {
	if !actor.IsAuthenticated() {
		return nil, auth.ErrNotValidated
	}
	user, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if err := req.Validate(); err != nil {
		return nil, fieldvalidation.FromOzzo(err)
	}
	if fields := s.conflictFields(ctx, user.ID, req.Username, req.Email); !fields.Empty() {
		return nil, fields
	}
	if req.Password != "" {
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}
	user.Username = req.Username
	user.Email = req.Email
	user.FullName = strings.TrimSpace(req.FullName)
	user.Timezone = req.Timezone
	if user.Timezone == "" {
		user.Timezone = DefaultTimezone
	}
	user.AvatarLocation = nil
	if req.AvatarLocation != nil && *req.AvatarLocation != "" {
		location := *req.AvatarLocation
		user.AvatarLocation = &location
	}
	user.UpdatedAt = s.now()

	updated, err := s.users.Update(ctx, user)
	if err != nil {
		return nil, fieldErrorFor(err)
	}
	return updated, nil
}

func (s *service) Patch(ctx context.Context, actor auth.Principal, id uuid.UUID, req PatchRequest) (*User, error) {
	user, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if req.Role != nil && !actor.IsAdmin() {
		return nil, permissions.Denied(MsgRoleForbidden)
	}
	if err := req.Validate(); err != nil {
		return nil, fieldvalidation.FromOzzo(err)
	}

	username, email := user.Username, user.Email
	if req.Username != nil {
		username = strings.TrimSpace(*req.Username)
	}
	if req.Email != nil {
		email = strings.TrimSpace(*req.Email)
	}
	if err := s.conflict(ctx, user.ID, username, email); err != nil {
		return nil, err
	}
	user.Username, user.Email = username, email

	if req.FullName != nil {
		user.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Timezone != nil {
		user.Timezone = *req.Timezone
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	if req.AvatarLocation != nil {
		location := *req.AvatarLocation
		user.AvatarLocation = &location
	}
	if req.Password != nil {
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}
	if req.Role != nil {
		role, _ := permissions.ParseRole(*req.Role)
		user.Role = role
	}
	user.UpdatedAt = s.now()

	updated, err := s.users.Update(ctx, user)
	if err != nil {
		return nil, alreadyExists(err, username, email)
	}
	return updated, nil
}

// Get returns the account with id. Non-admins can only see themselves;
// anything else reports not found.
func (s *service) Get(ctx context.Context, actor auth.Principal, id uuid.UUID) (*User, error) {
	if !actor.IsAdmin() && (!actor.IsAuthenticated() || actor.UserID != id) {
		return nil, &NotFoundError{Resource: "user", Key: id.String()}
	}
	return s.users.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, actor auth.Principal) ([]*User, error) {
	if actor.IsAdmin() {
		return s.users.List(ctx)
	}
	if !actor.IsAuthenticated() {
		return []*User{}, nil
	}
	user, err := s.users.GetByID(ctx, actor.UserID)
	if errors.Is(err, ErrUserNotFound) {
		return []*User{}, nil
	}
	if err != nil {
		return nil, err
	}
	return []*User{user}, nil
}

func (s *service) Delete(ctx context.Context, actor auth.Principal, id uuid.UUID) error {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return err
	}
	if _, err := s.tokens.DeleteByUser(ctx, id); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("users.deleted", "user_id", id, "by", actor.UserID)
	return nil
}

func (s *service) conflictFields(ctx context.Context, self uuid.UUID, username, email string) fieldvalidation.FieldErrors {
	fields := fieldvalidation.FieldErrors{}
	if existing, err := s.users.GetByEmail(ctx, email); err == nil && existing.ID != self {
		fields.Add("email", MsgEmailTaken)
	}
	if existing, err := s.users.GetByUsername(ctx, username); err == nil && existing.ID != self {
		fields.Add("username", MsgUsernameTaken)
	}
	return fields
}

func (s *service) conflict(ctx context.Context, self uuid.UUID, username, email string) error {
	if existing, err := s.users.GetByUsername(ctx, username); err == nil && existing.ID != self {
		return &AlreadyExistsError{Field: "username", Value: username}
	}
	if existing, err := s.users.GetByEmail(ctx, email); err == nil && existing.ID != self {
		return &AlreadyExistsError{Field: "email", Value: email}
	}
	return nil
}

// fieldErrorFor maps a unique violation that slipped past the pre-checks.
func fieldErrorFor(err error) error {
	var constraint *ConstraintError
	if !errors.As(err, &constraint) {
		return err
	}
	fields := fieldvalidation.FieldErrors{}
	switch constraint.Field {
	case "email":
		fields.Add("email", MsgEmailTaken)
	case "username":
		fields.Add("username", MsgUsernameTaken)
	default:
		return err
	}
	return fields
}

func alreadyExists(err error, username, email string) error {
	var constraint *ConstraintError
	if !errors.As(err, &constraint) {
		return err
	}
	switch constraint.Field {
	case "email":
		return &AlreadyExistsError{Field: "email", Value: email}
	case "username":
		return &AlreadyExistsError{Field: "username", Value: username}
	}
	return ErrUserExists
}

func (s *service) RequestPasswordReset(ctx context.Context, email string) (*ResetRequest, error) {
	email = strings.TrimSpace(email)
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		s.logger.Info("users.password_reset.unknown_email", "email", email)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	now := s.now()
	if _, err := s.tokens.DeleteByUser(ctx, user.ID); err != nil {
		return nil, err
	}
	if _, err := s.tokens.DeleteCreatedBefore(ctx, now.Add(-s.resetTTL)); err != nil {
		return nil, err
	}

	query := uuid.NewString()
	token, err := s.tokens.Create(ctx, &ResetToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		QueryHash: s.hashQuery(query),
		CreatedAt: now,
		ExpiresAt: now.Add(s.resetTTL),
	})
	if err != nil {
		return nil, err
	}
	req := &ResetRequest{
		UserID:    user.ID,
		Email:     user.Email,
		Query:     query,
		URL:       s.resetURL(query),
		ExpiresAt: token.ExpiresAt,
	}
	s.logger.Info("users.password_reset.request", "user_id", user.ID, "url", req.URL)
	return req, nil
}

func (s *service) ValidateResetToken(ctx context.Context, query string) (*ResetToken, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &NotFoundError{Resource: "reset_token"}
	}
	token, err := s.tokens.GetByQueryHash(ctx, s.hashQuery(query))
	if err != nil {
		return nil, err
	}
	if token.Expired(s.now()) {
		return nil, ErrResetTokenExpired
	}
	return token, nil
}

func (s *service) ResetPassword(ctx context.Context, query, password string) (*User, error) {
	if err := validation.Validate(password, validation.Required); err != nil {
		return nil, fieldvalidation.FieldErrors{"password": {err.Error()}}
	}
	token, err := s.ValidateResetToken(ctx, query)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, token.UserID)
	if err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = hash
	user.UpdatedAt = s.now()
	updated, err := s.users.Update(ctx, user)
	if err != nil {
		return nil, err
	}
	if err := s.tokens.Delete(ctx, token.ID); err != nil {
		return nil, err
	}
	s.logger.Info("users.password_reset.completed", "user_id", user.ID)
	return updated, nil
}

func (s *service) PurgeExpiredTokens(ctx context.Context) (int, error) {
	removed, err := s.tokens.DeleteCreatedBefore(ctx, s.now().Add(-s.resetTTL))
	if err != nil {
		return 0, err
	}
	s.logger.Debug("users.password_reset.purge", "removed", removed)
	return removed, nil
}

func (s *service) hashQuery(query string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(query))
	return hex.EncodeToString(mac.Sum(nil))
}

// accountLookup adapts a UserRepository to auth.AccountLookup.
type accountLookup struct {
	users UserRepository
}

// NewAccountLookup exposes users to the authenticator.
func NewAccountLookup(users UserRepository) auth.AccountLookup {
	return accountLookup{users: users}
}

func (a accountLookup) AccountByID(ctx context.Context, id uuid.UUID) (auth.Account, error) {
	user, err := a.users.GetByID(ctx, id)
	if err != nil {
		return auth.Account{}, err
	}
	return user.Account(), nil
}

func (a accountLookup) AccountByEmail(ctx context.Context, email string) (auth.Account, error) {
	user, err := a.users.GetByEmail(ctx, email)
	if err != nil {
		return auth.Account{}, err
	}
	return user.Account(), nil
}

func (a accountLookup) AccountByUsername(ctx context.Context, username string) (auth.Account, error) {
	user, err := a.users.GetByUsername(ctx, username)
	if err != nil {
		return auth.Account{}, err
	}
	return user.Account(), nil
}
