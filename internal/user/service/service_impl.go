package service

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/mail"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/messismo/bar/internal/actorctx"
	auditdomain "github.com/messismo/bar/internal/audit/domain"
	"github.com/messismo/bar/internal/clock"
	pointsdomain "github.com/messismo/bar/internal/points/domain"
	"github.com/messismo/bar/internal/user/domain"
	"github.com/messismo/bar/internal/user/password"
	"github.com/messismo/bar/internal/user/token"
	"github.com/messismo/bar/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	minPasswordLength = 8

	clientIDMinDigits   = 4
	clientIDMaxDigits   = 10
	clientIDAttemptsPer = 100
)

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Clock  clock.Clock
	Repo   domain.Repository
	Tokens *token.Manager
	Points pointsdomain.Service
	Audit  auditdomain.Service `optional:"true"`
}

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	genID  *snowflake.Node
	clock  clock.Clock
	repo   domain.Repository
	tokens *token.Manager
	points pointsdomain.Service
	audit  auditdomain.Service

	// randN returns a value in [0, n).
	randN func(n int64) int64
}

func New(p Params) domain.Service {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("user.service"),
		genID:  p.GenID,
		clock:  p.Clock,
		repo:   p.Repo,
		tokens: p.Tokens,
		points: p.Points,
		audit:  p.Audit,
		randN:  rand.Int64N,
	}
}

func (s *Service) Register(ctx context.Context, req domain.RegisterRequest) (*domain.UserResponse, error) {
	role := domain.RoleClient
	if req.Employee {
		role = domain.RoleEmployee
	}
	user, err := s.create(ctx, req, role)
	if err != nil {
		return nil, err
	}
	resp := toResponse(user)
	return &resp, nil
}

// EnsureAdmin creates the bootstrap administrator unless the email is taken.
func (s *Service) EnsureAdmin(ctx context.Context, req domain.RegisterRequest) error {
	_, err := s.create(ctx, req, domain.RoleAdmin)
	if errors.Is(err, domain.ErrUserExists) {
		return nil
	}
	if err == nil {
		s.log.Info("bootstrap admin created", zap.String("email", strings.ToLower(strings.TrimSpace(req.Email))))
	}
	return err
}

func (s *Service) create(ctx context.Context, req domain.RegisterRequest, role domain.Role) (*domain.User, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, domain.ErrInvalidEmail
	}
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, domain.ErrInvalidUsername
	}
	if len(req.Password) < minPasswordLength {
		return nil, domain.ErrInvalidPassword
	}

	existing, err := s.repo.FindByEmail(ctx, s.db, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrUserExists
	}

	hashed, err := password.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	user := &domain.User{
		ID:           s.genID.Generate(),
		Username:     username,
		Email:        email,
		PasswordHash: hashed,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if role == domain.RoleClient {
		clientID, err := s.generateClientID(ctx)
		if err != nil {
			return nil, err
		}
		user.ClientID = &clientID
	}

	if err := s.repo.Create(ctx, s.db, user); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrUserExists
		}
		return nil, err
	}
	return user, nil
}

// generateClientID picks a random unused numeric id. It starts with four
// digits and widens after clientIDAttemptsPer collisions at a width.
func (s *Service) generateClientID(ctx context.Context) (string, error) {
	for digits := clientIDMinDigits; digits <= clientIDMaxDigits; digits++ {
		low := pow10(digits - 1)
		span := pow10(digits) - low
		for attempt := 0; attempt < clientIDAttemptsPer; attempt++ {
			candidate := strconv.FormatInt(low+s.randN(span), 10)
			exists, err := s.repo.ClientIDExists(ctx, s.db, candidate)
			if err != nil {
				return "", err
			}
			if !exists {
				return candidate, nil
			}
		}
	}
	return "", domain.ErrClientIDExhausted
}

func (s *Service) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResult, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil || req.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByEmail(ctx, s.db, email)
	if err != nil {
		return nil, err
	}
	if user == nil || !password.Verify(req.Password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	raw, expiresAt, err := s.tokens.Issue(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, err
	}
	return &domain.LoginResult{
		Token:     raw,
		ExpiresAt: expiresAt,
		User:      toResponse(user),
	}, nil
}

// Authenticate resolves a bearer token to its actor. The role is re-read
// from storage so role changes apply before the token expires.
func (s *Service) Authenticate(ctx context.Context, rawToken string) (*actorctx.Actor, error) {
	claims, err := s.tokens.Parse(strings.TrimSpace(rawToken))
	if err != nil {
		return nil, domain.ErrInvalidToken
	}
	id, err := claims.UserID()
	if err != nil {
		return nil, domain.ErrInvalidToken
	}
	user, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrInvalidToken
	}
	return &actorctx.Actor{UserID: user.ID, Email: user.Email, Role: string(user.Role)}, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.UserResponse, error) {
	userID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || userID == 0 {
		return nil, domain.ErrInvalidID
	}
	user, err := s.repo.FindByID(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	resp := toResponse(user)
	return &resp, nil
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, domain.ErrInvalidEmail
	}
	user, err := s.repo.FindByEmail(ctx, s.db, normalized)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

func (s *Service) GetByClientID(ctx context.Context, clientID string) (*domain.User, error) {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return nil, domain.ErrClientNotFound
	}
	user, err := s.repo.FindByClientID(ctx, s.db, clientID)
	if err != nil {
		return nil, err
	}
	if user == nil || user.Role != domain.RoleClient {
		return nil, domain.ErrClientNotFound
	}
	return user, nil
}

func (s *Service) ListClients(ctx context.Context) ([]domain.ClientResponse, error) {
	users, err := s.repo.ListByRole(ctx, s.db, domain.RoleClient)
	if err != nil {
		return nil, err
	}
	resp := make([]domain.ClientResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, domain.ClientResponse{
			Username: u.Username,
			Email:    u.Email,
			ClientID: deref(u.ClientID),
		})
	}
	return resp, nil
}

func (s *Service) ClientProfile(ctx context.Context, email string) (*domain.ClientProfile, error) {
	user, err := s.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrClientNotFound
		}
		return nil, err
	}
	if user.Role != domain.RoleClient || user.ClientID == nil {
		return nil, domain.ErrClientNotFound
	}

	balance, err := s.points.GetBalance(ctx, *user.ClientID)
	if err != nil {
		return nil, err
	}
	return &domain.ClientProfile{
		Username:      user.Username,
		Email:         user.Email,
		ClientID:      *user.ClientID,
		CurrentPoints: balance.InexactFloat64(),
	}, nil
}

// UpdateRole moves a staff member between staff roles. Only an ADMIN may
// grant or revoke ADMIN, and client accounts keep their role.
func (s *Service) UpdateRole(ctx context.Context, id string, role string) (*domain.UserResponse, error) {
	actor, ok := actorctx.ActorFromContext(ctx)
	if !ok {
		return nil, domain.ErrForbiddenRole
	}
	target, ok := domain.ParseRole(role)
	if !ok || !target.IsStaff() {
		return nil, domain.ErrInvalidRole
	}
	userID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || userID == 0 {
		return nil, domain.ErrInvalidID
	}

	user, err := s.repo.FindByID(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	if user.Role == domain.RoleClient {
		return nil, domain.ErrInvalidRole
	}
	if (target == domain.RoleAdmin || user.Role == domain.RoleAdmin) && actor.Role != string(domain.RoleAdmin) {
		return nil, domain.ErrForbiddenRole
	}
	if user.Role == target {
		resp := toResponse(user)
		return &resp, nil
	}

	now := s.clock.Now().UTC()
	if err := s.repo.UpdateRole(ctx, s.db, user.ID, target, now); err != nil {
		return nil, err
	}
	previous := user.Role
	user.Role = target
	user.UpdatedAt = now

	if s.audit != nil {
		_ = s.audit.AuditLog(ctx, auditdomain.ActionUserRoleChange, "user", user.ID.String(), map[string]any{
			"target_email": user.Email,
			"from":         string(previous),
			"to":           string(target),
		})
	}

	resp := toResponse(user)
	return &resp, nil
}

func normalizeEmail(value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	addr, err := mail.ParseAddress(trimmed)
	if err != nil || addr.Address != trimmed {
		return "", domain.ErrInvalidEmail
	}
	return strings.ToLower(addr.Address), nil
}

func toResponse(u *domain.User) domain.UserResponse {
	return domain.UserResponse{
		ID:        u.ID.String(),
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		ClientID:  u.ClientID,
		CreatedAt: u.CreatedAt,
	}
}

func pow10(n int) int64 {
	v := int64(1)
	for i := 0; i < n; i++ {
		v *= 10
	}
	return v
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
