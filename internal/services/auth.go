package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/yungbote/officechat-backend/internal/data/repos"
	"github.com/yungbote/officechat-backend/internal/domain/user"
	"github.com/yungbote/officechat-backend/internal/platform/apierr"
	"github.com/yungbote/officechat-backend/internal/platform/ctxutil"
	"github.com/yungbote/officechat-backend/internal/platform/logger"
)

const DefaultAccessTokenTTL = 24 * time.Hour

type RegisterInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Name     string `json:"name" validate:"required,max=100"`
	Role     string `json:"role" validate:"omitempty,oneof=ADMIN MANAGER EMPLOYEE"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*user.User, string, error)
	Login(ctx context.Context, in LoginInput) (*user.User, string, error)
	// Authenticate verifies a session token and reloads the user from the active directory.
	Authenticate(ctx context.Context, token string) (ctxutil.Identity, error)
	Me(ctx context.Context, actor ctxutil.Identity) (*user.User, error)
}

type sessionClaims struct {
	Name string `json:"name"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type authService struct {
	log        *logger.Logger
	users      repos.UserRepo
	validate   *inputValidator
	secret     []byte
	accessTTL  time.Duration
	bcryptCost int
	now        func() time.Time
}

func NewAuthService(log *logger.Logger, users repos.UserRepo, jwtSecretKey string, accessTTL time.Duration) AuthService {
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTokenTTL
	}
	return &authService{
		log:        log.With("service", "AuthService"),
		users:      users,
		validate:   newInputValidator(),
		secret:     []byte(jwtSecretKey),
		accessTTL:  accessTTL,
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *authService) Register(ctx context.Context, in RegisterInput) (*user.User, string, error) {
	in.Email = normalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	in.Role = strings.ToUpper(strings.TrimSpace(in.Role))
	if err := s.validate.check(in); err != nil {
		return nil, "", err
	}
	if in.Role == "" {
		in.Role = user.RoleEmployee
	}

	exists, err := s.users.EmailExists(ctx, nil, in.Email)
	if err != nil {
		return nil, "", asAPIError(ctx, s.log, "check email", err)
	}
	if exists {
		return nil, "", apierr.Conflict("email is already registered")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, "", asAPIError(ctx, s.log, "hash password", err)
	}
	created, err := s.users.Create(ctx, nil, []*user.User{{
		Email:    in.Email,
		Password: string(hash),
		Name:     in.Name,
		Role:     in.Role,
		Active:   true,
	}})
	if err != nil {
		return nil, "", asAPIError(ctx, s.log, "create user", err)
	}
	u := created[0]
	token, err := s.issueToken(u)
	if err != nil {
		return nil, "", asAPIError(ctx, s.log, "issue token", err)
	}
	s.log.Info("user registered", "user_id", u.ID.String(), "role", u.Role)
	return u, token, nil
}

func (s *authService) Login(ctx context.Context, in LoginInput) (*user.User, string, error) {
	in.Email = normalizeEmail(in.Email)
	if err := s.validate.check(in); err != nil {
		return nil, "", err
	}
	u, err := s.users.GetByEmail(ctx, nil, in.Email)
	if err != nil {
		return nil, "", asAPIError(ctx, s.log, "load user", err)
	}
	if u == nil || !u.Active {
		return nil, "", apierr.Unauthorized("invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(in.Password)); err != nil {
		return nil, "", apierr.Unauthorized("invalid email or password")
	}
	token, err := s.issueToken(u)
	if err != nil {
		return nil, "", asAPIError(ctx, s.log, "issue token", err)
	}
	return u, token, nil
}

func (s *authService) issueToken(u *user.User) (string, error) {
	now := s.now()
	claims := sessionClaims{
		Name: u.Name,
		Role: u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
			ID:        uuid.NewString(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *authService) Authenticate(ctx context.Context, token string) (ctxutil.Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return ctxutil.Identity{}, apierr.Unauthorized("missing session token")
	}
	claims := &sessionClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ctxutil.Identity{}, apierr.Unauthorized("session expired")
		}
		return ctxutil.Identity{}, apierr.Unauthorized("invalid session token")
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctxutil.Identity{}, apierr.Unauthorized("invalid session token")
	}
	u, err := s.users.GetActiveByID(ctx, nil, userID)
	if err != nil {
		return ctxutil.Identity{}, asAPIError(ctx, s.log, "load session user", err)
	}
	if u == nil {
		return ctxutil.Identity{}, apierr.Unauthorized("account is not active")
	}
	return ctxutil.Identity{
		UserID: u.ID,
		Name:   u.Name,
		Role:   u.Role,
		Avatar: u.AvatarURL,
	}, nil
}

func (s *authService) Me(ctx context.Context, actor ctxutil.Identity) (*user.User, error) {
	if actor.IsZero() {
		return nil, apierr.Unauthorized("not authenticated")
	}
	u, err := s.users.GetActiveByID(ctx, nil, actor.UserID)
	if err != nil {
		return nil, asAPIError(ctx, s.log, "load user", err)
	}
	if u == nil {
		return nil, apierr.Unauthorized("account is not active")
	}
	return u, nil
}
