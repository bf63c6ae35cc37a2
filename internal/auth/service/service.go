package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"postgate/internal/auth/models"
	"postgate/internal/auth/store/revocation"
	jwttoken "postgate/internal/jwt_token"
	"postgate/internal/platform/metrics"
	dErrors "postgate/pkg/domain-errors"
	"postgate/pkg/platform/audit"
	"postgate/pkg/platform/sentinel"
	"postgate/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id int64) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
}

type TokenIssuer interface {
	GenerateAccessToken(userID int64, username, role string, expiresIn time.Duration) (jwttoken.AccessToken, error)
}

type RevocationList interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Service owns registration, password login and token revocation.
type Service struct {
	users      UserStore
	tokens     TokenIssuer
	revocation RevocationList
	logger     *slog.Logger
	metrics    *metrics.Metrics
	auditor    audit.Emitter
	tokenTTL   time.Duration
	bcryptCost int
	now        func() time.Time

	// dummyHash is compared against when the username is unknown so both
	// failure paths spend the same bcrypt time.
	dummyHash []byte
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditor(a audit.Emitter) Option {
	return func(s *Service) {
		if a != nil {
			s.auditor = a
		}
	}
}

func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.tokenTTL = ttl
		}
	}
}

func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			s.bcryptCost = cost
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func New(users UserStore, tokens TokenIssuer, revocationList RevocationList, opts ...Option) *Service {
	s := &Service{
		users:      users,
		tokens:     tokens,
		revocation: revocationList,
		logger:     slog.Default(),
		auditor:    audit.Nop{},
		tokenTTL:   30 * time.Minute,
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("postgate-timing-equalizer"), s.bcryptCost)
	return s
}

// Register creates an account. Duplicate usernames or emails are conflicts.
func (s *Service) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	user := &models.User{
		Username:       req.Username,
		Email:          req.Email,
		HashedPassword: string(hashed),
		Role:           req.Role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "Username or email already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}

	s.metrics.IncrementUsersRegistered()
	s.logger.InfoContext(ctx, "user registered",
		"user_id", user.ID,
		"role", string(user.Role),
		"request_id", requestcontext.RequestID(ctx),
	)
	s.emit(ctx, audit.Event{UserID: user.ID, Subject: user.Username, Action: string(audit.EventUserRegistered)})
	return user, nil
}

// Login checks the password and issues a bearer token.
func (s *Service) Login(ctx context.Context, req *models.LoginRequest) (*models.TokenResponse, error) {
	user, err := s.users.FindByUsername(ctx, req.Username)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}

	hash := s.dummyHash
	if user != nil {
		hash = []byte(user.HashedPassword)
	}
	if bcrypt.CompareHashAndPassword(hash, []byte(req.Password)) != nil || user == nil {
		s.metrics.IncrementLoginFailures()
		s.logger.WarnContext(ctx, "login failed",
			"username", req.Username,
			"request_id", requestcontext.RequestID(ctx),
		)
		s.emit(ctx, audit.Event{Subject: req.Username, Action: string(audit.EventAuthFailed), Reason: "bad_credentials"})
		return nil, dErrors.New(dErrors.CodeUnauthorized, "Incorrect username or password")
	}

	token, err := s.tokens.GenerateAccessToken(user.ID, user.Username, string(user.Role), s.tokenTTL)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}

	s.logger.InfoContext(ctx, "login succeeded",
		"user_id", user.ID,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.emit(ctx, audit.Event{UserID: user.ID, Subject: user.Username, Action: string(audit.EventLoginSucceeded)})
	return &models.TokenResponse{
		AccessToken: token.Token,
		TokenType:   "bearer",
		ExpiresIn:   int(s.tokenTTL.Seconds()),
	}, nil
}

// Logout revokes the presented token for the rest of its lifetime.
func (s *Service) Logout(ctx context.Context, userID int64, jti string, expiresAt time.Time) error {
	if jti == "" {
		return dErrors.New(dErrors.CodeUnauthorized, "token has no id")
	}
	ttl := revocation.TTLUntil(expiresAt, s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.revocation.RevokeToken(ctx, jti, ttl); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke token")
	}

	s.metrics.IncrementTokensRevoked()
	s.logger.InfoContext(ctx, "token revoked",
		"user_id", userID,
		"jti", jti,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.emit(ctx, audit.Event{UserID: userID, Subject: requestcontext.Username(ctx), Action: string(audit.EventTokenRevoked)})
	return nil
}

// ResolveSubject loads the current account behind a token subject.
func (s *Service) ResolveSubject(ctx context.Context, username string) (jwttoken.Subject, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return jwttoken.Subject{}, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return jwttoken.Subject{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	return jwttoken.Subject{UserID: user.ID, Username: user.Username, Role: string(user.Role)}, nil
}

// IsTokenRevoked implements the auth middleware's revocation check.
func (s *Service) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	return s.revocation.IsRevoked(ctx, jti)
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	event.Timestamp = requestcontext.Now(ctx)
	event.RequestID = requestcontext.RequestID(ctx)
	event.ClientIP = requestcontext.ClientIP(ctx)
	event.UserAgent = requestcontext.UserAgent(ctx)
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"action", event.Action,
			"error", err,
			"request_id", event.RequestID,
		)
	}
}
