// Package service implements post CRUD. Every operation passes the
// authorization gate before it reads or writes anything the caller asked for.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"postgate/internal/authz"
	"postgate/internal/platform/metrics"
	"postgate/internal/posts/models"
	dErrors "postgate/pkg/domain-errors"
	"postgate/pkg/platform/audit"
	"postgate/pkg/platform/sentinel"
	"postgate/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

type Store interface {
	Create(ctx context.Context, post *models.Post) error
	FindByID(ctx context.Context, id int64) (*models.Post, error)
	List(ctx context.Context, filter models.ListFilter) ([]*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id int64) error
}

// Authorizer returns a forbidden error unless the action is allowed.
type Authorizer interface {
	Require(ctx context.Context, identity authz.Identity, target authz.Target, action authz.Action) error
}

type Service struct {
	store   Store
	authz   Authorizer
	logger  *slog.Logger
	metrics *metrics.Metrics
	auditor audit.Emitter
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

func New(store Store, authorizer Authorizer, opts ...Option) *Service {
	s := &Service{
		store:   store,
		authz:   authorizer,
		logger:  slog.Default(),
		auditor: audit.Nop{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func fact(p *models.Post) *authz.Fact {
	return &authz.Fact{ID: p.ID, OwnerID: p.AuthorID}
}

// actorID is 0 for an identity without a numeric user ID.
func actorID(identity authz.Identity) int64 {
	id, _ := strconv.ParseInt(identity.ID, 10, 64)
	return id
}

func collection() authz.Target {
	return authz.Target{Kind: models.ResourceKind}
}

func (s *Service) Create(ctx context.Context, identity authz.Identity, req *models.CreatePostRequest) (*models.Post, error) {
	if err := s.authz.Require(ctx, identity, collection(), authz.ActionCreate); err != nil {
		return nil, err
	}
	authorID := actorID(identity)
	if authorID == 0 {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid user")
	}

	post := &models.Post{Title: req.Title, Content: req.Content, AuthorID: authorID}
	if err := s.store.Create(ctx, post); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create post")
	}

	s.completed(ctx, "create", audit.EventPostCreated, authorID, post.ID)
	return post, nil
}

// Get loads the post first so a missing post is a 404 without a PDP call.
func (s *Service) Get(ctx context.Context, identity authz.Identity, id int64) (*models.Post, error) {
	post, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Require(ctx, identity, authz.Target{Kind: models.ResourceKind, Fact: fact(post)}, authz.ActionRead); err != nil {
		return nil, err
	}
	s.metrics.IncrementPostOperation("read")
	return post, nil
}

// List is authorized once against the collection, not per post.
func (s *Service) List(ctx context.Context, identity authz.Identity, filter models.ListFilter) ([]*models.Post, error) {
	if err := s.authz.Require(ctx, identity, collection(), authz.ActionRead); err != nil {
		return nil, err
	}
	posts, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list posts")
	}
	s.metrics.IncrementPostOperation("list")
	return posts, nil
}

func (s *Service) Update(ctx context.Context, identity authz.Identity, id int64, req *models.UpdatePostRequest) (*models.Post, error) {
	post, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Require(ctx, identity, authz.Target{Kind: models.ResourceKind, Fact: fact(post)}, authz.ActionUpdate); err != nil {
		return nil, err
	}

	if !req.Apply(post) {
		return post, nil
	}
	if err := s.store.Update(ctx, post); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "Post not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update post")
	}

	s.completed(ctx, "update", audit.EventPostUpdated, actorID(identity), post.ID)
	return post, nil
}

func (s *Service) Delete(ctx context.Context, identity authz.Identity, id int64) error {
	post, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authz.Require(ctx, identity, authz.Target{Kind: models.ResourceKind, Fact: fact(post)}, authz.ActionDelete); err != nil {
		return err
	}

	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "Post not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete post")
	}

	s.completed(ctx, "delete", audit.EventPostDeleted, actorID(identity), id)
	return nil
}

func (s *Service) load(ctx context.Context, id int64) (*models.Post, error) {
	post, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "Post not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load post")
	}
	return post, nil
}

func (s *Service) completed(ctx context.Context, op string, event audit.AuditEvent, userID, postID int64) {
	s.metrics.IncrementPostOperation(op)
	requestID := requestcontext.RequestID(ctx)
	s.logger.InfoContext(ctx, "post "+op+"d",
		"post_id", postID,
		"user_id", userID,
		"request_id", requestID,
	)
	err := s.auditor.Emit(ctx, audit.Event{
		Timestamp: requestcontext.Now(ctx),
		UserID:    userID,
		Subject:   requestcontext.Username(ctx),
		Action:    string(event),
		Resource:  models.ResourceKind + ":" + strconv.FormatInt(postID, 10),
		RequestID: requestID,
		ClientIP:  requestcontext.ClientIP(ctx),
		UserAgent: requestcontext.UserAgent(ctx),
	})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"action", string(event),
			"error", err,
			"request_id", requestID,
		)
	}
}
