//go:build integration

package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	authmodels "postgate/internal/auth/models"
	userstore "postgate/internal/auth/store/user"
	platformpg "postgate/internal/platform/postgres"
	"postgate/internal/posts/models"
	"postgate/internal/posts/store"
	"postgate/pkg/platform/sentinel"
	"postgate/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	pg      *containers.PostgresContainer
	users   *userstore.PostgresStore
	store   *store.PostgresStore
	authors []int64
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.Require().NoError(platformpg.Migrate(context.Background(), s.pg.DB))
	s.users = userstore.NewPostgres(s.pg.DB)
	s.store = store.NewPostgres(s.pg.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.pg.Truncate(ctx, "posts", "users"))
	s.authors = nil
	for _, name := range []string{"alice", "bob", "carol"} {
		u := &authmodels.User{Username: name, Email: name + "@example.com", HashedPassword: "h", Role: authmodels.RoleAuthor}
		s.Require().NoError(s.users.Create(ctx, u))
		s.authors = append(s.authors, u.ID)
	}
}

func (s *PostgresStoreSuite) create(authorID int64) *models.Post {
	p := &models.Post{Title: "title", Content: "content", AuthorID: authorID}
	s.Require().NoError(s.store.Create(context.Background(), p))
	return p
}

func (s *PostgresStoreSuite) TestCreateFindUpdateDelete() {
	ctx := context.Background()
	p := s.create(s.authors[0])
	s.NotZero(p.ID)

	found, err := s.store.FindByID(ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(s.authors[0], found.AuthorID)

	found.Title = "edited"
	s.Require().NoError(s.store.Update(ctx, found))
	s.Equal("edited", found.Title)
	s.False(found.UpdatedAt.Before(found.CreatedAt))

	s.Require().NoError(s.store.Delete(ctx, p.ID))
	_, err = s.store.FindByID(ctx, p.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.ErrorIs(s.store.Delete(ctx, p.ID), sentinel.ErrNotFound)
	s.ErrorIs(s.store.Update(ctx, &models.Post{ID: p.ID, Title: "x", Content: "y"}), sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestListByAuthors() {
	ctx := context.Background()
	a := s.create(s.authors[0])
	s.create(s.authors[1])
	c := s.create(s.authors[2])

	all, err := s.store.List(ctx, models.ListFilter{})
	s.Require().NoError(err)
	s.Len(all, 3)

	filtered, err := s.store.List(ctx, models.ListFilter{AuthorIDs: []int64{s.authors[0], s.authors[2]}})
	s.Require().NoError(err)
	s.Require().Len(filtered, 2)
	s.Equal(a.ID, filtered[0].ID)
	s.Equal(c.ID, filtered[1].ID)
}
