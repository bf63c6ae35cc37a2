//go:build integration

package user_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"postgate/internal/auth/models"
	"postgate/internal/auth/store/user"
	platformpg "postgate/internal/platform/postgres"
	"postgate/pkg/platform/sentinel"
	"postgate/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *user.PostgresStore
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
	s.store = user.NewPostgres(s.pg.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.Truncate(context.Background(), "users"))
}

func (s *PostgresStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	u := &models.User{Username: "alice", Email: "alice@example.com", HashedPassword: "hash", Role: models.RoleAuthor}
	s.Require().NoError(s.store.Create(ctx, u))
	s.Equal(int64(1), u.ID)
	s.False(u.CreatedAt.IsZero())

	byName, err := s.store.FindByUsername(ctx, "alice")
	s.Require().NoError(err)
	s.Equal(u.ID, byName.ID)
	s.Equal(models.RoleAuthor, byName.Role)

	byID, err := s.store.FindByID(ctx, u.ID)
	s.Require().NoError(err)
	s.Equal("alice@example.com", byID.Email)
}

func (s *PostgresStoreSuite) TestConflicts() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, &models.User{Username: "bob", Email: "bob@example.com", HashedPassword: "h", Role: models.RoleReader}))

	err := s.store.Create(ctx, &models.User{Username: "bob", Email: "x@example.com", HashedPassword: "h", Role: models.RoleReader})
	s.ErrorIs(err, sentinel.ErrConflict)

	err = s.store.Create(ctx, &models.User{Username: "bobby", Email: "bob@example.com", HashedPassword: "h", Role: models.RoleReader})
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestNotFoundAndDelete() {
	ctx := context.Background()
	_, err := s.store.FindByID(ctx, 42)
	s.ErrorIs(err, sentinel.ErrNotFound)

	u := &models.User{Username: "carol", Email: "carol@example.com", HashedPassword: "h", Role: models.RoleReader}
	s.Require().NoError(s.store.Create(ctx, u))
	s.Require().NoError(s.store.Delete(ctx, u.ID))
	s.ErrorIs(s.store.Delete(ctx, u.ID), sentinel.ErrNotFound)
}
