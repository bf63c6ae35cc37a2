package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"postgate/internal/authz"
	"postgate/internal/posts/handler/mocks"
	"postgate/internal/posts/models"
	dErrors "postgate/pkg/domain-errors"
	"postgate/pkg/testutil"
)

type HandlerSuite struct {
	suite.Suite
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) newHandler(t *testing.T) (*mocks.MockService, chi.Router) {
	ctrl := gomock.NewController(t)
	mockService := mocks.NewMockService(ctrl)
	r := chi.NewRouter()
	New(mockService, nil).Register(r)
	return mockService, r
}

var (
	authorIdentity = authz.Identity{ID: "1", Role: "author"}
	created        = time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
)

func asAuthor(req *http.Request) *http.Request {
	return testutil.AsUser(req, 1, "alice", "author")
}

func samplePost() *models.Post {
	return &models.Post{ID: 5, Title: "Hello", Content: "World", AuthorID: 1, CreatedAt: created, UpdatedAt: created}
}

func (s *HandlerSuite) TestCreate() {
	s.T().Run("201 with the stored post", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		mockService.EXPECT().Create(gomock.Any(), authorIdentity, &models.CreatePostRequest{Title: "Hello", Content: "World"}).
			Return(samplePost(), nil)

		req := asAuthor(testutil.NewJSONRequest(t, http.MethodPost, "/posts", map[string]string{"title": " Hello ", "content": "World"}))
		rr := testutil.DoRequest(router, req)

		testutil.AssertStatus(t, rr, http.StatusCreated)
		got := testutil.UnmarshalResponse[models.PostResponse](t, rr)
		assert.Equal(t, int64(5), got.ID)
		assert.Equal(t, int64(1), got.AuthorID)
	})

	s.T().Run("403 when the PDP denies", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		mockService.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeForbidden, "forbidden"))

		req := asAuthor(testutil.NewJSONRequest(t, http.MethodPost, "/posts", map[string]string{"title": "t", "content": "c"}))
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatusAndError(t, rr, http.StatusForbidden, string(dErrors.CodeForbidden))
	})

	s.T().Run("422 on missing title", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		mockService.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		req := asAuthor(testutil.NewJSONRequest(t, http.MethodPost, "/posts", map[string]string{"content": "c"}))
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatusAndError(t, rr, http.StatusUnprocessableEntity, string(dErrors.CodeValidation))
	})

	s.T().Run("401 without a user in context", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		mockService.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/posts", map[string]string{"title": "t", "content": "c"}))
		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	})
}

func (s *HandlerSuite) TestList() {
	s.T().Run("repeated author_id filters", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		mockService.EXPECT().List(gomock.Any(), authorIdentity, models.ListFilter{AuthorIDs: []int64{1, 2}}).
			Return([]*models.Post{samplePost()}, nil)

		rr := testutil.DoRequest(router, asAuthor(testutil.NewRequest(t, http.MethodGet, "/posts?author_id=1&author_id=2")))

		testutil.AssertStatus(t, rr, http.StatusOK)
		got := testutil.UnmarshalResponse[[]models.PostResponse](t, rr)
		require.Len(t, *got, 1)
	})

	s.T().Run("empty list is an empty array", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		mockService.EXPECT().List(gomock.Any(), gomock.Any(), models.ListFilter{}).Return(nil, nil)

		rr := testutil.DoRequest(router, asAuthor(testutil.NewRequest(t, http.MethodGet, "/posts")))
		testutil.AssertStatus(t, rr, http.StatusOK)
		assert.JSONEq(t, `[]`, rr.Body.String())
	})

	s.T().Run("non-numeric author_id is rejected", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		mockService.EXPECT().List(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		rr := testutil.DoRequest(router, asAuthor(testutil.NewRequest(t, http.MethodGet, "/posts?author_id=abc")))
		testutil.AssertStatus(t, rr, http.StatusUnprocessableEntity)
	})
}

func (s *HandlerSuite) TestGetUpdateDelete() {
	s.T().Run("get 200", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		mockService.EXPECT().Get(gomock.Any(), authorIdentity, int64(5)).Return(samplePost(), nil)

		rr := testutil.DoRequest(router, asAuthor(testutil.NewRequest(t, http.MethodGet, "/posts/5")))
		testutil.AssertStatus(t, rr, http.StatusOK)
		testutil.AssertJSONContains(t, rr, "title", "Hello")
	})

	s.T().Run("get 404", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		mockService.EXPECT().Get(gomock.Any(), gomock.Any(), int64(404)).
			Return(nil, dErrors.New(dErrors.CodeNotFound, "Post not found"))

		rr := testutil.DoRequest(router, asAuthor(testutil.NewRequest(t, http.MethodGet, "/posts/404")))
		testutil.AssertStatusAndError(t, rr, http.StatusNotFound, string(dErrors.CodeNotFound))
	})

	s.T().Run("bad id 422", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		mockService.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		rr := testutil.DoRequest(router, asAuthor(testutil.NewRequest(t, http.MethodGet, "/posts/abc")))
		testutil.AssertStatus(t, rr, http.StatusUnprocessableEntity)
	})

	s.T().Run("partial update", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		title := "Edited"
		mockService.EXPECT().Update(gomock.Any(), authorIdentity, int64(5), &models.UpdatePostRequest{Title: &title}).
			Return(samplePost(), nil)

		req := asAuthor(testutil.NewJSONRequest(t, http.MethodPut, "/posts/5", map[string]string{"title": "Edited"}))
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatus(t, rr, http.StatusOK)
	})

	s.T().Run("delete message", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		mockService.EXPECT().Delete(gomock.Any(), authorIdentity, int64(5)).Return(nil)

		rr := testutil.DoRequest(router, asAuthor(testutil.NewRequest(t, http.MethodDelete, "/posts/5")))
		testutil.AssertStatus(t, rr, http.StatusOK)
		testutil.AssertJSONContains(t, rr, "message", "Post deleted successfully")
	})

	s.T().Run("delete forbidden", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		mockService.EXPECT().Delete(gomock.Any(), gomock.Any(), int64(5)).
			Return(dErrors.New(dErrors.CodeForbidden, "forbidden"))

		rr := testutil.DoRequest(router, asAuthor(testutil.NewRequest(t, http.MethodDelete, "/posts/5")))
		testutil.AssertStatus(t, rr, http.StatusForbidden)
	})
}
