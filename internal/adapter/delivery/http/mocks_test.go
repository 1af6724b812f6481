package http

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/vadimbarashkov/shortener/internal/entity"
	"github.com/vadimbarashkov/shortener/internal/usecase"
)

type mockURLUseCase struct {
	mock.Mock
}

func (m *mockURLUseCase) Shorten(ctx context.Context, owner *entity.User, params usecase.ShortenParams) (*entity.ShortURL, error) {
	args := m.Called(ctx, owner, params)
	return urlOrNil(args.Get(0)), args.Error(1)
}

func (m *mockURLUseCase) Get(ctx context.Context, requester *entity.User, ident string) (*entity.ShortURL, error) {
	args := m.Called(ctx, requester, ident)
	return urlOrNil(args.Get(0)), args.Error(1)
}

func (m *mockURLUseCase) List(
	ctx context.Context,
	requester *entity.User,
	p entity.Pagination,
	s entity.Sorting,
) (*entity.Page[entity.ShortURL], error) {
	args := m.Called(ctx, requester, p, s)
	return urlPageOrNil(args.Get(0)), args.Error(1)
}

func (m *mockURLUseCase) ListMine(
	ctx context.Context,
	requester *entity.User,
	p entity.Pagination,
	s entity.Sorting,
) (*entity.Page[entity.ShortURL], error) {
	args := m.Called(ctx, requester, p, s)
	return urlPageOrNil(args.Get(0)), args.Error(1)
}

func (m *mockURLUseCase) ListMostVisited(
	ctx context.Context,
	requester *entity.User,
	p entity.Pagination,
) (*entity.Page[entity.ShortURL], error) {
	args := m.Called(ctx, requester, p)
	return urlPageOrNil(args.Get(0)), args.Error(1)
}

func (m *mockURLUseCase) Refresh(ctx context.Context, requester *entity.User, ident string) (*entity.ShortURL, error) {
	args := m.Called(ctx, requester, ident)
	return urlOrNil(args.Get(0)), args.Error(1)
}

func (m *mockURLUseCase) Delete(ctx context.Context, requester *entity.User, ident string) error {
	args := m.Called(ctx, requester, ident)
	return args.Error(0)
}

func (m *mockURLUseCase) Resolve(ctx context.Context, key string) (*entity.ShortURL, error) {
	args := m.Called(ctx, key)
	return urlOrNil(args.Get(0)), args.Error(1)
}

func urlOrNil(v any) *entity.ShortURL {
	if v == nil {
		return nil
	}
	return v.(*entity.ShortURL)
}

func urlPageOrNil(v any) *entity.Page[entity.ShortURL] {
	if v == nil {
		return nil
	}
	return v.(*entity.Page[entity.ShortURL])
}

type mockUserUseCase struct {
	mock.Mock
}

func (m *mockUserUseCase) Register(ctx context.Context, params usecase.RegisterParams) (*entity.User, error) {
	args := m.Called(ctx, params)
	return userOrNil(args.Get(0)), args.Error(1)
}

func (m *mockUserUseCase) Login(ctx context.Context, username, password string) (string, error) {
	args := m.Called(ctx, username, password)
	return args.String(0), args.Error(1)
}

func (m *mockUserUseCase) Authenticate(ctx context.Context, token string) (*entity.User, error) {
	args := m.Called(ctx, token)
	return userOrNil(args.Get(0)), args.Error(1)
}

func (m *mockUserUseCase) UpdateMe(ctx context.Context, user *entity.User, upd entity.UserUpdate) (*entity.User, error) {
	args := m.Called(ctx, user, upd)
	return userOrNil(args.Get(0)), args.Error(1)
}

func (m *mockUserUseCase) List(ctx context.Context, p entity.Pagination, s entity.Sorting) (*entity.Page[entity.User], error) {
	args := m.Called(ctx, p, s)

	var page *entity.Page[entity.User]
	if v := args.Get(0); v != nil {
		page = v.(*entity.Page[entity.User])
	}

	return page, args.Error(1)
}

func (m *mockUserUseCase) Get(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	args := m.Called(ctx, id)
	return userOrNil(args.Get(0)), args.Error(1)
}

func (m *mockUserUseCase) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func userOrNil(v any) *entity.User {
	if v == nil {
		return nil
	}
	return v.(*entity.User)
}
