package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/suite"
	"github.com/vadimbarashkov/shortener/internal/entity"
)

type URLRepositoryTestSuite struct {
	suite.Suite
	errUnknown      error
	errAffectedRows error
	columns         []string
	ownerID         uuid.UUID
	createdAt       time.Time
	mock            sqlmock.Sqlmock
	repo            *URLRepository
}

func (suite *URLRepositoryTestSuite) SetupSuite() {
	suite.errUnknown = errors.New("unknown error")
	suite.errAffectedRows = errors.New("affected rows error")
	suite.columns = []string{"id", "ident", "origin", "slug", "user_id", "views", "created_at", "expires_at", "last_visit_at"}
	suite.ownerID = uuid.MustParse("7f8c2a6e-2d7b-4c39-9a43-3f1f4cf0a9d1")
	suite.createdAt = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
}

func (suite *URLRepositoryTestSuite) SetupSubTest() {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		suite.T().Fatalf("Failed to create mock database: %v", err)
	}

	db := sqlx.NewDb(mockDB, "sqlmock")
	suite.T().Cleanup(func() {
		db.Close()
	})

	suite.mock = mock
	suite.repo = NewURLRepository(db)
}

func (suite *URLRepositoryTestSuite) TearDownSubTest() {
	suite.NoError(suite.mock.ExpectationsWereMet())
}

func (suite *URLRepositoryTestSuite) row(ident string, slug any, views int64, expiresAt any) *sqlmock.Rows {
	return sqlmock.NewRows(suite.columns).
		AddRow(1, ident, "https://example.com", slug, suite.ownerID.String(), views, suite.createdAt, expiresAt, nil)
}

func (suite *URLRepositoryTestSuite) TestCreate() {
	newURL := func(slug *string) *entity.ShortURL {
		return &entity.ShortURL{
			Ident:     "abc1234",
			Origin:    "https://example.com",
			Slug:      slug,
			OwnerID:   suite.ownerID,
			CreatedAt: suite.createdAt,
		}
	}

	suite.Run("ident exists", func() {
		suite.mock.ExpectQuery(`INSERT INTO urls`).
			WithArgs("abc1234", "https://example.com", nil, suite.ownerID, suite.createdAt, nil).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: urlsIdentConstraint})

		url, err := suite.repo.Create(context.Background(), newURL(nil))

		suite.ErrorIs(err, entity.ErrIdentExists)
		suite.Nil(url)
	})

	suite.Run("slug exists", func() {
		slug := "my-link"

		suite.mock.ExpectQuery(`INSERT INTO urls`).
			WithArgs("abc1234", "https://example.com", "my-link", suite.ownerID, suite.createdAt, nil).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: urlsSlugConstraint})

		url, err := suite.repo.Create(context.Background(), newURL(&slug))

		suite.ErrorIs(err, entity.ErrSlugExists)
		suite.Nil(url)
	})

	suite.Run("unknown error", func() {
		suite.mock.ExpectQuery(`INSERT INTO urls`).
			WillReturnError(suite.errUnknown)

		url, err := suite.repo.Create(context.Background(), newURL(nil))

		suite.ErrorIs(err, suite.errUnknown)
		suite.Nil(url)
	})

	suite.Run("success", func() {
		slug := "my-link"
		expiresAt := suite.createdAt.Add(24 * time.Hour)
		u := newURL(&slug)
		u.ExpiresAt = &expiresAt

		suite.mock.ExpectQuery(`INSERT INTO urls`).
			WithArgs("abc1234", "https://example.com", "my-link", suite.ownerID, suite.createdAt, expiresAt).
			WillReturnRows(suite.row("abc1234", "my-link", 0, expiresAt))

		url, err := suite.repo.Create(context.Background(), u)

		suite.NoError(err)
		suite.Require().NotNil(url)
		suite.Equal(int64(1), url.ID)
		suite.Equal("abc1234", url.Ident)
		suite.Equal("https://example.com", url.Origin)
		suite.Require().NotNil(url.Slug)
		suite.Equal("my-link", *url.Slug)
		suite.Equal(suite.ownerID, url.OwnerID)
		suite.Zero(url.Views)
		suite.Require().NotNil(url.ExpiresAt)
		suite.True(expiresAt.Equal(*url.ExpiresAt))
		suite.Nil(url.LastVisitAt)
	})
}

func (suite *URLRepositoryTestSuite) TestGetByIdent() {
	suite.Run("url not found", func() {
		suite.mock.ExpectQuery(`SELECT (.+) FROM urls WHERE ident = \$1`).
			WithArgs("abc1234").
			WillReturnError(sql.ErrNoRows)

		url, err := suite.repo.GetByIdent(context.Background(), "abc1234")

		suite.ErrorIs(err, entity.ErrURLNotFound)
		suite.Nil(url)
	})

	suite.Run("unknown error", func() {
		suite.mock.ExpectQuery(`SELECT (.+) FROM urls`).
			WithArgs("abc1234").
			WillReturnError(suite.errUnknown)

		url, err := suite.repo.GetByIdent(context.Background(), "abc1234")

		suite.ErrorIs(err, suite.errUnknown)
		suite.Nil(url)
	})

	suite.Run("success", func() {
		suite.mock.ExpectQuery(`SELECT (.+) FROM urls WHERE ident = \$1`).
			WithArgs("abc1234").
			WillReturnRows(suite.row("abc1234", nil, 3, nil))

		url, err := suite.repo.GetByIdent(context.Background(), "abc1234")

		suite.NoError(err)
		suite.Require().NotNil(url)
		suite.Equal("abc1234", url.Ident)
		suite.Equal(int64(3), url.Views)
		suite.Nil(url.Slug)
		suite.Nil(url.ExpiresAt)
	})
}

func (suite *URLRepositoryTestSuite) TestGetBySlug() {
	suite.Run("url not found", func() {
		suite.mock.ExpectQuery(`SELECT (.+) FROM urls WHERE slug = \$1`).
			WithArgs("my-link").
			WillReturnError(sql.ErrNoRows)

		url, err := suite.repo.GetBySlug(context.Background(), "my-link")

		suite.ErrorIs(err, entity.ErrURLNotFound)
		suite.Nil(url)
	})

	suite.Run("success", func() {
		suite.mock.ExpectQuery(`SELECT (.+) FROM urls WHERE slug = \$1`).
			WithArgs("my-link").
			WillReturnRows(suite.row("abc1234", "my-link", 0, nil))

		url, err := suite.repo.GetBySlug(context.Background(), "my-link")

		suite.NoError(err)
		suite.Require().NotNil(url)
		suite.Equal("my-link", *url.Slug)
	})
}

func (suite *URLRepositoryTestSuite) TestGetByKey() {
	suite.Run("url not found", func() {
		suite.mock.ExpectQuery(`SELECT (.+) FROM urls\s+WHERE ident = \$1 OR slug = \$1`).
			WithArgs("my-link").
			WillReturnError(sql.ErrNoRows)

		url, err := suite.repo.GetByKey(context.Background(), "my-link")

		suite.ErrorIs(err, entity.ErrURLNotFound)
		suite.Nil(url)
	})

	suite.Run("success", func() {
		suite.mock.ExpectQuery(`SELECT (.+) FROM urls\s+WHERE ident = \$1 OR slug = \$1`).
			WithArgs("my-link").
			WillReturnRows(suite.row("abc1234", "my-link", 0, nil))

		url, err := suite.repo.GetByKey(context.Background(), "my-link")

		suite.NoError(err)
		suite.Require().NotNil(url)
		suite.Equal("abc1234", url.Ident)
	})
}

func (suite *URLRepositoryTestSuite) TestList() {
	suite.Run("invalid sort field", func() {
		urls, total, err := suite.repo.List(context.Background(), entity.ShortURLFilter{},
			entity.DefaultPagination(), entity.Sorting{Field: "password", Order: entity.SortAsc})

		suite.ErrorIs(err, entity.ErrInvalidSortField)
		suite.Nil(urls)
		suite.Zero(total)
	})

	suite.Run("count error", func() {
		suite.mock.ExpectQuery(`SELECT COUNT\(\*\) FROM urls`).
			WillReturnError(suite.errUnknown)

		urls, total, err := suite.repo.List(context.Background(), entity.ShortURLFilter{},
			entity.DefaultPagination(), entity.DefaultSorting())

		suite.ErrorIs(err, suite.errUnknown)
		suite.Nil(urls)
		suite.Zero(total)
	})

	suite.Run("unscoped", func() {
		suite.mock.ExpectQuery(`SELECT COUNT\(\*\) FROM urls$`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(25))
		suite.mock.ExpectQuery(regexp.QuoteMeta(`FROM urls ORDER BY created_at ASC NULLS LAST, id ASC LIMIT $1 OFFSET $2`)).
			WithArgs(10, 10).
			WillReturnRows(suite.row("abc1234", nil, 0, nil))

		urls, total, err := suite.repo.List(context.Background(), entity.ShortURLFilter{},
			entity.Pagination{Page: 2, PerPage: 10}, entity.DefaultSorting())

		suite.NoError(err)
		suite.Equal(int64(25), total)
		suite.Len(urls, 1)
	})

	suite.Run("scoped to owner", func() {
		suite.mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM urls WHERE user_id = $1`)).
			WithArgs(suite.ownerID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		suite.mock.ExpectQuery(regexp.QuoteMeta(`FROM urls WHERE user_id = $1 ORDER BY views DESC NULLS LAST, id DESC LIMIT $2 OFFSET $3`)).
			WithArgs(suite.ownerID, 10, 0).
			WillReturnRows(sqlmock.NewRows(suite.columns))

		urls, total, err := suite.repo.List(context.Background(), entity.ShortURLFilter{OwnerID: &suite.ownerID},
			entity.DefaultPagination(), entity.Sorting{Field: "views", Order: entity.SortDesc})

		suite.NoError(err)
		suite.Zero(total)
		suite.Empty(urls)
		suite.NotNil(urls)
	})
}

func (suite *URLRepositoryTestSuite) TestUpdateExpiration() {
	expiresAt := suite.createdAt.Add(48 * time.Hour)

	suite.Run("url not found", func() {
		suite.mock.ExpectQuery(`UPDATE urls SET expires_at`).
			WithArgs(expiresAt, "abc1234").
			WillReturnError(sql.ErrNoRows)

		url, err := suite.repo.UpdateExpiration(context.Background(), "abc1234", expiresAt)

		suite.ErrorIs(err, entity.ErrURLNotFound)
		suite.Nil(url)
	})

	suite.Run("unknown error", func() {
		suite.mock.ExpectQuery(`UPDATE urls SET expires_at`).
			WithArgs(expiresAt, "abc1234").
			WillReturnError(suite.errUnknown)

		url, err := suite.repo.UpdateExpiration(context.Background(), "abc1234", expiresAt)

		suite.ErrorIs(err, suite.errUnknown)
		suite.Nil(url)
	})

	suite.Run("success", func() {
		suite.mock.ExpectQuery(`UPDATE urls SET expires_at`).
			WithArgs(expiresAt, "abc1234").
			WillReturnRows(suite.row("abc1234", nil, 0, expiresAt))

		url, err := suite.repo.UpdateExpiration(context.Background(), "abc1234", expiresAt)

		suite.NoError(err)
		suite.Require().NotNil(url)
		suite.Require().NotNil(url.ExpiresAt)
		suite.True(expiresAt.Equal(*url.ExpiresAt))
	})
}

func (suite *URLRepositoryTestSuite) TestRecordVisit() {
	at := suite.createdAt.Add(time.Hour)

	suite.Run("unknown error", func() {
		suite.mock.ExpectExec(`UPDATE urls\s+SET views = views \+ 1`).
			WithArgs("abc1234", at).
			WillReturnError(suite.errUnknown)

		err := suite.repo.RecordVisit(context.Background(), "abc1234", at)

		suite.ErrorIs(err, suite.errUnknown)
	})

	suite.Run("rows affected error", func() {
		suite.mock.ExpectExec(`UPDATE urls\s+SET views = views \+ 1`).
			WithArgs("abc1234", at).
			WillReturnResult(sqlmock.NewErrorResult(suite.errAffectedRows))

		err := suite.repo.RecordVisit(context.Background(), "abc1234", at)

		suite.ErrorIs(err, suite.errAffectedRows)
	})

	suite.Run("url not found", func() {
		suite.mock.ExpectExec(`UPDATE urls\s+SET views = views \+ 1`).
			WithArgs("abc1234", at).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := suite.repo.RecordVisit(context.Background(), "abc1234", at)

		suite.ErrorIs(err, entity.ErrURLNotFound)
	})

	suite.Run("success", func() {
		suite.mock.ExpectExec(`UPDATE urls\s+SET views = views \+ 1, last_visit_at = GREATEST\(last_visit_at, \$2\)`).
			WithArgs("abc1234", at).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := suite.repo.RecordVisit(context.Background(), "abc1234", at)

		suite.NoError(err)
	})
}

func (suite *URLRepositoryTestSuite) TestDelete() {
	suite.Run("unknown error", func() {
		suite.mock.ExpectExec(`DELETE FROM urls WHERE ident`).
			WithArgs("abc1234").
			WillReturnError(suite.errUnknown)

		err := suite.repo.Delete(context.Background(), "abc1234")

		suite.ErrorIs(err, suite.errUnknown)
	})

	suite.Run("rows affected error", func() {
		suite.mock.ExpectExec(`DELETE FROM urls WHERE ident`).
			WithArgs("abc1234").
			WillReturnResult(sqlmock.NewErrorResult(suite.errAffectedRows))

		err := suite.repo.Delete(context.Background(), "abc1234")

		suite.ErrorIs(err, suite.errAffectedRows)
	})

	suite.Run("url not found", func() {
		suite.mock.ExpectExec(`DELETE FROM urls WHERE ident`).
			WithArgs("abc1234").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := suite.repo.Delete(context.Background(), "abc1234")

		suite.ErrorIs(err, entity.ErrURLNotFound)
	})

	suite.Run("success", func() {
		suite.mock.ExpectExec(`DELETE FROM urls WHERE ident`).
			WithArgs("abc1234").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := suite.repo.Delete(context.Background(), "abc1234")

		suite.NoError(err)
	})
}

func (suite *URLRepositoryTestSuite) TestDeleteExpired() {
	now := suite.createdAt.Add(time.Hour)

	suite.Run("unknown error", func() {
		suite.mock.ExpectExec(`DELETE FROM urls WHERE expires_at IS NOT NULL`).
			WithArgs(now).
			WillReturnError(suite.errUnknown)

		n, err := suite.repo.DeleteExpired(context.Background(), now)

		suite.ErrorIs(err, suite.errUnknown)
		suite.Zero(n)
	})

	suite.Run("success", func() {
		suite.mock.ExpectExec(`DELETE FROM urls WHERE expires_at IS NOT NULL AND expires_at <= \$1`).
			WithArgs(now).
			WillReturnResult(sqlmock.NewResult(0, 3))

		n, err := suite.repo.DeleteExpired(context.Background(), now)

		suite.NoError(err)
		suite.Equal(int64(3), n)
	})
}

func TestURLRepository(t *testing.T) {
	suite.Run(t, new(URLRepositoryTestSuite))
}
