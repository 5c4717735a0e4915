package identity

import (
	"context"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Users is the injected user store. The lifecycle only ever needs these
// operations; every partial update goes through UserPatch so nothing else on
// the record can be overwritten by accident.
type Users interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByStudentID(ctx context.Context, studentID string) (*User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	List(ctx context.Context) ([]*User, error)
	Create(ctx context.Context, record *User) (*User, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *User) (*User, error)
	Patch(ctx context.Context, id uuid.UUID, patch UserPatch) (*User, error)
}

type users struct {
	repo repository.Repository[*User]
	db   *bun.DB
}

var _ Users = (*users)(nil)

// NewUsersRepository builds the bun-backed Users store.
func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
	})

	return &users{repo: repo, db: db}
}

func (a *users) GetByEmail(ctx context.Context, email string) (*User, error) {
	return a.getBy(ctx, a.db, "email", email)
}

func (a *users) GetByStudentID(ctx context.Context, studentID string) (*User, error) {
	return a.getBy(ctx, a.db, "student_id", studentID)
}

func (a *users) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return a.getBy(ctx, a.db, "id", id.String())
}

func (a *users) getBy(ctx context.Context, tx bun.IDB, column, value string) (*User, error) {
	record := &User{}

	err := tx.NewSelect().
		Model(record).
		Where(fmt.Sprintf("?TableAlias.%s = ?", column), value).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, goerrors.Wrap(err, goerrors.CategoryNotFound, "user not found").
				WithCode(goerrors.CodeNotFound).
				WithTextCode(TextCodeUserNotFound)
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to query user")
	}

	return record, nil
}

func (a *users) List(ctx context.Context) ([]*User, error) {
	var records []*User

	err := a.db.NewSelect().
		Model(&records).
		Order("registered_at ASC").
		Scan(ctx)

	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to list users")
	}

	return records, nil
}

func (a *users) Create(ctx context.Context, record *User) (*User, error) {
	return a.repo.Create(ctx, record)
}

func (a *users) CreateTx(ctx context.Context, tx bun.IDB, record *User) (*User, error) {
	return a.repo.CreateTx(ctx, tx, record)
}

// Patch applies the explicit field patch and returns the updated record.
func (a *users) Patch(ctx context.Context, id uuid.UUID, patch UserPatch) (*User, error) {
	if patch.IsZero() {
		return nil, goerrors.New("user patch is empty", goerrors.CategoryBadInput)
	}

	q := a.db.NewUpdate().
		Model((*User)(nil)).
		Where("id = ?", id.String())

	if patch.IsActive != nil {
		q = q.Set("is_active = ?", *patch.IsActive)
	}
	if patch.PasswordHash != nil {
		q = q.Set("password_hash = ?", *patch.PasswordHash)
	}
	q = q.Set("updated_at = ?", time.Now())

	res, err := q.Exec(ctx)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to patch user")
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return nil, goerrors.New("user not found", goerrors.CategoryNotFound).
			WithCode(goerrors.CodeNotFound).
			WithTextCode(TextCodeUserNotFound)
	}

	return a.GetByID(ctx, id)
}
