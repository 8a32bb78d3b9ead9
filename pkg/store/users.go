package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/Marysah2/Backend-REST-API-Code-Challenge/pkg/models"
)

var userColumns = []string{"id", "name", "email", "created_at"}

// now is truncated to microseconds, the finest precision every supported
// database keeps, so a returned row equals the stored one.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// CreateUser inserts u and returns it with its id and creation time set.
func (s *Store) CreateUser(ctx context.Context, u models.User) (_ models.User, err error) {
	ctx, done := s.observe(ctx, "users.create")
	defer func() { done(err) }()

	u.CreatedAt = now()
	id, err := s.insert(ctx, s.builder.Insert("users").
		Columns("name", "email", "created_at").
		Values(u.Name, u.Email, u.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	u.ID = id
	return u, nil
}

// GetUser returns the user with the given id or ErrNotFound.
func (s *Store) GetUser(ctx context.Context, id int64) (u models.User, err error) {
	ctx, done := s.observe(ctx, "users.get")
	defer func() { done(err) }()

	query, args, err := s.builder.Select(userColumns...).
		From("users").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return models.User{}, err
	}
	if err = s.db.GetContext(ctx, &u, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("get user %d: %w", id, err)
	}
	return u, nil
}

// ListUsers returns every user ordered by id.
func (s *Store) ListUsers(ctx context.Context) (_ []models.User, err error) {
	ctx, done := s.observe(ctx, "users.list")
	defer func() { done(err) }()

	query, args, err := s.builder.Select(userColumns...).
		From("users").
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, err
	}
	users := []models.User{}
	if err = s.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// GetUsersByIDs returns the users among ids that exist, keyed by id.
func (s *Store) GetUsersByIDs(ctx context.Context, ids []int64) (_ map[int64]models.User, err error) {
	ctx, done := s.observe(ctx, "users.get_many")
	defer func() { done(err) }()

	found := make(map[int64]models.User, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	query, args, err := s.builder.Select(userColumns...).
		From("users").
		Where(sq.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return nil, err
	}
	var users []models.User
	if err = s.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, fmt.Errorf("get users: %w", err)
	}
	for _, u := range users {
		found[u.ID] = u
	}
	return found, nil
}

// UpdateUser applies the non-nil fields of patch and returns the stored user.
// Fields are expected to be validated already.
func (s *Store) UpdateUser(ctx context.Context, id int64, patch models.UserPatch) (_ models.User, err error) {
	if patch.Empty() {
		return s.GetUser(ctx, id)
	}

	ctx, done := s.observe(ctx, "users.update")
	defer func() { done(err) }()

	b := s.builder.Update("users").Where(sq.Eq{"id": id})
	if patch.Name != nil {
		b = b.Set("name", *patch.Name)
	}
	if patch.Email != nil {
		b = b.Set("email", *patch.Email)
	}

	query, args, err := b.ToSql()
	if err != nil {
		return models.User{}, err
	}
	if _, err = s.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, fmt.Errorf("update user %d: %w", id, err)
	}
	return s.GetUser(ctx, id)
}

// DeleteUser removes the user and all of its posts in one transaction.
func (s *Store) DeleteUser(ctx context.Context, id int64) (err error) {
	ctx, done := s.observe(ctx, "users.delete")
	defer func() { done(err) }()

	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		query, args, err := s.builder.Delete("posts").Where(sq.Eq{"user_id": id}).ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("delete posts of user %d: %w", id, err)
		}

		query, args, err = s.builder.Delete("users").Where(sq.Eq{"id": id}).ToSql()
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("delete user %d: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	})
}
