package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/Marysah2/Backend-REST-API-Code-Challenge/pkg/models"
)

var postColumns = []string{"id", "title", "content", "created_at", "user_id"}

// CreatePost inserts p after checking that its user exists. The check and the
// insert are not one transaction; a user deleted in between is caught by the
// foreign key and reported as ErrUserNotFound as well.
func (s *Store) CreatePost(ctx context.Context, p models.Post) (_ models.Post, err error) {
	if _, err := s.GetUser(ctx, p.UserID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return models.Post{}, ErrUserNotFound
		}
		return models.Post{}, err
	}

	ctx, done := s.observe(ctx, "posts.create")
	defer func() { done(err) }()

	p.CreatedAt = now()
	id, err := s.insert(ctx, s.builder.Insert("posts").
		Columns("title", "content", "created_at", "user_id").
		Values(p.Title, p.Content, p.CreatedAt, p.UserID))
	if err != nil {
		if isForeignKeyViolation(err) {
			return models.Post{}, ErrUserNotFound
		}
		return models.Post{}, fmt.Errorf("insert post: %w", err)
	}
	p.ID = id
	return p, nil
}

// GetPost returns the post with the given id or ErrNotFound.
func (s *Store) GetPost(ctx context.Context, id int64) (p models.Post, err error) {
	ctx, done := s.observe(ctx, "posts.get")
	defer func() { done(err) }()

	query, args, err := s.builder.Select(postColumns...).
		From("posts").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return models.Post{}, err
	}
	if err = s.db.GetContext(ctx, &p, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Post{}, ErrNotFound
		}
		return models.Post{}, fmt.Errorf("get post %d: %w", id, err)
	}
	return p, nil
}

// ListPosts returns every post ordered by id.
func (s *Store) ListPosts(ctx context.Context) ([]models.Post, error) {
	return s.listPosts(ctx, "posts.list", nil)
}

// ListPostsByUser returns the posts owned by userID ordered by id.
func (s *Store) ListPostsByUser(ctx context.Context, userID int64) ([]models.Post, error) {
	return s.listPosts(ctx, "posts.list_by_user", sq.Eq{"user_id": userID})
}

func (s *Store) listPosts(ctx context.Context, op string, where sq.Sqlizer) (_ []models.Post, err error) {
	ctx, done := s.observe(ctx, op)
	defer func() { done(err) }()

	b := s.builder.Select(postColumns...).From("posts").OrderBy("id")
	if where != nil {
		b = b.Where(where)
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	posts := []models.Post{}
	if err = s.db.SelectContext(ctx, &posts, query, args...); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

// UpdatePost applies the non-nil fields of patch and returns the stored post.
func (s *Store) UpdatePost(ctx context.Context, id int64, patch models.PostPatch) (_ models.Post, err error) {
	if patch.Empty() {
		return s.GetPost(ctx, id)
	}

	ctx, done := s.observe(ctx, "posts.update")
	defer func() { done(err) }()

	b := s.builder.Update("posts").Where(sq.Eq{"id": id})
	if patch.Title != nil {
		b = b.Set("title", *patch.Title)
	}
	if patch.Content != nil {
		b = b.Set("content", *patch.Content)
	}

	query, args, err := b.ToSql()
	if err != nil {
		return models.Post{}, err
	}
	if _, err = s.db.ExecContext(ctx, query, args...); err != nil {
		return models.Post{}, fmt.Errorf("update post %d: %w", id, err)
	}
	return s.GetPost(ctx, id)
}

// DeletePost removes the post with the given id.
func (s *Store) DeletePost(ctx context.Context, id int64) (err error) {
	ctx, done := s.observe(ctx, "posts.delete")
	defer func() { done(err) }()

	query, args, err := s.builder.Delete("posts").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete post %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
