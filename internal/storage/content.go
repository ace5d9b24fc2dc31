package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/content-paywall/internal/models"
)

const contentColumns = `id, title, description, url, thumbnail_url, type, is_public, created_at, updated_at`

func scanContent(row rowScanner) (*models.Content, error) {
	var (
		c                      models.Content
		description, thumbnail sql.NullString
	)
	if err := row.Scan(&c.ID, &c.Title, &description, &c.URL, &thumbnail, &c.Type, &c.IsPublic,
		&c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Description = nullString(description)
	c.ThumbnailURL = nullString(thumbnail)
	return &c, nil
}

// CreateContent сохраняет элемент каталога.
func (s *Storage) CreateContent(ctx context.Context, c models.NewContent) (*models.Content, error) {
	const op = "storage.CreateContent"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	db, err := s.DB(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	contentType := c.Type
	if contentType == "" {
		contentType = models.ContentVideo
	}
	var thumbnail any
	if c.ThumbnailURL != nil {
		thumbnail = *c.ThumbnailURL
	}

	query := `INSERT INTO content (title, description, url, thumbnail_url, type, is_public)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING ` + contentColumns
	created, err := scanContent(db.QueryRowContext(ctx, query,
		c.Title, stringOrNil(c.Description), c.URL, thumbnail, string(contentType), c.IsPublic))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

// GetContent возвращает элемент каталога по идентификатору.
func (s *Storage) GetContent(ctx context.Context, id int64) (*models.Content, error) {
	const op = "storage.GetContent"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	db, err := s.DB(ctx)
	if err != nil {
		if errors.Is(err, ErrUnavailable) {
			s.log.Warn("database unavailable, content treated as missing", slog.Int64("id", id))
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	query := `SELECT ` + contentColumns + ` FROM content WHERE id = $1`
	c, err := scanContent(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

// UpdateContent применяет частичное обновление и возвращает новую версию записи.
func (s *Storage) UpdateContent(ctx context.Context, id int64, patch models.ContentPatch) (*models.Content, error) {
	const op = "storage.UpdateContent"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	db, err := s.DB(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	sets := []string{"updated_at = NOW()"}
	args := []any{}
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Description != nil {
		add("description", stringOrNil(*patch.Description))
	}
	if patch.URL != nil {
		add("url", *patch.URL)
	}
	if patch.ThumbnailURL != nil {
		add("thumbnail_url", stringOrNil(*patch.ThumbnailURL))
	}
	if patch.Type != nil {
		add("type", string(*patch.Type))
	}
	if patch.IsPublic != nil {
		add("is_public", *patch.IsPublic)
	}
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE content SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), contentColumns)
	c, err := scanContent(db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

// DeleteContent удаляет элемент каталога.
func (s *Storage) DeleteContent(ctx context.Context, id int64) error {
	const op = "storage.DeleteContent"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	db, err := s.DB(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	result, err := db.ExecContext(ctx, `DELETE FROM content WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

// ListContent возвращает каталог, новые элементы первыми.
// При publicOnly в выборку попадают только публичные элементы.
func (s *Storage) ListContent(ctx context.Context, publicOnly bool) ([]*models.Content, error) {
	const op = "storage.ListContent"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	db, err := s.DB(ctx)
	if err != nil {
		return degrade[[]*models.Content](s, op, err)
	}

	query := `SELECT ` + contentColumns + ` FROM content`
	if publicOnly {
		query += ` WHERE is_public = TRUE`
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Content
	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
