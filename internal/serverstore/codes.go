package serverstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// CreateCode registers a fresh account code.
func (s *Store) CreateCode(ctx context.Context, code string, now time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO codes (code, created_at) VALUES (?, ?)
	`, code, now.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("create code: %w", err)
	}
	return nil
}

// CodeExists reports whether a code is registered.
func (s *Store) CodeExists(ctx context.Context, code string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM codes WHERE code = ?`, code).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check code: %w", err)
	}
	return true, nil
}

// TouchLogin stamps the code's last login time. Returns false when the code
// is unknown.
func (s *Store) TouchLogin(ctx context.Context, code string, now time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE codes SET last_login_at = ? WHERE code = ?
	`, now.UTC().Format(time.RFC3339), code)
	if err != nil {
		return false, fmt.Errorf("touch login: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("touch login: %w", err)
	}
	return n > 0, nil
}

// TokenForCode returns the token already issued for a code, if any.
func (s *Store) TokenForCode(ctx context.Context, code string) (string, bool, error) {
	var token sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT token FROM codes WHERE code = ?`, code).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("token for code: %w", err)
	}
	return token.String, token.Valid && token.String != "", nil
}

// StoreToken binds a freshly issued token to a code.
func (s *Store) StoreToken(ctx context.Context, code, token string, now time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE codes SET token = ?, token_generated_at = ? WHERE code = ?
	`, token, now.UTC().Format(time.RFC3339), code)
	if err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("store token: unknown code %q", code)
	}
	return nil
}

// CodeForToken resolves a bearer token to its account code. Returns false
// when the token is unknown - the caller maps that to a 401.
func (s *Store) CodeForToken(ctx context.Context, token string) (string, bool, error) {
	if token == "" {
		return "", false, nil
	}
	var code string
	err := s.db.QueryRowContext(ctx, `SELECT code FROM codes WHERE token = ?`, token).Scan(&code)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("code for token: %w", err)
	}
	return code, true, nil
}
