package mysql

import (
	"context"
	"database/sql"
	"errors"
)

// PreferenceRepository persists per-user UI preferences.
type PreferenceRepository struct {
	db *sql.DB
}

func NewPreferenceRepository(db *sql.DB) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

// Theme returns the stored theme, or "" when the user has none yet.
func (r *PreferenceRepository) Theme(ctx context.Context, userID string) (string, error) {
	const q = `SELECT theme FROM user_preferences WHERE user_id=? LIMIT 1;`
	var theme string
	if err := r.db.QueryRowContext(ctx, q, userID).Scan(&theme); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return theme, nil
}

func (r *PreferenceRepository) SetTheme(ctx context.Context, userID, theme string) error {
	const q = `
INSERT INTO user_preferences (user_id, theme)
VALUES (?,?)
ON DUPLICATE KEY UPDATE theme=VALUES(theme);
`
	_, err := r.db.ExecContext(ctx, q, userID, theme)
	return err
}
