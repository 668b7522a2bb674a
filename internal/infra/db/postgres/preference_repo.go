package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/lib/pq"
)

// PreferenceRepository is the Postgres variant of the preference store.
type PreferenceRepository struct {
	db *sql.DB
}

func NewPreferenceRepository(db *sql.DB) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx2, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx2); err != nil {
		return nil, err
	}
	return db, nil
}

func (r *PreferenceRepository) Theme(ctx context.Context, userID string) (string, error) {
	const q = `SELECT theme FROM user_preferences WHERE user_id=$1 LIMIT 1;`
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
VALUES ($1,$2)
ON CONFLICT (user_id) DO UPDATE SET theme=EXCLUDED.theme;
`
	_, err := r.db.ExecContext(ctx, q, userID, theme)
	return err
}
