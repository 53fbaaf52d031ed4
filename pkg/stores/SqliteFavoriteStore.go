package stores

import (
	"context"
	"fmt"
	"time"

	"github.com/adampresley/photogallery/pkg/models"
	"github.com/google/uuid"
	"github.com/rfberaldo/sqlz"
)

type SqliteFavoriteStoreConfig struct {
	DB *sqlz.DB
}

/*
SqliteFavoriteStore keeps favorite entries as rows keyed by a generated
UUID and grouped by path.
*/
type SqliteFavoriteStore struct {
	db *sqlz.DB
}

func NewSqliteFavoriteStore(config SqliteFavoriteStoreConfig) SqliteFavoriteStore {
	return SqliteFavoriteStore{
		db: config.DB,
	}
}

func (s SqliteFavoriteStore) ReadAll(ctx context.Context, path string) (map[string]models.FavoriteEntry, error) {
	var (
		err  error
		rows []models.FavoriteEntry
	)

	sql := `
SELECT
   f.entry_key
   , f.path
   , f.url
   , f.owner
   , f.created_at
FROM favorites AS f
WHERE 1=1
   AND f.path=?
ORDER BY f.created_at, f.entry_key
`

	ctx, cancel := context.WithTimeout(ctx, time.Second*5)
	defer cancel()

	if err = s.db.Query(ctx, &rows, sql, path); err != nil {
		if sqlz.IsNotFound(err) {
			return nil, models.ErrFavoritesPathAbsent
		}

		return nil, fmt.Errorf("error querying favorites under '%s': %w", path, err)
	}

	if len(rows) == 0 {
		return nil, models.ErrFavoritesPathAbsent
	}

	result := make(map[string]models.FavoriteEntry, len(rows))

	for _, row := range rows {
		result[row.Key] = row
	}

	return result, nil
}

func (s SqliteFavoriteStore) Append(ctx context.Context, path string, entry models.FavoriteEntry) (string, error) {
	var (
		err error
	)

	key := uuid.NewString()

	sql := `
INSERT INTO favorites (
   entry_key,
   path,
   url,
   owner,
   created_at
) VALUES (?, ?, ?, ?, ?)
`

	params := []any{
		key,
		path,
		entry.URL,
		entry.Owner,
		time.Now().UTC(),
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*5)
	defer cancel()

	if _, err = s.db.Exec(ctx, sql, params...); err != nil {
		return "", fmt.Errorf("error inserting favorite under '%s': %w", path, err)
	}

	return key, nil
}

func (s SqliteFavoriteStore) Delete(ctx context.Context, path, key string) error {
	var (
		err error
	)

	sql := `
DELETE FROM favorites
WHERE 1=1
   AND path=?
   AND entry_key=?
`

	ctx, cancel := context.WithTimeout(ctx, time.Second*5)
	defer cancel()

	if _, err = s.db.Exec(ctx, sql, path, key); err != nil {
		return fmt.Errorf("error deleting favorite '%s' under '%s': %w", key, path, err)
	}

	return nil
}
