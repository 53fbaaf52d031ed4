package models

import "time"

const (
	MaxFavorites = 5
)

/*
FavoriteEntry is one row in the favorites store. Key is generated by the
store when the entry is appended.
*/
type FavoriteEntry struct {
	Key       string    `db:"entry_key"`
	Path      string    `db:"path"`
	URL       string    `db:"url"`
	Owner     string    `db:"owner"`
	CreatedAt time.Time `db:"created_at"`
}

/*
FavoriteSet is the URL projection of an owner's favorite entries.
*/
type FavoriteSet map[string]struct{}

func NewFavoriteSet(urls ...string) FavoriteSet {
	result := make(FavoriteSet, len(urls))

	for _, u := range urls {
		result[u] = struct{}{}
	}

	return result
}

func (s FavoriteSet) Contains(url string) bool {
	_, ok := s[url]
	return ok
}

func (s FavoriteSet) Len() int {
	return len(s)
}

func (s FavoriteSet) Clone() FavoriteSet {
	result := make(FavoriteSet, len(s))

	for u := range s {
		result[u] = struct{}{}
	}

	return result
}
