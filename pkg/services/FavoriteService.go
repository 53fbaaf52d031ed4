package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/adampresley/photogallery/pkg/models"
)

type FavoriteServicer interface {
	Add(ctx context.Context, owner, url string) error
	Favorites(owner string) models.FavoriteSet
	Load(ctx context.Context, owner string) (models.FavoriteSet, error)
	Remove(ctx context.Context, owner, url string) error
	Toggle(ctx context.Context, owner, url string) (bool, error)
}

type FavoriteServiceConfig struct {
	MaxFavorites int
	Store        FavoriteStorer
}

/*
FavoriteService keeps a local mirror of each owner's favorite URLs. The
mirror is authoritative between loads and a fresh Load always replaces
it. Adds in flight hold a slot against the limit until their store write
finishes, so concurrent adds never push an owner past the limit. Toggle
is otherwise not atomic across its check and its store writes; an add
and a remove of the same URL may interleave and the last write wins.
*/
type FavoriteService struct {
	maxFavorites int
	store        FavoriteStorer
	state        *favoriteState
}

type favoriteState struct {
	sync.Mutex
	pending map[string]models.FavoriteSet
	sets    map[string]models.FavoriteSet
}

func NewFavoriteService(config FavoriteServiceConfig) FavoriteService {
	if config.MaxFavorites <= 0 {
		config.MaxFavorites = models.MaxFavorites
	}

	return FavoriteService{
		maxFavorites: config.MaxFavorites,
		store:        config.Store,
		state: &favoriteState{
			pending: map[string]models.FavoriteSet{},
			sets:    map[string]models.FavoriteSet{},
		},
	}
}

func FavoritesPath(owner string) string {
	return fmt.Sprintf("users/%s/favorites", owner)
}

/*
Load reads every favorite of owner and rebuilds the local set. A path
that does not exist yet is an empty set. Any other store failure also
leaves an empty set and is returned wrapped in ErrFavoritesLoadFailed so
the caller can log it.
*/
func (s FavoriteService) Load(ctx context.Context, owner string) (models.FavoriteSet, error) {
	var (
		err     error
		entries map[string]models.FavoriteEntry
	)

	entries, err = s.store.ReadAll(ctx, FavoritesPath(owner))

	if err != nil && !errors.Is(err, models.ErrFavoritesPathAbsent) {
		if ctx.Err() == nil {
			s.replace(owner, models.NewFavoriteSet())
		}

		return models.NewFavoriteSet(), fmt.Errorf("%w: error reading favorites for '%s': %w", models.ErrFavoritesLoadFailed, owner, err)
	}

	set := models.NewFavoriteSet()

	for _, entry := range entries {
		set[entry.URL] = struct{}{}
	}

	if err = ctx.Err(); err != nil {
		return set, err
	}

	s.replace(owner, set)
	return set.Clone(), nil
}

/*
Toggle flips the favorite state of url for owner and returns whether
url is a favorite afterwards.
*/
func (s FavoriteService) Toggle(ctx context.Context, owner, url string) (bool, error) {
	if s.isFavorite(owner, url) {
		if err := s.Remove(ctx, owner, url); err != nil {
			return true, err
		}

		return false, nil
	}

	if err := s.Add(ctx, owner, url); err != nil {
		return false, err
	}

	return true, nil
}

/*
Add appends a favorite entry for url. It fails with
ErrFavoriteLimitExceeded without touching the store when owner already
has the maximum number of favorites, counting adds still in flight.
Adding a url that is already a favorite, or already being added, does
nothing.
*/
func (s FavoriteService) Add(ctx context.Context, owner, url string) error {
	var (
		err error
		key string
	)

	s.state.Lock()
	set := s.setFor(owner)
	pending := s.pendingFor(owner)

	if set.Contains(url) || pending.Contains(url) {
		s.state.Unlock()
		return nil
	}

	if used := set.Len() + pending.Len(); used >= s.maxFavorites {
		s.state.Unlock()
		return fmt.Errorf("%w: owner '%s' has %d favorites", models.ErrFavoriteLimitExceeded, owner, used)
	}

	pending[url] = struct{}{}
	s.state.Unlock()

	entry := models.FavoriteEntry{
		URL:   url,
		Owner: owner,
	}

	if key, err = s.store.Append(ctx, FavoritesPath(owner), entry); err != nil {
		err = fmt.Errorf("%w: error adding favorite '%s' for '%s': %w", models.ErrFavoriteStoreWriteFailed, url, owner, err)
	} else {
		err = ctx.Err()
	}

	s.state.Lock()
	delete(s.pendingFor(owner), url)

	if err == nil {
		s.setFor(owner)[url] = struct{}{}
	}

	s.state.Unlock()

	if err != nil {
		return err
	}

	slog.Debug("favorite added", "owner", owner, "url", url, "key", key)
	return nil
}

/*
Remove deletes every stored entry of owner whose URL matches url, then
drops url from the local set. Removing a url that is not a favorite
issues no store calls.
*/
func (s FavoriteService) Remove(ctx context.Context, owner, url string) error {
	var (
		err     error
		entries map[string]models.FavoriteEntry
	)

	if !s.isFavorite(owner, url) {
		return nil
	}

	path := FavoritesPath(owner)
	entries, err = s.store.ReadAll(ctx, path)

	if err != nil && !errors.Is(err, models.ErrFavoritesPathAbsent) {
		return fmt.Errorf("%w: error reading favorites for '%s': %w", models.ErrFavoriteStoreWriteFailed, owner, err)
	}

	keys := make([]string, 0, 1)

	for key, entry := range entries {
		if entry.URL == url {
			keys = append(keys, key)
		}
	}

	slices.Sort(keys)

	for _, key := range keys {
		if err = s.store.Delete(ctx, path, key); err != nil {
			return fmt.Errorf("%w: error deleting favorite '%s' for '%s': %w", models.ErrFavoriteStoreWriteFailed, key, owner, err)
		}
	}

	if err = ctx.Err(); err != nil {
		return err
	}

	s.state.Lock()
	delete(s.setFor(owner), url)
	s.state.Unlock()

	slog.Debug("favorite removed", "owner", owner, "url", url, "deletedEntries", len(keys))
	return nil
}

/*
Favorites returns a copy of the local set for owner.
*/
func (s FavoriteService) Favorites(owner string) models.FavoriteSet {
	s.state.Lock()
	defer s.state.Unlock()

	return s.setFor(owner).Clone()
}

func (s FavoriteService) isFavorite(owner, url string) bool {
	s.state.Lock()
	defer s.state.Unlock()

	return s.setFor(owner).Contains(url)
}

func (s FavoriteService) replace(owner string, set models.FavoriteSet) {
	s.state.Lock()
	s.state.sets[owner] = set.Clone()
	s.state.Unlock()
}

// pendingFor must be called with the state lock held.
func (s FavoriteService) pendingFor(owner string) models.FavoriteSet {
	pending, ok := s.state.pending[owner]

	if !ok {
		pending = models.NewFavoriteSet()
		s.state.pending[owner] = pending
	}

	return pending
}

// setFor must be called with the state lock held.
func (s FavoriteService) setFor(owner string) models.FavoriteSet {
	set, ok := s.state.sets[owner]

	if !ok {
		set = models.NewFavoriteSet()
		s.state.sets[owner] = set
	}

	return set
}
