// Package memory provides an interior-synchronized in-memory DataStore, used
// for tests and single-process deployments.
package memory // import "github.com/mxd-net/mxd-core/datastore/memory"

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mxd-net/mxd-core/datastore"
)

// Store is an in-memory datastore.DataStore.
type Store struct {
	mu sync.RWMutex

	nextID     int64
	users      map[int64]*datastore.User
	files      map[int64]*datastore.FileEntry
	acls       map[int64]map[int64]struct{} // user id -> file ids
	bundles    map[int64]*datastore.NewsBundle
	categories map[int64]*datastore.NewsCategory
	articles   map[int64]*datastore.NewsArticle
}

// New creates an empty store.
func New() *Store {
	return &Store{
		users:      make(map[int64]*datastore.User),
		files:      make(map[int64]*datastore.FileEntry),
		acls:       make(map[int64]map[int64]struct{}),
		bundles:    make(map[int64]*datastore.NewsBundle),
		categories: make(map[int64]*datastore.NewsCategory),
		articles:   make(map[int64]*datastore.NewsArticle),
	}
}

func (s *Store) allocID() int64 {
	s.nextID++
	return s.nextID
}

// CreateUser implements datastore.DataStore.
func (s *Store) CreateUser(ctx context.Context, username, passwordHash string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == username {
			return 0, datastore.ErrDuplicate
		}
	}
	id := s.allocID()
	s.users[id] = &datastore.User{
		ID:           id,
		Username:     username,
		PasswordHash: passwordHash,
	}
	return id, nil
}

// UserByName implements datastore.DataStore.
func (s *Store) UserByName(ctx context.Context, username string) (*datastore.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Username == username {
			user := *u
			return &user, nil
		}
	}
	return nil, datastore.ErrNotFound
}

// CreateFile implements datastore.DataStore.
func (s *Store) CreateFile(ctx context.Context, name, objectKey string, size int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.allocID()
	s.files[id] = &datastore.FileEntry{
		ID:        id,
		Name:      name,
		ObjectKey: objectKey,
		Size:      size,
	}
	return id, nil
}

// AddFileACL implements datastore.DataStore.
func (s *Store) AddFileACL(ctx context.Context, fileID, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.files[fileID]; !ok {
		return datastore.ErrNotFound
	}
	if s.acls[userID] == nil {
		s.acls[userID] = make(map[int64]struct{})
	}
	s.acls[userID][fileID] = struct{}{}
	return nil
}

// FilesForUser implements datastore.DataStore.
func (s *Store) FilesForUser(ctx context.Context, userID int64) ([]datastore.FileEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []datastore.FileEntry
	for fileID := range s.acls[userID] {
		if f, ok := s.files[fileID]; ok {
			out = append(out, *f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// CreateBundle implements datastore.DataStore.
func (s *Store) CreateBundle(ctx context.Context, parentBundleID *int64, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.allocID()
	s.bundles[id] = &datastore.NewsBundle{
		ID:             id,
		ParentBundleID: copyID(parentBundleID),
		Name:           name,
	}
	return id, nil
}

// CreateCategory implements datastore.DataStore.
func (s *Store) CreateCategory(ctx context.Context, bundleID *int64, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.allocID()
	s.categories[id] = &datastore.NewsCategory{
		ID:       id,
		BundleID: copyID(bundleID),
		Name:     name,
	}
	return id, nil
}

// resolveBundle walks the bundle tree along the given segments. The caller
// must hold the read lock.
func (s *Store) resolveBundle(segments []string) (*int64, bool) {
	var parent *int64
	for _, segment := range segments {
		found := false
		for _, b := range s.bundles {
			if b.Name == segment && sameParent(b.ParentBundleID, parent) {
				id := b.ID
				parent = &id
				found = true
				break
			}
		}
		if !found {
			return nil, false
		}
	}
	return parent, true
}

// NamesAtPath implements datastore.DataStore.
func (s *Store) NamesAtPath(ctx context.Context, segments []string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	parent, ok := s.resolveBundle(segments)
	if !ok {
		return nil, datastore.ErrPathNotFound
	}

	var names []string
	for _, b := range s.bundles {
		if sameParent(b.ParentBundleID, parent) {
			names = append(names, b.Name)
		}
	}
	for _, c := range s.categories {
		if sameParent(c.BundleID, parent) {
			names = append(names, c.Name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// ResolveCategory implements datastore.DataStore.
func (s *Store) ResolveCategory(ctx context.Context, segments []string) (int64, error) {
	if len(segments) == 0 {
		return 0, datastore.ErrPathNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	parent, ok := s.resolveBundle(segments[:len(segments)-1])
	if !ok {
		return 0, datastore.ErrPathNotFound
	}
	name := segments[len(segments)-1]
	for _, c := range s.categories {
		if c.Name == name && sameParent(c.BundleID, parent) {
			return c.ID, nil
		}
	}
	return 0, datastore.ErrPathNotFound
}

// CreateArticle implements datastore.DataStore.
func (s *Store) CreateArticle(ctx context.Context, article *datastore.NewsArticle) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[article.CategoryID]; !ok {
		return 0, datastore.ErrNotFound
	}
	id := s.allocID()
	stored := *article
	stored.ID = id
	if stored.PostedAt.IsZero() {
		stored.PostedAt = time.Now().UTC()
	}
	s.articles[id] = &stored
	return id, nil
}

// Article implements datastore.DataStore.
func (s *Store) Article(ctx context.Context, categoryID, articleID int64) (*datastore.NewsArticle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.articles[articleID]
	if !ok || a.CategoryID != categoryID {
		return nil, datastore.ErrNotFound
	}
	article := *a
	return &article, nil
}

// ArticleTitles implements datastore.DataStore.
func (s *Store) ArticleTitles(ctx context.Context, categoryID int64) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []int64
	for id, a := range s.articles {
		if a.CategoryID == categoryID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	titles := make([]string, 0, len(ids))
	for _, id := range ids {
		titles = append(titles, s.articles[id].Title)
	}
	return titles, nil
}

// Close implements datastore.DataStore.
func (s *Store) Close(ctx context.Context) error {
	return nil
}

func copyID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func sameParent(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
