// Package datastore defines the entity shapes and the storage interface the
// server core consumes. Implementations live in the subpackages.
package datastore // import "github.com/mxd-net/mxd-core/datastore"

import (
	"context"
	"strings"
	"time"

	"github.com/mxd-net/mxd-core/common/errors"
)

var (
	// ErrNotFound is returned when a looked-up entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrPathNotFound is returned when a news path does not resolve to a category.
	ErrPathNotFound = errors.New("news path not found")
	// ErrDuplicate is returned when a unique constraint would be violated.
	ErrDuplicate = errors.New("already exists")
)

// User is an account that can log in.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
}

// FileEntry is one stored file. ObjectKey addresses the backing object; the
// wire protocol only ever sees Name.
type FileEntry struct {
	ID        int64
	Name      string
	ObjectKey string
	Size      int64
}

// NewsBundle is an inner node of the news tree. Bundles nest through
// ParentBundleID; nil means top level.
type NewsBundle struct {
	ID             int64
	ParentBundleID *int64
	Name           string
}

// NewsCategory is a leaf of the news tree holding articles. BundleID nil
// means the category sits at the root.
type NewsCategory struct {
	ID       int64
	BundleID *int64
	Name     string
}

// NewsArticle is a posting inside a category.
type NewsArticle struct {
	ID         int64
	CategoryID int64
	Title      string
	Poster     string
	PostedAt   time.Time
	Flags      int32
	DataFlavor string
	Data       string
}

// DataStore is the storage backend of the server. Implementations are shared
// by all connection tasks and must synchronize internally.
type DataStore interface {
	// CreateUser stores a new user and returns its id.
	CreateUser(ctx context.Context, username, passwordHash string) (int64, error)
	// UserByName returns the user with the given name, or ErrNotFound.
	UserByName(ctx context.Context, username string) (*User, error)

	// CreateFile stores a new file entry and returns its id.
	CreateFile(ctx context.Context, name, objectKey string, size int64) (int64, error)
	// AddFileACL grants the user access to the file.
	AddFileACL(ctx context.Context, fileID, userID int64) error
	// FilesForUser lists the files the user may access, ordered by name ascending.
	FilesForUser(ctx context.Context, userID int64) ([]FileEntry, error)

	// CreateBundle stores a news bundle under the given parent and returns its id.
	CreateBundle(ctx context.Context, parentBundleID *int64, name string) (int64, error)
	// CreateCategory stores a news category under the given bundle and returns its id.
	CreateCategory(ctx context.Context, bundleID *int64, name string) (int64, error)
	// NamesAtPath lists the bundle and category names directly under the given
	// path, ordered by name ascending. An empty path lists the root level.
	NamesAtPath(ctx context.Context, segments []string) ([]string, error)
	// ResolveCategory resolves a news path to a category id, or ErrPathNotFound.
	ResolveCategory(ctx context.Context, segments []string) (int64, error)

	// CreateArticle stores an article and returns its id.
	CreateArticle(ctx context.Context, article *NewsArticle) (int64, error)
	// Article returns the article with the given id inside the category, or ErrNotFound.
	Article(ctx context.Context, categoryID, articleID int64) (*NewsArticle, error)
	// ArticleTitles lists article titles in the category, ordered by id ascending.
	ArticleTitles(ctx context.Context, categoryID int64) ([]string, error)

	// Close releases the backend.
	Close(ctx context.Context) error
}

// SplitPath splits a slash-separated news path into its segments, discarding
// leading and trailing empty parts. "/" and "" both yield no segments.
func SplitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}
