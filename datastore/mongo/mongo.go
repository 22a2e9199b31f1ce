// Package mongo provides the MongoDB-backed DataStore used by production
// deployments.
package mongo // import "github.com/mxd-net/mxd-core/datastore/mongo"

import (
	"context"
	"net/url"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mxd-net/mxd-core/common/errors"
	"github.com/mxd-net/mxd-core/datastore"
)

const defaultDatabase = "mxd"

// Store is a datastore.DataStore backed by MongoDB.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

type userDoc struct {
	ID           int64  `bson:"_id"`
	Username     string `bson:"username"`
	PasswordHash string `bson:"password_hash"`
}

type fileDoc struct {
	ID        int64  `bson:"_id"`
	Name      string `bson:"name"`
	ObjectKey string `bson:"object_key"`
	Size      int64  `bson:"size"`
}

type fileACLDoc struct {
	FileID int64 `bson:"file_id"`
	UserID int64 `bson:"user_id"`
}

type bundleDoc struct {
	ID             int64  `bson:"_id"`
	ParentBundleID *int64 `bson:"parent_bundle_id"`
	Name           string `bson:"name"`
}

type categoryDoc struct {
	ID       int64  `bson:"_id"`
	BundleID *int64 `bson:"bundle_id"`
	Name     string `bson:"name"`
}

type articleDoc struct {
	ID         int64     `bson:"_id"`
	CategoryID int64     `bson:"category_id"`
	Title      string    `bson:"title"`
	Poster     string    `bson:"poster"`
	PostedAt   time.Time `bson:"posted_at"`
	Flags      int32     `bson:"flags"`
	DataFlavor string    `bson:"data_flavor"`
	Data       string    `bson:"data"`
}

// Open connects to the MongoDB deployment named by the connection string and
// returns a store over its database.
func Open(ctx context.Context, uri string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.New("failed to connect to ", uri).Base(err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, errors.New("failed to ping ", uri).Base(err)
	}

	db := client.Database(databaseName(uri))

	s := &Store{client: client, db: db}
	if err := s.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// databaseName extracts the database from the connection string path,
// defaulting when none is given.
func databaseName(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return defaultDatabase
	}
	name := strings.TrimPrefix(u.Path, "/")
	if name == "" {
		return defaultDatabase
	}
	return name
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.db.Collection("users").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return errors.New("failed to create user index").Base(err)
	}
	_, err = s.db.Collection("file_acls").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "file_id", Value: 1}},
	})
	if err != nil {
		return errors.New("failed to create acl index").Base(err)
	}
	return nil
}

// nextID allocates a monotonically increasing id from the counters collection.
func (s *Store) nextID(ctx context.Context, sequence string) (int64, error) {
	var doc struct {
		Value int64 `bson:"value"`
	}
	err := s.db.Collection("counters").FindOneAndUpdate(ctx,
		bson.M{"_id": sequence},
		bson.M{"$inc": bson.M{"value": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return 0, errors.New("failed to allocate id for ", sequence).Base(err)
	}
	return doc.Value, nil
}

// CreateUser implements datastore.DataStore.
func (s *Store) CreateUser(ctx context.Context, username, passwordHash string) (int64, error) {
	id, err := s.nextID(ctx, "users")
	if err != nil {
		return 0, err
	}
	_, err = s.db.Collection("users").InsertOne(ctx, userDoc{
		ID:           id,
		Username:     username,
		PasswordHash: passwordHash,
	})
	if mongo.IsDuplicateKeyError(err) {
		return 0, datastore.ErrDuplicate
	}
	if err != nil {
		return 0, errors.New("failed to insert user").Base(err)
	}
	return id, nil
}

// UserByName implements datastore.DataStore.
func (s *Store) UserByName(ctx context.Context, username string) (*datastore.User, error) {
	var doc userDoc
	err := s.db.Collection("users").FindOne(ctx, bson.M{"username": username}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, datastore.ErrNotFound
	}
	if err != nil {
		return nil, errors.New("failed to look up user").Base(err)
	}
	return &datastore.User{
		ID:           doc.ID,
		Username:     doc.Username,
		PasswordHash: doc.PasswordHash,
	}, nil
}

// CreateFile implements datastore.DataStore.
func (s *Store) CreateFile(ctx context.Context, name, objectKey string, size int64) (int64, error) {
	id, err := s.nextID(ctx, "files")
	if err != nil {
		return 0, err
	}
	_, err = s.db.Collection("files").InsertOne(ctx, fileDoc{
		ID:        id,
		Name:      name,
		ObjectKey: objectKey,
		Size:      size,
	})
	if err != nil {
		return 0, errors.New("failed to insert file").Base(err)
	}
	return id, nil
}

// AddFileACL implements datastore.DataStore.
func (s *Store) AddFileACL(ctx context.Context, fileID, userID int64) error {
	count, err := s.db.Collection("files").CountDocuments(ctx, bson.M{"_id": fileID})
	if err != nil {
		return errors.New("failed to check file").Base(err)
	}
	if count == 0 {
		return datastore.ErrNotFound
	}
	_, err = s.db.Collection("file_acls").InsertOne(ctx, fileACLDoc{
		FileID: fileID,
		UserID: userID,
	})
	if err != nil {
		return errors.New("failed to insert acl").Base(err)
	}
	return nil
}

// FilesForUser implements datastore.DataStore.
func (s *Store) FilesForUser(ctx context.Context, userID int64) ([]datastore.FileEntry, error) {
	cursor, err := s.db.Collection("file_acls").Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, errors.New("failed to list acls").Base(err)
	}
	var acls []fileACLDoc
	if err := cursor.All(ctx, &acls); err != nil {
		return nil, errors.New("failed to decode acls").Base(err)
	}
	if len(acls) == 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(acls))
	for _, acl := range acls {
		ids = append(ids, acl.FileID)
	}
	cursor, err = s.db.Collection("files").Find(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}),
	)
	if err != nil {
		return nil, errors.New("failed to list files").Base(err)
	}
	var docs []fileDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, errors.New("failed to decode files").Base(err)
	}

	out := make([]datastore.FileEntry, 0, len(docs))
	for _, doc := range docs {
		out = append(out, datastore.FileEntry{
			ID:        doc.ID,
			Name:      doc.Name,
			ObjectKey: doc.ObjectKey,
			Size:      doc.Size,
		})
	}
	return out, nil
}

// CreateBundle implements datastore.DataStore.
func (s *Store) CreateBundle(ctx context.Context, parentBundleID *int64, name string) (int64, error) {
	id, err := s.nextID(ctx, "news")
	if err != nil {
		return 0, err
	}
	_, err = s.db.Collection("news_bundles").InsertOne(ctx, bundleDoc{
		ID:             id,
		ParentBundleID: parentBundleID,
		Name:           name,
	})
	if err != nil {
		return 0, errors.New("failed to insert bundle").Base(err)
	}
	return id, nil
}

// CreateCategory implements datastore.DataStore.
func (s *Store) CreateCategory(ctx context.Context, bundleID *int64, name string) (int64, error) {
	id, err := s.nextID(ctx, "news")
	if err != nil {
		return 0, err
	}
	_, err = s.db.Collection("news_categories").InsertOne(ctx, categoryDoc{
		ID:       id,
		BundleID: bundleID,
		Name:     name,
	})
	if err != nil {
		return 0, errors.New("failed to insert category").Base(err)
	}
	return id, nil
}

func parentFilter(field string, parent *int64) bson.M {
	if parent == nil {
		return bson.M{field: nil}
	}
	return bson.M{field: *parent}
}

// resolveBundle walks the bundle tree along the given segments.
func (s *Store) resolveBundle(ctx context.Context, segments []string) (*int64, error) {
	var parent *int64
	for _, segment := range segments {
		filter := parentFilter("parent_bundle_id", parent)
		filter["name"] = segment

		var doc bundleDoc
		err := s.db.Collection("news_bundles").FindOne(ctx, filter).Decode(&doc)
		if err == mongo.ErrNoDocuments {
			return nil, datastore.ErrPathNotFound
		}
		if err != nil {
			return nil, errors.New("failed to walk news path").Base(err)
		}
		id := doc.ID
		parent = &id
	}
	return parent, nil
}

// NamesAtPath implements datastore.DataStore.
func (s *Store) NamesAtPath(ctx context.Context, segments []string) ([]string, error) {
	parent, err := s.resolveBundle(ctx, segments)
	if err != nil {
		return nil, err
	}

	var names []string
	cursor, err := s.db.Collection("news_bundles").Find(ctx,
		parentFilter("parent_bundle_id", parent))
	if err != nil {
		return nil, errors.New("failed to list bundles").Base(err)
	}
	var bundles []bundleDoc
	if err := cursor.All(ctx, &bundles); err != nil {
		return nil, errors.New("failed to decode bundles").Base(err)
	}
	for _, b := range bundles {
		names = append(names, b.Name)
	}

	cursor, err = s.db.Collection("news_categories").Find(ctx,
		parentFilter("bundle_id", parent))
	if err != nil {
		return nil, errors.New("failed to list categories").Base(err)
	}
	var categories []categoryDoc
	if err := cursor.All(ctx, &categories); err != nil {
		return nil, errors.New("failed to decode categories").Base(err)
	}
	for _, c := range categories {
		names = append(names, c.Name)
	}

	sort.Strings(names)
	return names, nil
}

// ResolveCategory implements datastore.DataStore.
func (s *Store) ResolveCategory(ctx context.Context, segments []string) (int64, error) {
	if len(segments) == 0 {
		return 0, datastore.ErrPathNotFound
	}
	parent, err := s.resolveBundle(ctx, segments[:len(segments)-1])
	if err != nil {
		return 0, err
	}

	filter := parentFilter("bundle_id", parent)
	filter["name"] = segments[len(segments)-1]

	var doc categoryDoc
	err = s.db.Collection("news_categories").FindOne(ctx, filter).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return 0, datastore.ErrPathNotFound
	}
	if err != nil {
		return 0, errors.New("failed to resolve category").Base(err)
	}
	return doc.ID, nil
}

// CreateArticle implements datastore.DataStore.
func (s *Store) CreateArticle(ctx context.Context, article *datastore.NewsArticle) (int64, error) {
	id, err := s.nextID(ctx, "articles")
	if err != nil {
		return 0, err
	}
	posted := article.PostedAt
	if posted.IsZero() {
		posted = time.Now().UTC()
	}
	_, err = s.db.Collection("news_articles").InsertOne(ctx, articleDoc{
		ID:         id,
		CategoryID: article.CategoryID,
		Title:      article.Title,
		Poster:     article.Poster,
		PostedAt:   posted,
		Flags:      article.Flags,
		DataFlavor: article.DataFlavor,
		Data:       article.Data,
	})
	if err != nil {
		return 0, errors.New("failed to insert article").Base(err)
	}
	return id, nil
}

// Article implements datastore.DataStore.
func (s *Store) Article(ctx context.Context, categoryID, articleID int64) (*datastore.NewsArticle, error) {
	var doc articleDoc
	err := s.db.Collection("news_articles").FindOne(ctx,
		bson.M{"_id": articleID, "category_id": categoryID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, datastore.ErrNotFound
	}
	if err != nil {
		return nil, errors.New("failed to fetch article").Base(err)
	}
	return &datastore.NewsArticle{
		ID:         doc.ID,
		CategoryID: doc.CategoryID,
		Title:      doc.Title,
		Poster:     doc.Poster,
		PostedAt:   doc.PostedAt,
		Flags:      doc.Flags,
		DataFlavor: doc.DataFlavor,
		Data:       doc.Data,
	}, nil
}

// ArticleTitles implements datastore.DataStore.
func (s *Store) ArticleTitles(ctx context.Context, categoryID int64) ([]string, error) {
	cursor, err := s.db.Collection("news_articles").Find(ctx,
		bson.M{"category_id": categoryID},
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}),
	)
	if err != nil {
		return nil, errors.New("failed to list articles").Base(err)
	}
	var docs []articleDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, errors.New("failed to decode articles").Base(err)
	}
	titles := make([]string, 0, len(docs))
	for _, doc := range docs {
		titles = append(titles, doc.Title)
	}
	return titles, nil
}

// Close implements datastore.DataStore.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
