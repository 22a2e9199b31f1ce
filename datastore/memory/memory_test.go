package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mxd-net/mxd-core/datastore"
	"github.com/mxd-net/mxd-core/datastore/memory"
)

func TestFilesForUserFollowsACL(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	uid, err := store.CreateUser(ctx, "alice", "hash")
	require.NoError(t, err)

	var fileIDs []int64
	for _, name := range []string{"fileA.txt", "fileB.txt", "fileC.txt"} {
		id, err := store.CreateFile(ctx, name, name, 1)
		require.NoError(t, err)
		fileIDs = append(fileIDs, id)
	}
	require.NoError(t, store.AddFileACL(ctx, fileIDs[0], uid))
	require.NoError(t, store.AddFileACL(ctx, fileIDs[2], uid))

	files, err := store.FilesForUser(ctx, uid)
	require.NoError(t, err)

	var names []string
	for _, f := range files {
		names = append(names, f.Name)
	}
	require.Equal(t, []string{"fileA.txt", "fileC.txt"}, names)
}

func TestDuplicateUserRejected(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	_, err := store.CreateUser(ctx, "alice", "hash")
	require.NoError(t, err)
	_, err = store.CreateUser(ctx, "alice", "other")
	require.Equal(t, datastore.ErrDuplicate, err)
}

func TestNamesAtRootListsBundlesAndCategories(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	_, err := store.CreateBundle(ctx, nil, "Bundle")
	require.NoError(t, err)
	_, err = store.CreateCategory(ctx, nil, "General")
	require.NoError(t, err)
	_, err = store.CreateCategory(ctx, nil, "Updates")
	require.NoError(t, err)

	names, err := store.NamesAtPath(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"Bundle", "General", "Updates"}, names)
}

func TestNestedPathResolution(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	rootID, err := store.CreateBundle(ctx, nil, "Bundle")
	require.NoError(t, err)
	subID, err := store.CreateBundle(ctx, &rootID, "Sub")
	require.NoError(t, err)
	catID, err := store.CreateCategory(ctx, &subID, "Inside")
	require.NoError(t, err)

	resolved, err := store.ResolveCategory(ctx, []string{"Bundle", "Sub", "Inside"})
	require.NoError(t, err)
	require.Equal(t, catID, resolved)

	names, err := store.NamesAtPath(ctx, []string{"Bundle", "Sub"})
	require.NoError(t, err)
	require.Equal(t, []string{"Inside"}, names)

	_, err = store.ResolveCategory(ctx, []string{"Bundle", "Missing", "Inside"})
	require.Equal(t, datastore.ErrPathNotFound, err)
	_, err = store.ResolveCategory(ctx, []string{"Missing"})
	require.Equal(t, datastore.ErrPathNotFound, err)
	_, err = store.ResolveCategory(ctx, nil)
	require.Equal(t, datastore.ErrPathNotFound, err)
}

func TestArticleOrderingAndLookup(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	catID, err := store.CreateCategory(ctx, nil, "General")
	require.NoError(t, err)

	firstID, err := store.CreateArticle(ctx, &datastore.NewsArticle{
		CategoryID: catID,
		Title:      "First",
		DataFlavor: "text/plain",
		Data:       "a",
	})
	require.NoError(t, err)
	_, err = store.CreateArticle(ctx, &datastore.NewsArticle{
		CategoryID: catID,
		Title:      "Second",
		DataFlavor: "text/plain",
		Data:       "b",
	})
	require.NoError(t, err)

	titles, err := store.ArticleTitles(ctx, catID)
	require.NoError(t, err)
	require.Equal(t, []string{"First", "Second"}, titles)

	article, err := store.Article(ctx, catID, firstID)
	require.NoError(t, err)
	require.Equal(t, "First", article.Title)
	require.Equal(t, "a", article.Data)

	_, err = store.Article(ctx, catID, 9999)
	require.Equal(t, datastore.ErrNotFound, err)
	_, err = store.Article(ctx, catID+100, firstID)
	require.Equal(t, datastore.ErrNotFound, err)
}

func TestSplitPath(t *testing.T) {
	require.Nil(t, datastore.SplitPath(""))
	require.Nil(t, datastore.SplitPath("/"))
	require.Equal(t, []string{"A"}, datastore.SplitPath("A"))
	require.Equal(t, []string{"A", "B", "C"}, datastore.SplitPath("/A/B/C/"))
}
