package storage_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coi-explorer/models"
	"coi-explorer/storage"
	"coi-explorer/storage/storagetest"
)

func TestMigrateCreatesAllTables(t *testing.T) {
	db := storagetest.NewDB(t)

	for _, table := range storage.Tables {
		assert.True(t, db.Migrator().HasTable(table), table)
	}

	counts, err := storage.TableCounts(db)
	require.NoError(t, err)
	assert.Len(t, counts, len(storage.Tables))
	for table, n := range counts {
		assert.Zero(t, n, table)
	}
}

func TestPaperDOIIsUnique(t *testing.T) {
	db := storagetest.NewDB(t)

	require.NoError(t, db.Create(&models.Paper{DOI: "10.1/x"}).Error)
	assert.Error(t, db.Create(&models.Paper{DOI: "10.1/x"}).Error)
}

func TestAuthorFundingCompositeKey(t *testing.T) {
	db := storagetest.NewDB(t)

	author := models.Author{Name: "A"}
	funder := models.Funder{Name: "F"}
	paper := models.Paper{DOI: "10.1/y"}
	require.NoError(t, db.Create(&author).Error)
	require.NoError(t, db.Create(&funder).Error)
	require.NoError(t, db.Create(&paper).Error)

	link := models.AuthorFunding{AuthorID: author.ID, FunderID: funder.ID, PaperID: paper.ID}
	require.NoError(t, db.Create(&link).Error)
	assert.Error(t, db.Create(&models.AuthorFunding{AuthorID: author.ID, FunderID: funder.ID, PaperID: paper.ID}).Error)
}

func TestRotateKeepsNewest(t *testing.T) {
	ctx := context.Background()
	store := storagetest.NewMemoryStore()
	for i := 0; i < 5; i++ {
		_, err := store.Put(ctx, fmt.Sprintf("snapshots/%d.json", i), []byte("{}"))
		require.NoError(t, err)
	}
	_, err := store.Put(ctx, "other/keep.json", []byte("{}"))
	require.NoError(t, err)

	deleted, err := storage.Rotate(ctx, store, "snapshots/", 2)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"snapshots/0.json", "snapshots/1.json", "snapshots/2.json"}, deleted)
	assert.Equal(t, []string{"other/keep.json", "snapshots/3.json", "snapshots/4.json"}, store.Keys())
}

func TestRotateBelowLimitIsNoop(t *testing.T) {
	ctx := context.Background()
	store := storagetest.NewMemoryStore()
	_, err := store.Put(ctx, "snapshots/a.json", nil)
	require.NoError(t, err)

	deleted, err := storage.Rotate(ctx, store, "snapshots/", 3)
	require.NoError(t, err)
	assert.Empty(t, deleted)
	assert.Len(t, store.Keys(), 1)
}
