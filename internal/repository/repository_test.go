package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type capturedSQL struct {
	mu   sync.Mutex
	sqls []string
}

func (c *capturedSQL) add(tx *gorm.DB) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sqls = append(c.sqls, tx.Statement.SQL.String())
}

func (c *capturedSQL) all() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.sqls...)
}

// newDryRunDB builds statements for the postgres dialect without a server.
func newDryRunDB(t *testing.T) (*gorm.DB, *capturedSQL) {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=imt password=imt dbname=imt sslmode=disable",
	}), &gorm.Config{
		DryRun:                 true,
		DisableAutomaticPing:   true,
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Discard,
	})
	require.NoError(t, err)

	captured := &capturedSQL{}
	require.NoError(t, db.Callback().Query().After("gorm:query").Register("test:capture_query", captured.add))
	require.NoError(t, db.Callback().Create().After("gorm:create").Register("test:capture_create", captured.add))
	require.NoError(t, db.Callback().Update().After("gorm:update").Register("test:capture_update", captured.add))
	return db, captured
}

func TestImageRepository_SearchFirstPageSQL(t *testing.T) {
	db, captured := newDryRunDB(t)
	repo := NewImageRepository(db)

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	_, err := repo.Search(context.Background(), SearchQuery{Tags: []string{"cat", "dog"}, From: from, To: to, Limit: 6})
	require.NoError(t, err)

	sqls := captured.all()
	require.Len(t, sqls, 1)
	sql := sqls[0]
	assert.Contains(t, sql, "JOIN tags ON tags.id = tagged.tag_id")
	assert.Contains(t, sql, "tags.name IN ($1,$2)")
	assert.Contains(t, sql, "tagged.created_at BETWEEN $3 AND $4")
	assert.Contains(t, sql, "GROUP BY tagged.image_id, tagged.created_at")
	assert.Contains(t, sql, "ORDER BY tagged.created_at DESC, tagged.image_id DESC")
	assert.Contains(t, sql, "LIMIT")
	assert.NotContains(t, sql, "tagged.image_id <")
}

func TestImageRepository_SearchContinuationSQL(t *testing.T) {
	db, captured := newDryRunDB(t)
	repo := NewImageRepository(db)

	_, err := repo.Search(context.Background(), SearchQuery{
		Tags:  []string{"cat"},
		From:  time.Unix(0, 0),
		To:    time.Now(),
		After: &PageKey{CreatedAt: time.Now(), ImageID: uuid.New()},
		Limit: 6,
	})
	require.NoError(t, err)

	sqls := captured.all()
	require.Len(t, sqls, 1)
	assert.Contains(t, sqls[0], "(tagged.created_at < $4 OR (tagged.created_at = $5 AND tagged.image_id < $6))")
}

func TestImageRepository_SearchWithoutTagsSkipsQuery(t *testing.T) {
	db, captured := newDryRunDB(t)
	repo := NewImageRepository(db)

	images, err := repo.Search(context.Background(), SearchQuery{Limit: 5})
	require.NoError(t, err)
	assert.Empty(t, images)
	assert.Empty(t, captured.all())
}

func TestUserRepository_RegisterUsesConflictClause(t *testing.T) {
	db, captured := newDryRunDB(t)
	repo := NewUserRepository(db)

	// Dry runs affect no rows, which reads as an existing email.
	_, _ = repo.RegisterWithPassword(context.Background(), "a@example.com", "hash")

	sqls := captured.all()
	require.NotEmpty(t, sqls)
	assert.Contains(t, sqls[0], `INSERT INTO "users"`)
	assert.Contains(t, sqls[0], `ON CONFLICT ("email") DO NOTHING`)
}

func TestUserRepository_UpsertSocialUpdatesTokenColumns(t *testing.T) {
	db, captured := newDryRunDB(t)
	repo := NewUserRepository(db)

	_, _ = repo.UpsertSocialUser(context.Background(), "g@example.com", "tok", time.Now().Add(time.Hour), "google")

	sqls := captured.all()
	require.NotEmpty(t, sqls)
	assert.Contains(t, sqls[0], `ON CONFLICT ("email") DO UPDATE SET`)
	assert.Contains(t, sqls[0], `"social_token"="excluded"."social_token"`)
	assert.Contains(t, sqls[0], `"provider"="excluded"."provider"`)
	assert.Contains(t, sqls[0], `"password_hash"=NULL`)
	assert.NotContains(t, sqls[0], `"id"="excluded"."id"`)
}

func TestTagRepository_UpsertIgnoresExisting(t *testing.T) {
	db, captured := newDryRunDB(t)
	repo := NewTagRepository(db)

	_, err := repo.Upsert(context.Background(), []string{"cat", "dog"})
	require.NoError(t, err)

	sqls := captured.all()
	require.Len(t, sqls, 2)
	assert.Contains(t, sqls[0], `ON CONFLICT ("name") DO NOTHING`)
	assert.Contains(t, sqls[1], "name IN ($1,$2)")
}
