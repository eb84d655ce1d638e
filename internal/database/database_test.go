package database_test

import (
	"context"
	"testing"

	"github.com/lingxijiao/backend/internal/database"
	"github.com/lingxijiao/backend/internal/database/dbtest"
	"github.com/lingxijiao/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateCreatesIndexes(t *testing.T) {
	db := dbtest.New(t)
	m := db.Migrator()

	assert.True(t, m.HasIndex(&models.User{}, "Email"))
	assert.True(t, m.HasIndex(&models.PostNarration{}, "idx_post_narrations_post_position"))
	assert.False(t, m.HasIndex(&models.User{}, "idx_users_email_lower"))

	// migrating twice is harmless
	require.NoError(t, database.Migrate(db))
}

func TestResetEmptiesTables(t *testing.T) {
	db := dbtest.New(t)
	require.NoError(t, db.Create(&models.User{Email: "a@x.com", Gender: models.GenderMale, BirthYear: 1990}).Error)

	require.NoError(t, database.Reset(db))

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.NoError(t, database.Health(context.Background(), db))
}
