package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/campus-clinic-api/pkg/errors"
)

func TestCacheRepositoryWithoutClientIsEmpty(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "dashboard:staff:all", map[string]int{"low_stock": 2}, time.Minute))
	var out map[string]int
	assert.ErrorIs(t, repo.Get(ctx, "dashboard:staff:all", &out), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.DeleteByPattern(ctx, "dashboard:*"))
	assert.NoError(t, repo.Ping(ctx))
	assert.Equal(t, "clinic:dashboard:staff:all", repo.key("dashboard:staff:all"))
}
