package validation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestValidateServices(t *testing.T) {
	checks := map[string]Check{
		ServiceDatabase:      func(ctx context.Context) error { return nil },
		ServiceElasticsearch: func(ctx context.Context) error { return errors.New("connection refused") },
	}

	sv := NewServiceValidator([]string{ServiceDatabase}, checks, zap.NewNop())
	require.NoError(t, sv.ValidateServices(context.Background()))

	sv = NewServiceValidator(RequiredServices(true, false), checks, zap.NewNop())
	err := sv.ValidateServices(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "elasticsearch")

	sv = NewServiceValidator(RequiredServices(false, true), checks, zap.NewNop())
	err = sv.ValidateServices(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

func TestReport(t *testing.T) {
	checks := map[string]Check{
		ServiceDatabase: func(ctx context.Context) error { return nil },
		ServiceRedis:    func(ctx context.Context) error { return errors.New("down") },
	}
	results := NewServiceValidator(nil, checks, zap.NewNop()).Report(context.Background())
	assert.NoError(t, results[ServiceDatabase])
	assert.EqualError(t, results[ServiceRedis], "down")
}
