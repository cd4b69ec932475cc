package listing

import (
	"net/http/httptest"
	"testing"

	"catalog-manager/core/storage/mocks"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoader(t *testing.T) {
	mockClient := new(mocks.Client)
	logger := zap.NewNop()
	// Pass nil db for this test as we don't access it unless we use the service
	feature := NewFeature(nil, nil, mockClient, "test-bucket", "", logger)

	assert.Equal(t, "listing", feature.Name())
	assert.True(t, feature.IsEnabled())

	app := fiber.New()
	err := feature.Load(app)
	assert.NoError(t, err)
}

func TestLoader_WriteRoutesRequireApiKey(t *testing.T) {
	feature := NewFeature(nil, nil, nil, "test-bucket", "secret", zap.NewNop())

	app := fiber.New()
	require.NoError(t, feature.Load(app))

	// No key: rejected before any handler logic runs.
	req := httptest.NewRequest(fiber.MethodPost, "/catalog/import", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest(fiber.MethodDelete, "/catalog/products/RB-7883", nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	// The right key passes the guard; the empty body then fails validation.
	req = httptest.NewRequest(fiber.MethodPost, "/inventory/import", nil)
	req.Header.Set("X-Api-Key", "secret")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
