package generation

import (
	"context"
	"errors"
	"testing"

	"catalog-manager/core/cache"
	"catalog-manager/core/cache/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestCurrent_LazyInit(t *testing.T) {
	backend := new(mocks.Backend)
	backend.On("Get", mock.Anything, Key).Return("", cache.ErrMiss).Once()
	backend.On("SetNX", mock.Anything, Key, "1", mock.Anything).Return(true, nil).Once()
	backend.On("Get", mock.Anything, Key).Return("1", nil).Once()

	gen := Current(context.Background(), backend)
	assert.Equal(t, int64(1), gen)
	backend.AssertExpectations(t)
}

func TestCurrent_Existing(t *testing.T) {
	backend := new(mocks.Backend)
	backend.On("Get", mock.Anything, Key).Return("42", nil)

	assert.Equal(t, int64(42), Current(context.Background(), backend))
}

func TestCurrent_DegradesOnError(t *testing.T) {
	backend := new(mocks.Backend)
	backend.On("Get", mock.Anything, Key).Return("", errors.New("connection refused"))

	assert.Equal(t, int64(1), Current(context.Background(), backend))
}

func TestCurrent_NilBackend(t *testing.T) {
	assert.Equal(t, int64(1), Current(context.Background(), nil))
}

func TestBump(t *testing.T) {
	backend := new(mocks.Backend)
	backend.On("Incr", mock.Anything, Key).Return(int64(7), nil)

	gen, err := Bump(context.Background(), backend)
	assert.NoError(t, err)
	assert.Equal(t, int64(7), gen)
}
