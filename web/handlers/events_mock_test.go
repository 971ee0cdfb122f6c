package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/scrypster/almanac/internal/services"
	"github.com/scrypster/almanac/internal/storage"
	"github.com/scrypster/almanac/pkg/types"
)

// MockEventStore is a mock implementation of storage.EventStore for testing
// failure paths the real backends cannot produce on demand.
type MockEventStore struct {
	mock.Mock
}

func (m *MockEventStore) Create(ctx context.Context, event *types.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventStore) GetByID(ctx context.Context, id int64) (*types.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Event), args.Error(1)
}

func (m *MockEventStore) GetByClientReference(ctx context.Context, ref string) (*types.Event, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Event), args.Error(1)
}

func (m *MockEventStore) UpsertByClientReference(ctx context.Context, event *types.Event) (*types.Event, error) {
	args := m.Called(ctx, event)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Event), args.Error(1)
}

func (m *MockEventStore) Update(ctx context.Context, event *types.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventStore) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockEventStore) DeleteByClientReference(ctx context.Context, ref string) error {
	args := m.Called(ctx, ref)
	return args.Error(0)
}

func (m *MockEventStore) List(ctx context.Context, opts storage.ListOptions) ([]*types.Event, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*types.Event), args.Error(1)
}

func (m *MockEventStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

func mockedHandlers(store *MockEventStore) (*EventHandlers, *http.ServeMux) {
	h := NewEventHandlers(services.NewCalendarService(store), nil)
	return h, newEventMux(h)
}

func TestCreateEventStoreFailure(t *testing.T) {
	store := new(MockEventStore)
	store.On("Create", mock.Anything, mock.AnythingOfType("*types.Event")).Return(errors.New("disk full"))
	_, mux := mockedHandlers(store)

	start := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Second)
	rec := doJSON(t, mux, http.MethodPost, "/api/events", createPayload(start, start.Add(time.Hour)))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	store.AssertExpectations(t)
}

func TestCreateEventDuplicateReference(t *testing.T) {
	store := new(MockEventStore)
	store.On("Create", mock.Anything, mock.AnythingOfType("*types.Event")).Return(storage.ErrDuplicateReference)
	_, mux := mockedHandlers(store)

	start := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Second)
	rec := doJSON(t, mux, http.MethodPost, "/api/events", createPayload(start, start.Add(time.Hour)))

	assert.Equal(t, http.StatusConflict, rec.Code)
	store.AssertExpectations(t)
}

func TestListEventsStoreFailure(t *testing.T) {
	store := new(MockEventStore)
	store.On("List", mock.Anything, mock.Anything).Return(nil, errors.New("connection reset"))
	_, mux := mockedHandlers(store)

	rec := doJSON(t, mux, http.MethodGet, "/api/events", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	store.AssertExpectations(t)
}

func TestGetEventMapsStoreNotFound(t *testing.T) {
	store := new(MockEventStore)
	store.On("GetByID", mock.Anything, int64(7)).Return(nil, storage.ErrNotFound)
	_, mux := mockedHandlers(store)

	rec := doJSON(t, mux, http.MethodGet, "/api/events/7", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "event with ID 7 was not found")
	store.AssertExpectations(t)
}
