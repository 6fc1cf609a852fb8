package api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/MikeSquared-Agency/Qini/internal/store"
)

// MockStore implements store.Store for testing handler error paths.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) CreateJob(ctx context.Context, job *store.Job) error {
	args := m.Called(ctx, job)
	if args.Error(0) == nil {
		job.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockStore) GetJob(ctx context.Context, id uuid.UUID) (*store.Job, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Job), args.Error(1)
}

func (m *MockStore) ListJobs(ctx context.Context, filter store.JobFilter) ([]*store.Job, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*store.Job), args.Error(1)
}

func (m *MockStore) UpdateJob(ctx context.Context, job *store.Job) error { return nil }
func (m *MockStore) ClaimPendingJobs(ctx context.Context, limit int) ([]*store.Job, error) {
	return nil, nil
}
func (m *MockStore) GetRunningJobs(ctx context.Context) ([]*store.Job, error) { return nil, nil }
func (m *MockStore) GetStats(ctx context.Context) (*store.JobStats, error)   { return nil, nil }
func (m *MockStore) Close() error                                            { return nil }

// MockEvents implements events.Client for testing.
type MockEvents struct {
	mock.Mock
}

func (m *MockEvents) Publish(subject string, data interface{}) error {
	args := m.Called(subject, data)
	return args.Error(0)
}

func (m *MockEvents) Subscribe(subject string, handler func(string, []byte)) error {
	args := m.Called(subject, handler)
	return args.Error(0)
}

func (m *MockEvents) Close() {
	// No-op for mock
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCreateJobPublishesEvent(t *testing.T) {
	mockStore := &MockStore{}
	mockEvents := &MockEvents{}

	handler := NewJobsHandler(mockStore, mockEvents, 0, testLogger())

	mockStore.On("CreateJob", mock.Anything, mock.AnythingOfType("*store.Job")).Return(nil)
	mockEvents.On("Publish", mock.AnythingOfType("string"), mock.Anything).Return(nil)

	req, _ := http.NewRequest("POST", "/api/v1/jobs", bytes.NewBufferString(solveBody))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Client-ID", "test-client")

	rr := httptest.NewRecorder()
	handler.Create(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	mockStore.AssertExpectations(t)
	mockEvents.AssertExpectations(t)
}

func TestCreateJobPublishFailureStillCreates(t *testing.T) {
	mockStore := &MockStore{}
	mockEvents := &MockEvents{}

	handler := NewJobsHandler(mockStore, mockEvents, 0, testLogger())

	mockStore.On("CreateJob", mock.Anything, mock.AnythingOfType("*store.Job")).Return(nil)
	mockEvents.On("Publish", mock.AnythingOfType("string"), mock.Anything).Return(errors.New("broker down"))

	req, _ := http.NewRequest("POST", "/api/v1/jobs", bytes.NewBufferString(solveBody))
	req.Header.Set("X-Client-ID", "test-client")

	rr := httptest.NewRecorder()
	handler.Create(rr, req)

	// The job is persisted; a dead broker only costs the notification.
	assert.Equal(t, http.StatusCreated, rr.Code)
	mockStore.AssertExpectations(t)
	mockEvents.AssertExpectations(t)
}

func TestCreateJobStoreError(t *testing.T) {
	mockStore := &MockStore{}
	mockEvents := &MockEvents{}

	handler := NewJobsHandler(mockStore, mockEvents, 0, testLogger())

	mockStore.On("CreateJob", mock.Anything, mock.Anything).Return(errors.New("connection refused"))

	req, _ := http.NewRequest("POST", "/api/v1/jobs", bytes.NewBufferString(solveBody))
	req.Header.Set("X-Client-ID", "test-client")

	rr := httptest.NewRecorder()
	handler.Create(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	mockEvents.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestGetJobStoreError(t *testing.T) {
	mockStore := &MockStore{}

	handler := NewJobsHandler(mockStore, nil, 0, testLogger())

	jobID := uuid.New()
	mockStore.On("GetJob", mock.Anything, jobID).Return(nil, errors.New("connection refused"))

	req, _ := http.NewRequest("GET", "/api/v1/jobs/"+jobID.String(), nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", jobID.String())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	rr := httptest.NewRecorder()
	handler.Get(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	mockStore.AssertExpectations(t)
}

func TestListJobsForwardsFilter(t *testing.T) {
	mockStore := &MockStore{}

	handler := NewJobsHandler(mockStore, nil, 0, testLogger())

	pending := store.StatusPending
	mockStore.On("ListJobs", mock.Anything, store.JobFilter{Status: &pending, SubmittedBy: "trial-7"}).
		Return([]*store.Job{}, nil)

	req, _ := http.NewRequest("GET", "/api/v1/jobs?status=pending&submitted_by=trial-7", nil)

	rr := httptest.NewRecorder()
	handler.List(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	mockStore.AssertExpectations(t)
}
