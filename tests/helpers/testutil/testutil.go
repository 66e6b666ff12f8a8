// Package testutil provides testing utilities and helpers for organizer tests.
package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/tidyfs/tidyfs/internal/fs"
	"github.com/tidyfs/tidyfs/internal/shared/types"
)

// MockProvider is a mock implementation of fs.Provider for testing.
type MockProvider struct {
	mock.Mock
}

// ListDirectory mocks the ListDirectory method.
func (m *MockProvider) ListDirectory(ctx context.Context, path string) ([]fs.Entry, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]fs.Entry), args.Error(1)
}

// Stat mocks the Stat method.
func (m *MockProvider) Stat(ctx context.Context, path string) (fs.FileInfo, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return fs.FileInfo{}, args.Error(1)
	}
	return args.Get(0).(fs.FileInfo), args.Error(1)
}

// Move mocks the Move method.
func (m *MockProvider) Move(ctx context.Context, source, destination string) error {
	args := m.Called(ctx, source, destination)
	return args.Error(0)
}

// CreateDirectory mocks the CreateDirectory method.
func (m *MockProvider) CreateDirectory(ctx context.Context, path string) error {
	args := m.Called(ctx, path)
	return args.Error(0)
}

// Search mocks the Search method.
func (m *MockProvider) Search(ctx context.Context, root, pattern string, excludeDirs []string) ([]string, error) {
	args := m.Called(ctx, root, pattern, excludeDirs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// ReadFile mocks the ReadFile method.
func (m *MockProvider) ReadFile(ctx context.Context, path string) ([]byte, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// AllowedRoots mocks the AllowedRoots method.
func (m *MockProvider) AllowedRoots(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// NewMockProvider creates a mock provider with permissive default behaviors.
// Tests that need strict expectations use new(MockProvider) directly.
func NewMockProvider(t *testing.T) *MockProvider {
	t.Helper()
	m := new(MockProvider)

	// Default behavior: empty tree, everything succeeds
	m.On("ListDirectory", mock.Anything, mock.Anything).
		Return([]fs.Entry{}, nil).
		Maybe()
	m.On("Stat", mock.Anything, mock.Anything).
		Return(fs.FileInfo{}, nil).
		Maybe()
	m.On("Move", mock.Anything, mock.Anything, mock.Anything).
		Return(nil).
		Maybe()
	m.On("CreateDirectory", mock.Anything, mock.Anything).
		Return(nil).
		Maybe()
	m.On("Search", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]string{}, nil).
		Maybe()
	m.On("ReadFile", mock.Anything, mock.Anything).
		Return([]byte{}, nil).
		Maybe()
	m.On("AllowedRoots", mock.Anything).
		Return([]string{"/"}, nil).
		Maybe()

	return m
}

// MockServiceProvider is a mock implementation of service.Provider for testing.
type MockServiceProvider struct {
	mock.Mock
}

// Definition mocks the Definition method.
func (m *MockServiceProvider) Definition() types.Service {
	args := m.Called()
	return args.Get(0).(types.Service)
}

// Execute mocks the Execute method.
func (m *MockServiceProvider) Execute(ctx context.Context, toolID string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	args := m.Called(ctx, toolID, params, appCtx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Result), args.Error(1)
}

// NewMockServiceProvider creates a mock service provider with default behaviors.
func NewMockServiceProvider(t *testing.T, serviceID string) *MockServiceProvider {
	t.Helper()
	m := new(MockServiceProvider)

	// Default behavior: minimal definition, every call succeeds
	m.On("Definition").Return(types.Service{
		ID:          serviceID,
		Name:        "Mock Service",
		Description: "Mock service for testing",
		Category:    types.CategoryOrganization,
		Tools:       []types.Tool{},
	}).Maybe()

	m.On("Execute", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&types.Result{Success: true, Data: map[string]interface{}{}}, nil).
		Maybe()

	return m
}

// CreateTestService creates a test service definition.
func CreateTestService(t *testing.T, id string, category types.Category) types.Service {
	t.Helper()

	return types.Service{
		ID:           id,
		Name:         "Test Service",
		Description:  "A test service for unit testing",
		Category:     category,
		Capabilities: []string{"test"},
		Tools: []types.Tool{
			{
				ID:          id + ".test",
				Name:        "test",
				Description: "Test tool",
				Parameters:  []types.Parameter{},
				Returns:     "object",
			},
		},
	}
}

// AssertSuccess is a helper to assert a successful result.
func AssertSuccess(t *testing.T, result *types.Result) {
	t.Helper()
	if result == nil {
		t.Fatal("Result is nil")
	}
	if !result.Success {
		msg := ""
		if result.Error != nil {
			msg = *result.Error
		}
		t.Fatalf("Expected success, got error: %s", msg)
	}
}

// AssertError is a helper to assert an error result.
func AssertError(t *testing.T, result *types.Result) {
	t.Helper()
	if result == nil {
		t.Fatal("Result is nil")
	}
	if result.Success {
		t.Fatal("Expected error, got success")
	}
	if result.Error == nil {
		t.Fatal("Expected error message, got nil")
	}
}

// AssertDataField is a helper to assert a data field exists and matches expected value.
func AssertDataField(t *testing.T, result *types.Result, field string, expected interface{}) {
	t.Helper()
	AssertSuccess(t, result)

	if result.Data == nil {
		t.Fatal("Result data is nil")
	}

	actual, ok := result.Data[field]
	if !ok {
		t.Fatalf("Field %s not found in result data", field)
	}

	if actual != expected {
		t.Fatalf("Field %s: expected %v, got %v", field, expected, actual)
	}
}
