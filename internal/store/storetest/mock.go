// ABOUTME: testify mock of store.Backend for failure-path tests.
// ABOUTME: Lets callers script engine errors without a real database.

package storetest

import (
	"context"

	"github.com/harper/diary/internal/store"
	"github.com/stretchr/testify/mock"
)

type MockBackend struct {
	mock.Mock
}

var _ store.Backend = (*MockBackend)(nil)

func (m *MockBackend) Put(ctx context.Context, c store.Collection, rec store.Record) error {
	args := m.Called(ctx, c, rec)
	return args.Error(0)
}

func (m *MockBackend) Get(ctx context.Context, c store.Collection, key string) (store.Record, error) {
	args := m.Called(ctx, c, key)
	rec, _ := args.Get(0).(store.Record)
	return rec, args.Error(1)
}

func (m *MockBackend) GetAll(ctx context.Context, c store.Collection) ([]store.Record, error) {
	args := m.Called(ctx, c)
	recs, _ := args.Get(0).([]store.Record)
	return recs, args.Error(1)
}

func (m *MockBackend) Delete(ctx context.Context, c store.Collection, key string) error {
	args := m.Called(ctx, c, key)
	return args.Error(0)
}

func (m *MockBackend) Clear(ctx context.Context, c store.Collection) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockBackend) Count(ctx context.Context, c store.Collection) (int, error) {
	args := m.Called(ctx, c)
	return args.Int(0), args.Error(1)
}

func (m *MockBackend) Apply(ctx context.Context, b *store.Batch) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *MockBackend) Engine() string {
	return "mock"
}

func (m *MockBackend) Close() error {
	return nil
}
