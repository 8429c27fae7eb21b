package mocks

import (
	"context"

	"github.com/bnema/reaction-test-cli/internal/domain"
	mock "github.com/stretchr/testify/mock"
)

type MockSessionRepository struct {
	mock.Mock
}

type MockSessionRepository_Expecter struct {
	mock *mock.Mock
}

func (_m *MockSessionRepository) EXPECT() *MockSessionRepository_Expecter {
	return &MockSessionRepository_Expecter{mock: &_m.Mock}
}

func (_m *MockSessionRepository) LoadAll(ctx context.Context) ([]domain.Session, error) {
	ret := _m.Called(ctx)

	if rf, ok := ret.Get(0).(func(context.Context) ([]domain.Session, error)); ok {
		return rf(ctx)
	}

	var r0 []domain.Session
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]domain.Session)
	}

	return r0, ret.Error(1)
}

type MockSessionRepository_LoadAll_Call struct {
	*mock.Call
}

func (_e *MockSessionRepository_Expecter) LoadAll(ctx interface{}) *MockSessionRepository_LoadAll_Call {
	return &MockSessionRepository_LoadAll_Call{Call: _e.mock.On("LoadAll", ctx)}
}

func (_c *MockSessionRepository_LoadAll_Call) Return(sessions []domain.Session, err error) *MockSessionRepository_LoadAll_Call {
	_c.Call.Return(sessions, err)
	return _c
}

func (_c *MockSessionRepository_LoadAll_Call) RunAndReturn(run func(context.Context) ([]domain.Session, error)) *MockSessionRepository_LoadAll_Call {
	_c.Call.Return(run)
	return _c
}

func (_m *MockSessionRepository) SaveAll(ctx context.Context, sessions []domain.Session) error {
	ret := _m.Called(ctx, sessions)

	if rf, ok := ret.Get(0).(func(context.Context, []domain.Session) error); ok {
		return rf(ctx, sessions)
	}

	return ret.Error(0)
}

type MockSessionRepository_SaveAll_Call struct {
	*mock.Call
}

func (_e *MockSessionRepository_Expecter) SaveAll(ctx interface{}, sessions interface{}) *MockSessionRepository_SaveAll_Call {
	return &MockSessionRepository_SaveAll_Call{Call: _e.mock.On("SaveAll", ctx, sessions)}
}

func (_c *MockSessionRepository_SaveAll_Call) Run(run func(ctx context.Context, sessions []domain.Session)) *MockSessionRepository_SaveAll_Call {
	_c.Call.Run(func(args mock.Arguments) {
		run(args[0].(context.Context), args[1].([]domain.Session))
	})
	return _c
}

func (_c *MockSessionRepository_SaveAll_Call) Return(err error) *MockSessionRepository_SaveAll_Call {
	_c.Call.Return(err)
	return _c
}

func (_c *MockSessionRepository_SaveAll_Call) RunAndReturn(run func(context.Context, []domain.Session) error) *MockSessionRepository_SaveAll_Call {
	_c.Call.Return(run)
	return _c
}

func NewMockSessionRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockSessionRepository {
	m := &MockSessionRepository{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
