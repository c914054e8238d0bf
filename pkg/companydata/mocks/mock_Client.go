// Package mocks provides test doubles for the companydata client.
package mocks

import (
	"context"

	companydata "github.com/sells-group/leadscore-cli/pkg/companydata"
	mock "github.com/stretchr/testify/mock"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// Lookup provides a mock function with given fields: ctx, q
func (_m *MockClient) Lookup(ctx context.Context, q companydata.Query) (*companydata.Company, error) {
	ret := _m.Called(ctx, q)

	if len(ret) == 0 {
		panic("no return value specified for Lookup")
	}

	var r0 *companydata.Company
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, companydata.Query) (*companydata.Company, error)); ok {
		return rf(ctx, q)
	}
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*companydata.Company)
	}
	r1 = ret.Error(1)

	return r0, r1
}

// NewMockClient creates a new instance of MockClient and registers cleanup
// that asserts expectations.
func NewMockClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockClient {
	m := &MockClient{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
