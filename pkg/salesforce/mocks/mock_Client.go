// Package mocks provides test doubles for the salesforce client.
package mocks

import (
	"context"

	salesforce "github.com/sells-group/leadscore-cli/pkg/salesforce"
	mock "github.com/stretchr/testify/mock"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// Query provides a mock function with given fields: ctx, soql, out
func (_m *MockClient) Query(ctx context.Context, soql string, out any) error {
	ret := _m.Called(ctx, soql, out)

	if len(ret) == 0 {
		panic("no return value specified for Query")
	}

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, string, any) error); ok {
		r0 = rf(ctx, soql, out)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// UpdateCollection provides a mock function with given fields: ctx, sObjectName, records
func (_m *MockClient) UpdateCollection(ctx context.Context, sObjectName string, records []salesforce.CollectionRecord) ([]salesforce.CollectionResult, error) {
	ret := _m.Called(ctx, sObjectName, records)

	if len(ret) == 0 {
		panic("no return value specified for UpdateCollection")
	}

	var r0 []salesforce.CollectionResult
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string, []salesforce.CollectionRecord) ([]salesforce.CollectionResult, error)); ok {
		return rf(ctx, sObjectName, records)
	}
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]salesforce.CollectionResult)
	}
	r1 = ret.Error(1)

	return r0, r1
}

// DescribeSObject provides a mock function with given fields: ctx, name
func (_m *MockClient) DescribeSObject(ctx context.Context, name string) (*salesforce.SObjectDescription, error) {
	ret := _m.Called(ctx, name)

	if len(ret) == 0 {
		panic("no return value specified for DescribeSObject")
	}

	var r0 *salesforce.SObjectDescription
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string) (*salesforce.SObjectDescription, error)); ok {
		return rf(ctx, name)
	}
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*salesforce.SObjectDescription)
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
