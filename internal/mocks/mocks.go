// Package mocks holds testify mocks shared across package tests.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/christophergoltz/elogio-sub000/internal/transport"
)

// MockTransport mocks the transport.Client interface.
type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Do(ctx context.Context, req *transport.Request) *transport.Response {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return &transport.Response{StatusCode: transport.StatusTransportFailure, Error: "no expectation matched"}
	}
	return args.Get(0).(*transport.Response)
}

func (m *MockTransport) Close() error {
	return m.Called().Error(0)
}
