package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/christophergoltz/elogio-sub000/internal/mocks"
	"github.com/christophergoltz/elogio-sub000/internal/transport"
)

// Verifies the exact header surface an RPC carries on the wire, down to
// the CSRF token and the stat beacon the WAF checks for.
func TestDispatchHeaderContract(t *testing.T) {
	tr := new(mocks.MockTransport)
	c := NewClient(Config{BaseURL: testBaseURL}, tr, zaptest.NewLogger(t))
	c.sess.SetBwpToken(testBwpCSRF)
	c.sess.SetCookie("JSESSIONID", "cookie1")

	tr.On("Do", mock.Anything, mock.MatchedBy(func(r *transport.Request) bool {
		return r.Method == "POST" &&
			r.Headers["Content-Type"] == "text/bwp;charset=UTF-8" &&
			r.Headers["X-Requested-With"] == "XMLHttpRequest" &&
			r.Headers["x-csrf-token"] == testBwpCSRF &&
			r.Headers["Origin"] == testBaseURL &&
			r.Headers["x-kelio-stat"] != "" &&
			r.Cookies["JSESSIONID"] == "cookie1"
	})).Return(&transport.Response{StatusCode: 200, Body: []byte(exceptionBody)}).Once()
	tr.On("Close").Return(nil).Once()

	_, err := c.dispatch(context.Background(), "getSemainePresence", `1,"x",1`)
	require.NoError(t, err)
	require.NoError(t, c.Close())

	tr.AssertExpectations(t)
	assert.True(t, tr.AssertNumberOfCalls(t, "Do", 1))
}
