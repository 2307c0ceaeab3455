package resilience

import (
	"net"
	"syscall"
	"testing"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

func TestIsTransient_APIErrorByStatus(t *testing.T) {
	assert.True(t, IsTransient(&sdk.Error{StatusCode: 429}))
	assert.True(t, IsTransient(&sdk.Error{StatusCode: 529}))
	assert.False(t, IsTransient(&sdk.Error{StatusCode: 400}))
	assert.False(t, IsTransient(&sdk.Error{StatusCode: 401}))
}

func TestIsTransient_MarkedTransient(t *testing.T) {
	assert.True(t, IsTransient(NewTransientError(eris.New("overloaded"), 503)))
}

func TestIsTransient_WrappedTransient(t *testing.T) {
	err := eris.Wrap(NewTransientError(eris.New("overloaded"), 503), "resolver: price lookup")
	assert.True(t, IsTransient(err))
}

func TestIsTransient_NetworkTimeout(t *testing.T) {
	err := &net.DNSError{Err: "lookup timed out", IsTimeout: true}
	assert.True(t, IsTransient(err))
}

func TestIsTransient_ConnectionErrno(t *testing.T) {
	assert.True(t, IsTransient(syscall.ECONNRESET))
	assert.True(t, IsTransient(syscall.ECONNREFUSED))
}

func TestIsTransient_TransportMessage(t *testing.T) {
	assert.True(t, IsTransient(eris.New("read tcp 10.0.0.1:443: connection reset by peer")))
	assert.True(t, IsTransient(eris.New("net/http: TLS handshake timeout")))
	assert.False(t, IsTransient(eris.New("invalid request body")))
}

func TestIsTransient_Nil(t *testing.T) {
	assert.False(t, IsTransient(nil))
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, status := range []int{408, 429, 500, 502, 503, 504, 529} {
		assert.True(t, IsTransientHTTPStatus(status), "status %d", status)
	}
	for _, status := range []int{200, 201, 301, 400, 401, 403, 404, 422} {
		assert.False(t, IsTransientHTTPStatus(status), "status %d", status)
	}
}

func TestTransientError_Unwrap(t *testing.T) {
	inner := eris.New("boom")
	err := NewTransientError(inner, 500)

	assert.Equal(t, "boom", err.Error())
	assert.Equal(t, inner, err.Unwrap())
	assert.Equal(t, 500, err.StatusCode)
}
