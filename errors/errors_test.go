package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorClass_String(t *testing.T) {
	tests := []struct {
		class ErrorClass
		want  string
	}{
		{ErrorTransient, "transient"},
		{ErrorInvalid, "invalid"},
		{ErrorFatal, "fatal"},
		{ErrorClass(99), "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.class.String())
	}
}

func TestValidationErrors_Accumulate(t *testing.T) {
	var verrs ValidationErrors
	verrs.Add("priority", "priority %d outside range 1-16", 17)
	verrs.Add("value", "value %.1f above configured maximum %.1f", 120.0, 100.0)

	require.Len(t, verrs, 2)
	assert.Equal(t, "priority", verrs[0].Field)
	assert.Equal(t, "value", verrs[1].Field)
	assert.Contains(t, verrs.Error(), "priority 17 outside range 1-16")
	assert.Contains(t, verrs.Error(), "value 120.0 above configured maximum 100.0")
}

func TestValidationErrors_OrderPreserved(t *testing.T) {
	var verrs ValidationErrors
	for i := 0; i < 5; i++ {
		verrs.Add(fmt.Sprintf("f%d", i), "m%d", i)
	}
	for i, ve := range verrs {
		assert.Equal(t, fmt.Sprintf("f%d", i), ve.Field)
	}
}

func TestValidationErrors_AsError(t *testing.T) {
	var verrs ValidationErrors
	verrs.Add("semanticName", "function segment is %q, want %q", "sensor", "sp")

	var err error = verrs
	assert.True(t, IsValidation(err))
	assert.True(t, IsInvalid(err))
	assert.False(t, IsTransient(err))

	wrapped := fmt.Errorf("command rejected: %w", err)
	var got ValidationErrors
	require.True(t, errors.As(wrapped, &got))
	assert.Equal(t, "semanticName", got[0].Field)
}

func TestProtocolError_Classification(t *testing.T) {
	err := NewProtocolError("write", 12345, ErrWriteRejected)
	require.Error(t, err)

	assert.True(t, IsProtocol(err))
	assert.False(t, IsTransient(err))
	assert.True(t, errors.Is(err, ErrWriteRejected))
	assert.Contains(t, err.Error(), "device 12345")
}

func TestProtocolError_NilPassthrough(t *testing.T) {
	assert.NoError(t, NewProtocolError("read", 1, nil))
	assert.NoError(t, NewSinkError("timeseries", nil))
	assert.NoError(t, NewTransportError(nil))
}

func TestSinkError_IsTransient(t *testing.T) {
	err := NewSinkError("timeseries", ErrStoreUnavailable)
	assert.True(t, IsSink(err))
	assert.True(t, IsTransient(err))

	var se *SinkError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "timeseries", se.Sink)
}

func TestTransportError_IsTransient(t *testing.T) {
	err := NewTransportError(ErrConnectionLost)
	assert.True(t, IsTransport(err))
	assert.True(t, IsTransient(err))
	assert.True(t, errors.Is(err, ErrConnectionLost))
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"connection timeout", ErrConnectionTimeout, true},
		{"not connected", ErrNotConnected, true},
		{"queue full", ErrQueueFull, true},
		{"context deadline", context.DeadlineExceeded, true},
		{"context canceled", context.Canceled, true},
		{"timeout pattern", errors.New("dial tcp: i/o timeout"), true},
		{"invalid config", ErrInvalidConfig, false},
		{"wrapped transient", WrapTransient(errors.New("boom"), "T", "m", "op"), true},
		{"wrapped fatal", WrapFatal(errors.New("boom"), "T", "m", "op"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestClassify(t *testing.T) {
	var verrs ValidationErrors
	verrs.Add("writable", "point is not writable")

	assert.Equal(t, ErrorInvalid, Classify(verrs))
	assert.Equal(t, ErrorFatal, Classify(ErrMissingConfig))
	assert.Equal(t, ErrorTransient, Classify(errors.New("something else")))
}

func TestWrap_Format(t *testing.T) {
	base := errors.New("no route to host")
	err := Wrap(base, "Client", "Connect", "dial broker")

	assert.Equal(t, "Client.Connect: dial broker failed: no route to host", err.Error())
	assert.True(t, errors.Is(err, base))
	assert.NoError(t, Wrap(nil, "Client", "Connect", "dial broker"))
}

func TestWrapClassified_PreservesChain(t *testing.T) {
	err := WrapTransient(ErrConnectionLost, "Client", "publish", "deliver reading")

	var ce *ClassifiedError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, ErrorTransient, ce.Class)
	assert.Equal(t, "Client", ce.Component)
	assert.True(t, errors.Is(err, ErrConnectionLost))
}
