package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidInput, "test message: %s", "value")

	assert.Equal(t, ErrCodeInvalidInput, err.Code)
	assert.Equal(t, "test message: value", err.Message)
	assert.Equal(t, "INVALID_INPUT: test message: value", err.Error())
}

func TestWrap(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(ErrCodeRenderFailed, cause, "write diagram")

	assert.Equal(t, ErrCodeRenderFailed, err.Code)
	assert.Equal(t, cause, errors.Unwrap(err))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "RENDER_FAILED: write diagram: disk full", err.Error())
}

func TestIs(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code Code
		want bool
	}{
		{"matching code", New(ErrCodeNoFlows, "empty"), ErrCodeNoFlows, true},
		{"different code", New(ErrCodeNoFlows, "empty"), ErrCodeRenderFailed, false},
		{"wrapped with fmt", fmt.Errorf("run: %w", New(ErrCodeUnsupported, "x")), ErrCodeUnsupported, true},
		{"plain error", errors.New("plain"), ErrCodeInternal, false},
		{"nil", nil, ErrCodeInternal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Is(tt.err, tt.code))
		})
	}
}

func TestGetCodeAndUserMessage(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(ErrCodeFlowNotFound, "flow %q not found", "main"))
	assert.Equal(t, ErrCodeFlowNotFound, GetCode(err))
	assert.Equal(t, `flow "main" not found`, UserMessage(err))

	plain := errors.New("boom")
	assert.Equal(t, Code(""), GetCode(plain))
	assert.Equal(t, "boom", UserMessage(plain))

	wrapped := Wrap(ErrCodeRenderFailed, plain, "render png")
	assert.Equal(t, "render png: boom", UserMessage(wrapped))
}

func TestIsFatal(t *testing.T) {
	assert.True(t, IsFatal(New(ErrCodeRenderFailed, "x")))
	assert.True(t, IsFatal(New(ErrCodeNoFlows, "x")))
	assert.True(t, IsFatal(errors.New("unknown")))
	assert.False(t, IsFatal(New(ErrCodeDanglingReference, "x")))
	assert.False(t, IsFatal(New(ErrCodeParseFailed, "x")))
	assert.False(t, IsFatal(nil))
}

func TestValidateOutputFilename(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"plain", "diagram", false},
		{"with extension", "diagram.png", false},
		{"empty", "", true},
		{"slash", "out/diagram", true},
		{"backslash", `out\diagram`, true},
		{"dotdot", "..", true},
		{"control", "dia\x00gram", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputFilename(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, Is(err, ErrCodeInvalidInput))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestValidateFlowName(t *testing.T) {
	require.NoError(t, ValidateFlowName("test-hello-appFlow"))
	require.NoError(t, ValidateFlowName(`get:\customers:api-config`))
	assert.True(t, Is(ValidateFlowName("  "), ErrCodeInvalidFlowName))
	assert.True(t, Is(ValidateFlowName("a\tb"), ErrCodeInvalidFlowName))
}
