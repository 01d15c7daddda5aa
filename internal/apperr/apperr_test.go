package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "without wrapped error",
			err:  New(CodeUnsupportedLanguage, "Unsupported language: 'ruby'"),
			want: "UNSUPPORTED_LANGUAGE: Unsupported language: 'ruby'",
		},
		{
			name: "with wrapped error",
			err:  Wrap(CodeParseFailed, "parse python", errors.New("boom")),
			want: "PARSE_FAILED: parse python: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestCodeOfThroughWrapping(t *testing.T) {
	base := Newf(CodeInvalidConfiguration, "max chunk size must be positive, got %d", 0)
	wrapped := fmt.Errorf("chunk file: %w", base)

	assert.Equal(t, CodeInvalidConfiguration, CodeOf(wrapped))
	assert.True(t, IsInvalidConfiguration(wrapped))
	assert.False(t, IsUnsupportedLanguage(wrapped))
	assert.Equal(t, "", CodeOf(errors.New("plain")))
	assert.False(t, Is(nil, CodeInvalidRange))
}

func TestWithDetail(t *testing.T) {
	err := New(CodeUnsupportedConstruct, "C++20 modules").
		WithDetail("language", "cpp").
		WithDetail("marker", "export module ")

	assert.Equal(t, "cpp", err.Details["language"])
	assert.Equal(t, "export module ", err.Details["marker"])
	assert.True(t, IsUnsupportedConstruct(err))
}

func TestInternal(t *testing.T) {
	assert.True(t, New(CodeEmptyWindow, "x").Internal())
	assert.True(t, New(CodeParseFailed, "x").Internal())
	assert.False(t, New(CodeUnsupportedLanguage, "x").Internal())
}
