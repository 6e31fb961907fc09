package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name         string
		code         string
		wantCategory Category
		wantSeverity Severity
		wantRetry    bool
	}{
		{
			name:         "config error",
			code:         ErrCodeConfigInvalid,
			wantCategory: CategoryConfig,
			wantSeverity: SeverityError,
			wantRetry:    false,
		},
		{
			name:         "io error",
			code:         ErrCodeFileNotFound,
			wantCategory: CategoryIO,
			wantSeverity: SeverityError,
			wantRetry:    false,
		},
		{
			name:         "provider timeout is retryable warning",
			code:         ErrCodeProviderTimeout,
			wantCategory: CategoryProvider,
			wantSeverity: SeverityWarning,
			wantRetry:    true,
		},
		{
			name:         "corrupt artifact is fatal",
			code:         ErrCodeArtifactCorrupt,
			wantCategory: CategoryIO,
			wantSeverity: SeverityFatal,
			wantRetry:    false,
		},
		{
			name:         "validation error",
			code:         ErrCodeQueryEmpty,
			wantCategory: CategoryValidation,
			wantSeverity: SeverityError,
			wantRetry:    false,
		},
		{
			name:         "internal error",
			code:         ErrCodeSearchFailed,
			wantCategory: CategoryInternal,
			wantSeverity: SeverityError,
			wantRetry:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, "boom", nil)
			assert.Equal(t, tt.wantCategory, err.Category)
			assert.Equal(t, tt.wantSeverity, err.Severity)
			assert.Equal(t, tt.wantRetry, err.Retryable)
		})
	}
}

func TestErrorString(t *testing.T) {
	err := New(ErrCodeQueryEmpty, "query is empty", nil)
	assert.Equal(t, "[ERR_403_QUERY_EMPTY] query is empty", err.Error())
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeInternal, nil))
}

func TestUnwrap(t *testing.T) {
	cause := fmt.Errorf("underlying")
	err := Wrap(ErrCodeEmbeddingFailed, cause)
	require.NotNil(t, err)
	assert.ErrorIs(t, err, cause)
}

func TestIsMatchesByCode(t *testing.T) {
	a := New(ErrCodeIndexNotBuilt, "index not built", nil)
	b := New(ErrCodeIndexNotBuilt, "different message", nil)
	assert.True(t, stderrors.Is(a, b))

	c := New(ErrCodeIndexFailed, "index failed", nil)
	assert.False(t, stderrors.Is(a, c))
}

func TestWithDetailAndSuggestion(t *testing.T) {
	err := New(ErrCodeDimensionMismatch, "dims differ", nil).
		WithDetail("expected", "1536").
		WithDetail("got", "256").
		WithSuggestion("rebuild the index")

	assert.Equal(t, "1536", err.Details["expected"])
	assert.Equal(t, "256", err.Details["got"])
	assert.Equal(t, "rebuild the index", err.Suggestion)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(New(ErrCodeProviderUnavailable, "down", nil)))
	assert.False(t, IsRetryable(New(ErrCodeInvalidInput, "bad", nil)))
	assert.False(t, IsRetryable(fmt.Errorf("plain")))
	assert.False(t, IsRetryable(nil))
}

func TestIsFatal(t *testing.T) {
	assert.True(t, IsFatal(New(ErrCodeArtifactCorrupt, "corrupt", nil)))
	assert.False(t, IsFatal(New(ErrCodeFileNotFound, "missing", nil)))
	assert.False(t, IsFatal(nil))
}

func TestGetCodeAndCategory(t *testing.T) {
	err := New(ErrCodeResponseMalformed, "bad response", nil)
	assert.Equal(t, ErrCodeResponseMalformed, GetCode(err))
	assert.Equal(t, CategoryProvider, GetCategory(err))

	assert.Equal(t, "", GetCode(fmt.Errorf("plain")))
	assert.Equal(t, Category(""), GetCategory(fmt.Errorf("plain")))
}

func TestFormatForCLI(t *testing.T) {
	err := New(ErrCodeConfigInvalid, "bad config", nil).WithSuggestion("check config.yaml")
	out := FormatForCLI(err)
	assert.Contains(t, out, "Error: bad config")
	assert.Contains(t, out, "Hint: check config.yaml")
	assert.Contains(t, out, "Code: ERR_102_CONFIG_INVALID")

	// Plain errors get wrapped as internal
	out = FormatForCLI(fmt.Errorf("plain failure"))
	assert.Contains(t, out, "plain failure")
	assert.Contains(t, out, ErrCodeInternal)
}

func TestFormatForLog(t *testing.T) {
	cause := fmt.Errorf("timeout")
	err := Wrap(ErrCodeProviderTimeout, cause).WithDetail("provider", "openai")
	fields := FormatForLog(err)

	assert.Equal(t, ErrCodeProviderTimeout, fields["error_code"])
	assert.Equal(t, "timeout", fields["cause"])
	assert.Equal(t, "openai", fields["detail_provider"])
	assert.Equal(t, true, fields["retryable"])

	assert.Nil(t, FormatForLog(nil))
}
