package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindMatching(t *testing.T) {
	nf := NotFound("project %s", "p1")
	require.True(t, errors.Is(nf, ErrNotFound))
	require.False(t, errors.Is(nf, ErrUpstream))
	require.Equal(t, KindNotFound, KindOf(nf))
	require.Equal(t, "project p1", nf.Error())

	wrapped := fmt.Errorf("loading: %w", nf)
	require.True(t, errors.Is(wrapped, ErrNotFound))
	require.Equal(t, KindNotFound, KindOf(wrapped))
}

func TestUpstreamKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Upstream("mongo find", cause)
	require.True(t, errors.Is(err, cause))
	require.True(t, errors.Is(err, ErrUpstream))
	require.Equal(t, "mongo find: connection refused", err.Error())
}

func TestKindOfPlainError(t *testing.T) {
	require.Equal(t, KindUnknown, KindOf(errors.New("boom")))
	require.Equal(t, "unknown", KindUnknown.String())
	require.Equal(t, "auth", KindOf(Auth("missing identity")).String())
}
