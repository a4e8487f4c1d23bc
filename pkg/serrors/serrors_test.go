package serrors_test

import (
	"errors"
	"fmt"
	"testing"

	"sitepaths/pkg/serrors"

	"github.com/stretchr/testify/require"
)

type fetchError struct{ url string }

func (e fetchError) Error() string { return "could not fetch " + e.url }

func TestKindsAreDistinct(t *testing.T) {
	kinds := []serrors.Kind{
		serrors.ErrNotFound,
		serrors.ErrUnauthorized,
		serrors.ErrForbidden,
		serrors.ErrBadRequest,
		serrors.ErrConflict,
		serrors.ErrAlreadyExists,
		serrors.ErrInternal,
		serrors.ErrTimeout,
		serrors.ErrUnavailable,
	}
	seen := map[serrors.Kind]bool{}
	for _, k := range kinds {
		require.False(t, seen[k], "duplicate kind %v", k)
		seen[k] = true
	}
}

func TestErrorString(t *testing.T) {
	cause := errors.New("connection refused")

	require.Equal(t, "domain example.com is not tracked",
		serrors.With(serrors.ErrNotFound, "domain %s is not tracked", "example.com").Error())
	require.Equal(t, "could not store path: connection refused",
		serrors.Wrap(serrors.ErrInternal, cause, "could not store path").Error())
	require.Equal(t, "connection refused", serrors.Wrap(serrors.ErrInternal, cause, "").Error())
	require.Equal(t, "ALREADY_EXISTS", serrors.KindOnly(serrors.ErrAlreadyExists).Error())
}

func TestIsAndAs(t *testing.T) {
	cause := &fetchError{url: "https://example.com/"}
	err := fmt.Errorf("crawl failed: %w", serrors.Wrap(serrors.ErrUnavailable, cause, "fetching root"))

	require.ErrorIs(t, err, serrors.ErrUnavailable)
	require.ErrorIs(t, err, cause)
	require.NotErrorIs(t, err, serrors.ErrNotFound)

	var fe *fetchError
	require.ErrorAs(t, err, &fe)
	require.Equal(t, cause, fe)
}

func TestKindOf(t *testing.T) {
	require.Equal(t, serrors.ErrAlreadyExists,
		serrors.KindOf(fmt.Errorf("submit: %w", serrors.With(serrors.ErrAlreadyExists, "tracked"))))
	require.Nil(t, serrors.KindOf(errors.New("plain")))
	require.Nil(t, serrors.KindOf(nil))
}

func TestAccessors(t *testing.T) {
	cause := errors.New("expired")
	e := serrors.Wrap(serrors.ErrUnauthorized, cause, "invalid token")
	require.Equal(t, serrors.ErrUnauthorized, e.Kind())
	require.Equal(t, "invalid token", e.Message())
	require.Equal(t, cause, e.Cause())
}
