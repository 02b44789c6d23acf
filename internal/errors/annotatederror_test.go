package errors

import (
	"log/slog"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAnnotatedError(t *testing.T) {
	err := New("test error", slog.String("id", "123"))
	require.Equal(t, "test error", err.Error())

	// Assert that wrapping sentinel errors work as expected.
	sentinel := NewSentinel("test error")
	require.NotErrorIs(t, err, NewSentinel("test error"))
	wrapped := err.Wrap(sentinel)
	require.ErrorIs(t, wrapped, sentinel)

	// Ensure log values are coming through.
	group := err.LogValue().Group()
	require.Contains(t, group, slog.String("id", "123"))

	// Assert there's a valid source
	sourceIdx := slices.IndexFunc(group, func(attr slog.Attr) bool {
		return attr.Key == "source"
	})
	source := group[sourceIdx]
	require.Contains(t, source.Value.String(), "annotatederror_test.go")
}

func TestWrap(t *testing.T) {
	sentinel := NewSentinel("turn limit exceeded")
	wrapped := Wrap(sentinel, "ask suspect", slog.String("suspect_id", "s1"))

	require.ErrorIs(t, wrapped, sentinel)
	require.Equal(t, "ask suspect: turn limit exceeded", wrapped.Error())

	// Annotations survive another level of wrapping.
	outer := Wrap(wrapped, "handle request")
	require.ErrorIs(t, outer, sentinel)

	var annotated AnnotatedError
	require.True(t, As(outer, &annotated))
}

func TestSlogError(t *testing.T) {
	plain := NewSentinel("plain")
	require.Equal(t, slog.String("error", "plain"), SlogError(plain))

	annotated := Wrap(plain, "context")
	attr := SlogError(annotated)
	require.Equal(t, "error", attr.Key)
	require.Contains(t, attr.Value.Resolve().String(), "context: plain")
}
