package codestore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndConsume(t *testing.T) {
	store := New()

	code, err := store.Issue("a@example.com", "Анна")
	require.NoError(t, err)
	require.Len(t, code, 6)

	name, err := store.Consume("a@example.com", code)
	require.NoError(t, err)
	assert.Equal(t, "Анна", name)
}

func TestConsumeIsSingleUse(t *testing.T) {
	store := New()

	code, err := store.Issue("a@example.com", "Анна")
	require.NoError(t, err)

	_, err = store.Consume("a@example.com", code)
	require.NoError(t, err)

	_, err = store.Consume("a@example.com", code)
	assert.ErrorIs(t, err, ErrCodeNotFound)
}

func TestConsumeExpired(t *testing.T) {
	now := time.Date(2025, 11, 26, 12, 0, 0, 0, time.UTC)
	store := New(WithClock(func() time.Time { return now }))

	code, err := store.Issue("a@example.com", "Анна")
	require.NoError(t, err)

	now = now.Add(DefaultTTL + time.Second)
	_, err = store.Consume("a@example.com", code)
	assert.ErrorIs(t, err, ErrCodeExpired)

	// The expired entry is gone; the code no longer exists at all.
	_, err = store.Consume("a@example.com", code)
	assert.ErrorIs(t, err, ErrCodeNotFound)
}

func TestConsumeMismatchKeepsEntry(t *testing.T) {
	store := New()

	code, err := store.Issue("a@example.com", "Анна")
	require.NoError(t, err)

	_, err = store.Consume("a@example.com", "000000")
	assert.ErrorIs(t, err, ErrCodeMismatch)

	// A typo must not burn the real code.
	name, err := store.Consume("a@example.com", code)
	require.NoError(t, err)
	assert.Equal(t, "Анна", name)
}

func TestIssueReplacesPreviousCode(t *testing.T) {
	store := New()

	first, err := store.Issue("a@example.com", "Анна")
	require.NoError(t, err)
	second, err := store.Issue("a@example.com", "Анна")
	require.NoError(t, err)

	if first != second {
		_, err = store.Consume("a@example.com", first)
		assert.ErrorIs(t, err, ErrCodeMismatch)
	}
	_, err = store.Consume("a@example.com", second)
	assert.NoError(t, err)
}

func TestConsumeUnknownEmail(t *testing.T) {
	store := New()
	_, err := store.Consume("nobody@example.com", "123456")
	assert.ErrorIs(t, err, ErrCodeNotFound)
}

func TestGeneratedCodeRange(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := generateCode()
		require.NoError(t, err)
		require.Len(t, code, 6)
		assert.GreaterOrEqual(t, code, "100000")
		assert.LessOrEqual(t, code, "999999")
	}
}
