package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Wrapped(t *testing.T) {
	err := fmt.Errorf("recommend u1: %w", ErrUserNotFound)

	assert.True(t, IsNotFound(err))
	assert.True(t, errors.Is(err, ErrUserNotFound))
	assert.False(t, IsInvalidInput(err))
	assert.False(t, IsStoreNotFound(err), "engine NOT_FOUND is not a store miss")

	assert.True(t, IsNotReady(ErrNotReady))
	assert.True(t, IsInvalidInput(fmt.Errorf("x: %w", ErrInvalidN)))
	assert.Nil(t, GetDomainError(errors.New("plain")))
	assert.True(t, IsStoreNotFound(ErrStoreNotFound))
}

func TestTokenSet(t *testing.T) {
	a := NewTokenSet(" Adventure", "friendship", "ADVENTURE", "")
	b := NewTokenSet("adventure")

	assert.Equal(t, []string{"adventure", "friendship"}, a.Tokens())
	assert.Equal(t, 1, a.Intersect(b))
	assert.Equal(t, 1, b.Intersect(a))
	assert.True(t, a.ContainsSubstring("advent"))
	assert.False(t, a.ContainsSubstring(""))
	assert.Equal(t, 0, NewTokenSet().Len())
}

func TestInteraction_Score(t *testing.T) {
	full := Interaction{ReadingProgress: 100, Liked: true, Rating: 5, Completed: true}
	assert.InDelta(t, 1.0, full.Score(), 1e-12)

	partial := Interaction{ReadingProgress: 80, Rating: 3}
	assert.InDelta(t, 0.3*0.8+0.2*0.6, partial.Score(), 1e-12)
}
