package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	err := New(ErrRender, "failed to render").
		WithDetail("path", "a.txt").
		WithDetail("engine", "pongo2")
	assert.Equal(t, "failed to render (engine=pongo2, path=a.txt)", err.Error())

	wrapped := Wrap(errors.New("boom"), ErrCloneFailed, "failed to clone repo")
	assert.Equal(t, "failed to clone repo: boom", wrapped.Error())
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrRender, "nothing"))
	assert.Nil(t, Wrapf(nil, ErrRender, "nothing %d", 1))
}

func TestHasCodeThroughChain(t *testing.T) {
	inner := New(ErrInvalidPattern, "bad pattern")
	outer := fmt.Errorf("parsing template.yml: %w", inner)

	assert.True(t, HasCode(outer, ErrInvalidPattern))
	assert.False(t, HasCode(outer, ErrConfigMalformed))
	assert.Equal(t, ErrInvalidPattern, GetCode(outer))
	assert.Equal(t, ErrUnknown, GetCode(errors.New("plain")))
}

func TestIsMatchesByCode(t *testing.T) {
	a := Newf(ErrPullFailed, "pull %s", "x")
	b := New(ErrPullFailed, "something else")
	assert.True(t, errors.Is(a, b))
	assert.False(t, errors.Is(a, New(ErrOpenFailed, "")))
}

func TestRefinedCodes(t *testing.T) {
	err := New(ErrUnexpectedValue, "unexpected value")
	assert.True(t, HasCode(err, ErrUnexpectedValue))
	assert.True(t, HasCode(err, ErrConfigMalformed))
	assert.False(t, HasCode(New(ErrConfigMalformed, "x"), ErrUnexpectedValue))
}
