package apperr

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKinds(t *testing.T) {
	v := Validation("engine.RecordReport", "latitude %v out of range", 91.0)
	assert.True(t, IsValidation(v))
	assert.False(t, IsStore(v))
	assert.Equal(t, "engine.RecordReport: latitude 91 out of range", v.Error())

	nf := NotFound("catalog.LookupByName", "achievement %q", "Ghost")
	assert.True(t, IsNotFound(nf))
	assert.False(t, IsConfiguration(nf))

	c := Configuration("engine.evaluate", "rule %q has no catalog entry", "Ghost")
	assert.True(t, IsConfiguration(c))
}

func TestStore_WrapsCause(t *testing.T) {
	err := Store("reports.Insert", context.DeadlineExceeded)

	assert.True(t, IsStore(err))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, "reports.Insert", Op(err))
	assert.Contains(t, err.Error(), "reports.Insert")

	wrapped := fmt.Errorf("submit: %w", err)
	assert.True(t, IsStore(wrapped))
	assert.Equal(t, "reports.Insert", Op(wrapped))
}

func TestOp_PlainError(t *testing.T) {
	assert.Equal(t, "", Op(errors.New("boom")))
}
