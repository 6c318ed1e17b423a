package domain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHookRegistry_RunsInOrderAndStops(t *testing.T) {
	r := NewHookRegistry[*[]string]()
	boom := errors.New("boom")

	r.OnBeforeCreate(func(_ context.Context, log *[]string) error {
		*log = append(*log, "first")
		return nil
	})
	r.OnBeforeCreate(func(_ context.Context, log *[]string) error {
		*log = append(*log, "second")
		return boom
	})
	r.OnBeforeCreate(func(_ context.Context, log *[]string) error {
		*log = append(*log, "third")
		return nil
	})

	var log []string
	err := r.Run(context.Background(), BeforeCreate, &log)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"first", "second"}, log)

	log = nil
	assert.NoError(t, r.Run(context.Background(), AfterTransition, &log))
	assert.Empty(t, log)
}
