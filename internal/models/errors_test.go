package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestFromStorage(t *testing.T) {
	assert.NoError(t, FromStorage(nil, "Thread", 1))

	err := FromStorage(fmt.Errorf("load: %w", gorm.ErrRecordNotFound), "Thread", 7)
	assert.True(t, IsCode(err, CodeNotFound))
	assert.Equal(t, "Thread with ID 7 not found", err.Error())

	forbidden := NewForbiddenError("no")
	assert.Same(t, forbidden, FromStorage(forbidden, "Thread", 7))

	boom := errors.New("connection reset")
	err = FromStorage(boom, "Thread", 7)
	assert.True(t, IsCode(err, CodePersistence))
	assert.ErrorIs(t, err, boom)
}

func TestErrorCode_UnwrapsChain(t *testing.T) {
	err := fmt.Errorf("create thread: %w", NewRateLimitedError("slow down"))
	assert.Equal(t, CodeRateLimited, ErrorCode(err))
	assert.Empty(t, ErrorCode(errors.New("plain")))
	assert.False(t, IsCode(nil, CodeNotFound))
}
