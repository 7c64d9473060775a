package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTokenBucketDrains(t *testing.T) {
	bucket := NewTokenBucket(3, 1)
	for i := 0; i < 3; i++ {
		assert.True(t, bucket.Allow(), "request %d should pass", i)
	}
	assert.False(t, bucket.Allow(), "bucket should be empty")
}

func TestTokenBucketRefills(t *testing.T) {
	bucket := NewTokenBucket(1, 1000)
	assert.True(t, bucket.Allow())
	assert.False(t, bucket.Allow())

	time.Sleep(1100 * time.Millisecond)
	assert.True(t, bucket.Allow(), "bucket should refill over time")
}

func TestTokenBucketCapsAtCapacity(t *testing.T) {
	bucket := NewTokenBucket(2, 1000)
	time.Sleep(1100 * time.Millisecond)

	assert.True(t, bucket.Allow())
	assert.True(t, bucket.Allow())
	assert.False(t, bucket.Allow(), "refill must not exceed capacity")
}
