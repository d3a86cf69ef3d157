package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCredentialExpiresWithin(t *testing.T) {
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	testCases := []struct {
		name     string
		expires  time.Time
		expected bool
	}{
		{name: "far in the future", expires: now.Add(10 * time.Minute), expected: false},
		{name: "just outside margin", expires: now.Add(61 * time.Second), expected: false},
		{name: "exactly at margin", expires: now.Add(60 * time.Second), expected: true},
		{name: "inside margin", expires: now.Add(30 * time.Second), expected: true},
		{name: "already past", expires: now.Add(-time.Hour), expected: true},
		{name: "non utc zone compares by instant", expires: now.Add(10 * time.Minute).In(time.FixedZone("PST", -8*3600)), expected: false},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			c := Credential{ExpiresAt: tt.expires}
			assert.Equal(t, tt.expected, c.ExpiresWithin(now, 60*time.Second))
		})
	}
}

func TestCachedDataIsFresh(t *testing.T) {
	now := time.Now().UTC()
	assert.True(t, (&CachedData{ExpiresAt: now.Add(time.Minute)}).IsFresh(now))
	assert.False(t, (&CachedData{ExpiresAt: now}).IsFresh(now))
	assert.False(t, (&CachedData{ExpiresAt: now.Add(-time.Minute)}).IsFresh(now))
}
