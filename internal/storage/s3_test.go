package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanURL(t *testing.T) {
	assert.Equal(t, "https://cdn.example.com/a%20b.png", CleanURL("https://cdn.example.com/a b.png"))
	assert.Equal(t, "https://cdn.example.com/x.png", CleanURL("https://cdn.example.com/x.png"))
}

func TestKeyFromURL(t *testing.T) {
	key, ok := KeyFromURL("https://cdn.example.com/", "https://cdn.example.com/images/u1/1-a.png")
	require.True(t, ok)
	assert.Equal(t, "images/u1/1-a.png", key)

	_, ok = KeyFromURL("https://cdn.example.com", "https://elsewhere.com/images/u1/1-a.png")
	assert.False(t, ok)

	_, ok = KeyFromURL("", "https://cdn.example.com/a.png")
	assert.False(t, ok)
}

func TestNewS3StorePublicURL(t *testing.T) {
	s, err := NewS3Store(context.Background(), Options{
		Endpoint:        "http://localhost:9000",
		Region:          "auto",
		AccessKeyID:     "key",
		AccessKeySecret: "secret",
		Bucket:          "slides",
		PublicURL:       "https://cdn.example.com/",
	})
	require.NoError(t, err)

	url := s.PublicURL("images/u1/1-a.png")
	assert.Equal(t, "https://cdn.example.com/images/u1/1-a.png", url)

	key, ok := s.KeyFromURL(url)
	require.True(t, ok)
	assert.Equal(t, "images/u1/1-a.png", key)
}
