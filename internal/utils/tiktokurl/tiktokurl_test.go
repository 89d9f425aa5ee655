package tiktokurl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValid(t *testing.T) {
	valid := []string{
		"https://www.tiktok.com/@demo/video/123",
		"http://tiktok.com/@demo/video/123",
		"https://vm.tiktok.com/ZMabc123/",
		"www.tiktok.com/@demo",
		"tiktok.com/x",
		"vm.tiktok.com/ZM1",
	}
	for _, raw := range valid {
		assert.True(t, IsValid(raw), raw)
	}

	invalid := []string{
		"",
		"not-a-url",
		"https://www.tiktok.com",
		"https://www.tiktok.com/",
		"https://youtube.com/watch?v=1",
		"ftp://tiktok.com/@demo",
		"https://eviltiktok.com/@demo",
		"https://m.tiktok.com/v/123",
		" https://www.tiktok.com/@demo",
	}
	for _, raw := range invalid {
		assert.False(t, IsValid(raw), raw)
	}
}

func TestNewValidator_Tag(t *testing.T) {
	type req struct {
		URL string `validate:"required,tiktokurl"`
	}

	v := NewValidator()
	assert.NoError(t, v.Struct(req{URL: "https://vm.tiktok.com/ZM1"}))
	assert.Error(t, v.Struct(req{URL: "not-a-url"}))
	assert.Error(t, v.Struct(req{}))
}
