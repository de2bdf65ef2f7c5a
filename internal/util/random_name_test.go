package util

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetRandomName(t *testing.T) {
	random = rand.New(rand.NewSource(1)) // nolint:gosec
	first := GetRandomName()
	second := GetRandomName()

	parts := strings.Split(first, " ")
	assert.Equal(t, 2, len(parts))
	assert.Contains(t, adjectives, parts[0])
	assert.Contains(t, animals, parts[1])

	// the same seed produces the same sequence
	random = rand.New(rand.NewSource(1)) // nolint:gosec
	assert.Equal(t, first, GetRandomName())
	assert.Equal(t, second, GetRandomName())
}
