package app

import (
	"regexp"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

var displayNamePattern = regexp.MustCompile(`^[A-Z][a-z]+[A-Z][a-z]+\d{1,3}$`)

func TestNewIdentity(t *testing.T) {
	ids := make(map[string]bool)
	for i := 0; i < 200; i++ {
		id := NewIdentity()

		_, err := uuid.Parse(id.ID)
		assert.NoError(t, err, "id should be a uuid")
		assert.Regexp(t, displayNamePattern, id.DisplayName)
		assert.False(t, ids[id.ID], "duplicate id %s", id.ID)
		ids[id.ID] = true
	}
}

func TestNewDisplayName_UsesWordLists(t *testing.T) {
	for i := 0; i < 50; i++ {
		name := NewDisplayName()

		hasAdjective := false
		for _, a := range adjectives {
			if regexp.MustCompile(`^` + a + `[A-Z]`).MatchString(name) {
				hasAdjective = true
				break
			}
		}
		assert.True(t, hasAdjective, "name %s should start with a known adjective", name)
	}
}
