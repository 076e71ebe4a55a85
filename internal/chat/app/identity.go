package app

import (
	"fmt"
	"math/rand/v2"

	"tab_chat_sync/internal/chat/domain"

	"github.com/google/uuid"
)

var adjectives = []string{
	"Happy", "Brave", "Clever", "Gentle", "Lucky", "Mighty", "Noble", "Swift", "Calm", "Wise",
	"Bold", "Eager", "Grand", "Jolly", "Kind", "Lively", "Proud", "Smart", "Tough", "Witty",
}

var nouns = []string{
	"Tiger", "Eagle", "Panda", "Wolf", "Shark", "Lion", "Bear", "Hawk", "Whale", "Fox",
	"Dragon", "Falcon", "Phoenix", "Cobra", "Dolphin", "Jaguar", "Raven", "Panther", "Owl", "Lynx",
}

// displayNameSuffixes bound of the numeric suffix, exclusive
const displayNameSuffixes = 1000

// NewIdentity random user id and an Adjective+Noun+number display name
// Display names may collide; ids may not.
func NewIdentity() domain.Identity {
	return domain.Identity{
		ID:          uuid.NewString(),
		DisplayName: NewDisplayName(),
	}
}

// NewDisplayName pick adjective, noun and suffix independently
func NewDisplayName() string {
	return fmt.Sprintf("%s%s%d",
		adjectives[rand.IntN(len(adjectives))],
		nouns[rand.IntN(len(nouns))],
		rand.IntN(displayNameSuffixes),
	)
}
