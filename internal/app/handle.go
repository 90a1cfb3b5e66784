package app

import (
	"fmt"
	"math/rand/v2"
)

var adjectives = []string{
	"Swift", "Bright", "Cool", "Smart", "Quick", "Bold", "Calm", "Wild",
	"Free", "Pure", "Wise", "Kind", "Brave", "Sharp", "Clear",
}

var nouns = []string{
	"Fox", "Wolf", "Eagle", "Lion", "Tiger", "Bear", "Hawk", "Owl",
	"Deer", "Shark", "Raven", "Phoenix", "Dragon", "Falcon", "Panther",
}

// NewHandle builds a display handle like "SwiftFox42". Collisions are
// possible and acceptable: the handle is a presence label, never an identity.
func NewHandle() string {
	adj := adjectives[rand.IntN(len(adjectives))]
	noun := nouns[rand.IntN(len(nouns))]
	return fmt.Sprintf("%s%s%d", adj, noun, rand.IntN(999)+1)
}
