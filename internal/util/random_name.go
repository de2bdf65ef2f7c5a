package util

import (
	"fmt"
	"math/rand"
	"time"
)

var random = rand.New(rand.NewSource(time.Now().UnixNano())) // nolint:gosec

var adjectives = []string{
	"Lucky", "Sneaky", "Bold", "Quiet", "Patient", "Reckless", "Clever", "Steady", "Daring", "Smug",
	"Bluffing", "Cautious", "Swift", "Stubborn", "Cheerful", "Grumpy", "Sly", "Brave", "Calm", "Wild",
}

var animals = []string{
	"Dragon", "Tiger", "Crane", "Carp", "Monkey", "Rooster", "Ox", "Rabbit", "Snake", "Horse",
	"Goat", "Rat", "Dog", "Pig", "Phoenix", "Turtle", "Panda", "Magpie", "Heron", "Fox",
}

// GetRandomName returns a random name by combining an adjective with an animal.
// It is used for players who join a room without providing a name.
func GetRandomName() string {
	adjectivesIndex := random.Intn(len(adjectives))
	animalsIndex := random.Intn(len(animals))

	return fmt.Sprintf("%s %s", adjectives[adjectivesIndex], animals[animalsIndex])
}
