// Package effect runs the celebratory emoji rain.
package effect

import (
	"math/rand"
	"sync"
	"time"
)

// Emojis are the falling symbols.
var Emojis = []string{"💖", "✨", "🌟", "🌈", "💕", "💞", "💓", "💗", "💘", "💝"}

// KissEmoji marks a single accepted click.
const KissEmoji = "💋"

// Drop is one falling emoji.
type Drop struct {
	Emoji string `json:"emoji"`
	// Left is the horizontal position in percent of the viewport width.
	Left     float64       `json:"left"`
	Fall     time.Duration `json:"fall"`
	Delay    time.Duration `json:"delay"`
	Sequence int           `json:"seq"`
}

// Generator produces randomized drops.
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
	seq int
}

// NewGenerator returns a Generator seeded with the current time.
func NewGenerator() *Generator {
	return NewSeededGenerator(time.Now().UnixNano())
}

// NewSeededGenerator returns a deterministic Generator.
func NewSeededGenerator(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// Next returns a drop with a random emoji, position, fall time (3-5s) and delay (0-0.5s).
func (g *Generator) Next() Drop {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return Drop{
		Emoji:    Emojis[g.rnd.Intn(len(Emojis))],
		Left:     g.rnd.Float64() * 100,
		Fall:     time.Duration((g.rnd.Float64()*2 + 3) * float64(time.Second)),
		Delay:    time.Duration(g.rnd.Float64() * 0.5 * float64(time.Second)),
		Sequence: g.seq,
	}
}
