package basket

import (
	"fmt"
	"math/rand/v2"
	"sync"
)

const (
	pickupLetters   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	pickupNumberMin = 10
	pickupNumberMax = 98
)

// CodeGenerator produces pickup codes such as "K42".
// Codes are not checked for collisions against other active orders.
type CodeGenerator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewCodeGenerator creates a generator. A nil source uses the global generator.
func NewCodeGenerator(src rand.Source) *CodeGenerator {
	g := &CodeGenerator{}
	if src != nil {
		g.rng = rand.New(src)
	}
	return g
}

// Generate returns one uppercase letter followed by a number in [10, 98]
func (g *CodeGenerator) Generate() string {
	letter, number := g.draw()
	return fmt.Sprintf("%c%d", pickupLetters[letter], number)
}

func (g *CodeGenerator) draw() (int, int) {
	span := pickupNumberMax - pickupNumberMin + 1
	if g == nil || g.rng == nil {
		return rand.IntN(len(pickupLetters)), pickupNumberMin + rand.IntN(span)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.IntN(len(pickupLetters)), pickupNumberMin + g.rng.IntN(span)
}

// GeneratePickupCode draws a code from the global generator
func GeneratePickupCode() string {
	return (*CodeGenerator)(nil).Generate()
}
