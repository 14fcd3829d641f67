package service

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/spec-kit/support-desk/internal/domain"
)

// PasswordHasher is a one-way transform for credentials.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Compare(hashed, plain string) error
}

// TokenIssuer signs session tokens for a resolved identity.
type TokenIssuer interface {
	GenerateToken(user *domain.User) (string, time.Time, error)
}

// NumberGenerator draws public ticket numbers.
type NumberGenerator interface {
	TicketNumber() int64
}

const (
	minTicketNumber = 1000
	maxTicketNumber = 9999
)

// RandomNumberGenerator draws ticket numbers uniformly from [1000, 9999].
type RandomNumberGenerator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRandomNumberGenerator returns a generator whose sequence is fixed by seed.
func NewRandomNumberGenerator(seed uint64) *RandomNumberGenerator {
	return &RandomNumberGenerator{rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (g *RandomNumberGenerator) TicketNumber() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return minTicketNumber + g.rnd.Int64N(maxTicketNumber-minTicketNumber+1)
}
