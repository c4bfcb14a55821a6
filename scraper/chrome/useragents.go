package chrome

import (
	"math/rand"
	"sync"
	"time"
)

var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 14_4) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
}

// userAgentPool hands out user agents at random.
type userAgentPool struct {
	mu     sync.Mutex
	agents []string
	rnd    *rand.Rand
}

func newUserAgentPool(agents []string) *userAgentPool {
	if len(agents) == 0 {
		agents = defaultUserAgents
	}
	return &userAgentPool{
		agents: agents,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (p *userAgentPool) next() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.agents[p.rnd.Intn(len(p.agents))]
}
