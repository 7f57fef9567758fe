package nocobase

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Pool hands out clients for the record stores of individual users,
// keeping recently used ones so that each store keeps its own rate limit
// and breaker state across requests.
type Pool struct {
	mu      sync.Mutex
	clients *lru.Cache[poolKey, *Client]
	opts    []Option
}

type poolKey struct {
	url  string
	cred Credentials
}

// NewPool creates a pool holding at most size clients, each created with
// opts.
func NewPool(size int, opts ...Option) *Pool {
	if size <= 0 {
		size = 64
	}
	cache, _ := lru.New[poolKey, *Client](size)
	return &Pool{clients: cache, opts: opts}
}

// Client returns the client for the store at baseURL.
func (p *Pool) Client(baseURL string, cred Credentials) (*Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	key := poolKey{url: baseURL, cred: cred}
	if c, ok := p.clients.Get(key); ok {
		return c, nil
	}
	c, err := New(baseURL, cred, p.opts...)
	if err != nil {
		return nil, err
	}
	p.clients.Add(key, c)
	return c, nil
}

// Len returns the number of pooled clients.
func (p *Pool) Len() int {
	return p.clients.Len()
}
