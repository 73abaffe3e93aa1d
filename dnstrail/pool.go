package main

import (
	"errors"
	"math/rand"
	"sync"
)

var ErrEmptyPool = errors.New("No nameserver candidates left")

// NameserverPool holds the candidate server addresses for one in-flight
// resolution. Candidates are picked uniformly at random, without any
// weighting by past latency or reliability. A pool is owned by a single
// resolution and never shared across calls.
type NameserverPool struct {
	sync.RWMutex
	addrs []string
}

func (pool *NameserverPool) Init(addrs []string) {
	pool.Lock()
	pool.addrs = make([]string, len(addrs))
	copy(pool.addrs, addrs)
	pool.Unlock()
}

// Pick returns a random candidate without removing it, or ErrEmptyPool.
func (pool *NameserverPool) Pick() (string, error) {
	pool.RLock()
	defer pool.RUnlock()
	if len(pool.addrs) == 0 {
		return "", ErrEmptyPool
	}
	return pool.addrs[rand.Intn(len(pool.addrs))], nil
}

// Remove deletes exactly one occurrence of addr, if present.
func (pool *NameserverPool) Remove(addr string) {
	pool.Lock()
	defer pool.Unlock()
	for i, candidate := range pool.addrs {
		if candidate == addr {
			pool.addrs = append(pool.addrs[:i], pool.addrs[i+1:]...)
			return
		}
	}
}

// Replace discards every current candidate and installs addrs, which may
// legitimately be empty: the caller then sees an exhausted pool.
func (pool *NameserverPool) Replace(addrs []string) {
	pool.Lock()
	pool.addrs = make([]string, len(addrs))
	copy(pool.addrs, addrs)
	pool.Unlock()
}

func (pool *NameserverPool) IsEmpty() bool {
	pool.RLock()
	defer pool.RUnlock()
	return len(pool.addrs) == 0
}

func (pool *NameserverPool) Len() int {
	pool.RLock()
	defer pool.RUnlock()
	return len(pool.addrs)
}

// Addrs returns a copy of the current candidate set.
func (pool *NameserverPool) Addrs() []string {
	pool.RLock()
	defer pool.RUnlock()
	addrs := make([]string, len(pool.addrs))
	copy(addrs, pool.addrs)
	return addrs
}
