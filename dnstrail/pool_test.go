package main

import (
	"testing"

	"github.com/powerman/check"
)

func TestPoolPickLeavesCandidatesInPlace(tt *testing.T) {
	t := check.T(tt)

	pool := NameserverPool{}
	pool.Init([]string{"192.0.2.1:53", "192.0.2.2:53", "192.0.2.3:53"})
	for i := 0; i < 20; i++ {
		addr, err := pool.Pick()
		t.Nil(err)
		t.Must(addr == "192.0.2.1:53" || addr == "192.0.2.2:53" || addr == "192.0.2.3:53")
		t.EQ(pool.Len(), 3)
	}
}

func TestPoolPickEmpty(tt *testing.T) {
	t := check.T(tt)

	pool := NameserverPool{}
	t.True(pool.IsEmpty())
	_, err := pool.Pick()
	t.Err(err, ErrEmptyPool)
}

func TestPoolRemove(tt *testing.T) {
	t := check.T(tt)

	pool := NameserverPool{}
	pool.Init([]string{"192.0.2.1:53", "192.0.2.2:53", "192.0.2.3:53"})
	pool.Remove("192.0.2.2:53")
	t.EQ(pool.Len(), 2)
	for i := 0; i < 20; i++ {
		addr, err := pool.Pick()
		t.Nil(err)
		t.NE(addr, "192.0.2.2:53")
	}
	pool.Remove("192.0.2.99:53")
	t.EQ(pool.Len(), 2)
}

func TestPoolRemoveSingleOccurrence(tt *testing.T) {
	t := check.T(tt)

	pool := NameserverPool{}
	pool.Init([]string{"192.0.2.1:53", "192.0.2.1:53", "192.0.2.2:53"})
	pool.Remove("192.0.2.1:53")
	t.EQ(pool.Len(), 2)
	found := false
	for _, addr := range pool.Addrs() {
		if addr == "192.0.2.1:53" {
			found = true
		}
	}
	t.True(found)
}

func TestPoolReplace(tt *testing.T) {
	t := check.T(tt)

	pool := NameserverPool{}
	pool.Init([]string{"192.0.2.1:53"})
	pool.Replace([]string{"198.51.100.1:53", "198.51.100.2:53"})
	t.EQ(pool.Len(), 2)
	pool.Replace(nil)
	t.True(pool.IsEmpty())
	_, err := pool.Pick()
	t.Err(err, ErrEmptyPool)
}

func TestPoolInitCopiesInput(tt *testing.T) {
	t := check.T(tt)

	src := []string{"192.0.2.1:53", "192.0.2.2:53"}
	pool := NameserverPool{}
	pool.Init(src)
	src[0] = "mutated"
	addrs := pool.Addrs()
	t.EQ(addrs[0], "192.0.2.1:53")
}
