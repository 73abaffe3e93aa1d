package main

import (
	"fmt"

	"github.com/k-sone/critbitgo"
)

// Zones that are special-use or locally served (RFC 6761, 6762, 6303, 7686,
// 7793, 8375) plus a few suffixes that commonly leak out of local networks.
// Queries for names under them must never reach the public root servers.
var undelegatedZones = []string{
	"0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.ip6.arpa",
	"0.in-addr.arpa",
	"1.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.ip6.arpa",
	"10.in-addr.arpa",
	"100.51.198.in-addr.arpa",
	"113.0.203.in-addr.arpa",
	"127.in-addr.arpa",
	"168.192.in-addr.arpa",
	"2.0.192.in-addr.arpa",
	"254.169.in-addr.arpa",
	"255.255.255.255.in-addr.arpa",
	"8.b.d.0.1.0.0.2.ip6.arpa",
	"8.e.f.ip6.arpa",
	"9.e.f.ip6.arpa",
	"a.e.f.ip6.arpa",
	"b.e.f.ip6.arpa",
	"belkin",
	"bind",
	"corp",
	"d.f.ip6.arpa",
	"dlink",
	"example",
	"home",
	"home.arpa",
	"internal",
	"intranet",
	"invalid",
	"lan",
	"local",
	"localdomain",
	"localhost",
	"onion",
	"private",
	"test",
	"workgroup",
}

func defaultUndelegatedZones() []string {
	zones := make([]string, 0, len(undelegatedZones)+16+64)
	zones = append(zones, undelegatedZones...)
	for octet := 16; octet <= 31; octet++ {
		zones = append(zones, fmt.Sprintf("%d.172.in-addr.arpa", octet))
	}
	for octet := 64; octet <= 127; octet++ {
		zones = append(zones, fmt.Sprintf("%d.100.in-addr.arpa", octet))
	}
	return zones
}

// UndelegatedSet answers whether a query name falls under a zone that is not
// delegated in the public DNS. Zone names are stored reversed so that a
// longest-prefix lookup on the reversed query name is a suffix match.
type UndelegatedSet struct {
	suffixes *critbitgo.Trie
}

func NewUndelegatedSet(zones []string) *UndelegatedSet {
	suffixes := critbitgo.NewTrie()
	for _, zone := range zones {
		suffixes.Insert([]byte(StringReverse(zone)), true)
	}
	return &UndelegatedSet{suffixes: suffixes}
}

// Match expects a normalized query name (lowercase, no trailing dot).
func (set *UndelegatedSet) Match(qName string) bool {
	revQname := StringReverse(qName)
	match, _, found := set.suffixes.LongestPrefix([]byte(revQname))
	if !found {
		return false
	}
	return len(match) == len(revQname) || revQname[len(match)] == '.'
}
