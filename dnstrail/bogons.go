package main

import (
	"fmt"
	"net"
	"strings"

	iradix "github.com/hashicorp/go-immutable-radix"
	"github.com/jedisct1/dlog"
)

// Address ranges that must never appear as nameserver glue: a referral
// pointing the walk into private or reserved space is either a broken zone
// or an attempt to reach local services. Only IPv4 matters here, since only
// A records are ever accepted as pool candidates.
func defaultBogonRules() []string {
	rules := []string{
		"0.*",
		"10.*",
		"127.*",
		"169.254.*",
		"192.0.0.*",
		"192.0.2.*",
		"192.168.*",
		"198.18.*",
		"198.19.*",
		"198.51.100.*",
		"203.0.113.*",
		"255.255.255.255",
	}
	for octet := 64; octet <= 127; octet++ {
		rules = append(rules, fmt.Sprintf("100.%d.*", octet))
	}
	for octet := 16; octet <= 31; octet++ {
		rules = append(rules, fmt.Sprintf("172.%d.*", octet))
	}
	for octet := 224; octet <= 255; octet++ {
		rules = append(rules, fmt.Sprintf("%d.*", octet))
	}
	return rules
}

// BogonSet matches addresses against a rule set of exact addresses and
// "prefix*" patterns, the latter kept in a radix tree over the textual form.
type BogonSet struct {
	prefixes *iradix.Tree
	ips      map[string]interface{}
}

func NewBogonSet(rules []string) *BogonSet {
	set := &BogonSet{
		prefixes: iradix.New(),
		ips:      make(map[string]interface{}),
	}
	for lineNo, line := range rules {
		ip := net.ParseIP(line)
		trailingStar := strings.HasSuffix(line, "*")
		if len(line) < 2 || (ip != nil && trailingStar) {
			dlog.Errorf("Suspicious bogon rule [%s] at line %d", line, lineNo)
			continue
		}
		if trailingStar {
			line = line[:len(line)-1]
		}
		if strings.HasSuffix(line, ":") || strings.HasSuffix(line, ".") {
			line = line[:len(line)-1]
		}
		if len(line) == 0 {
			dlog.Errorf("Empty bogon rule at line %d", lineNo)
			continue
		}
		if strings.Contains(line, "*") {
			dlog.Errorf("Invalid rule: [%s] - wildcards can only be used as a suffix at line %d", line, lineNo)
			continue
		}
		line = strings.ToLower(line)
		if trailingStar {
			set.prefixes, _, _ = set.prefixes.Insert([]byte(line), 0)
		} else {
			set.ips[line] = true
		}
	}
	return set
}

func (set *BogonSet) Match(addrStr string) bool {
	if _, found := set.ips[addrStr]; found {
		return true
	}
	match, _, found := set.prefixes.Root().LongestPrefix([]byte(addrStr))
	if !found {
		return false
	}
	return len(match) == len(addrStr) || addrStr[len(match)] == '.' || addrStr[len(match)] == ':'
}

// LoadBogonFile reads one rule per line, with inline comments allowed.
func LoadBogonFile(fileName string) ([]string, error) {
	lines, err := ReadTextFile(fileName)
	if err != nil {
		return nil, err
	}
	rules := make([]string, 0)
	if err := ProcessConfigLines(lines, func(line string, lineNo int) error {
		rules = append(rules, line)
		return nil
	}); err != nil {
		return nil, err
	}
	return rules, nil
}
