package main

import (
	"github.com/jedisct1/dlog"
	"github.com/miekg/dns"
)

// GlueResolver obtains addresses for nameservers that a referral named
// without supplying glue. Each hostname goes through a full resolution from
// the roots, sharing the caller's budget; a failure yields an empty result
// so that the other hostnames of the same referral remain usable.
type GlueResolver struct {
	resolver *Resolver
}

// AddressesFor resolves the IPv4 addresses of a nameserver hostname. It
// never reports an error: anything that goes wrong, including cycles and
// exhausted budgets, degrades to an empty result. Successful lookups are
// remembered for the rest of the top-level call, so a hostname serving
// several zones is only walked once.
func (glueResolver *GlueResolver) AddressesFor(hostname string, budget *resolveBudget, depth int) []string {
	if cached, found := budget.glueMemo.Get(hostname); found {
		return cached.([]string)
	}
	answer, _, err := glueResolver.resolver.resolve(hostname, dns.TypeA, budget, depth)
	if err != nil {
		dlog.Debugf("Unable to resolve nameserver [%s]: %v", hostname, err)
		return nil
	}
	aRecord, ok := answer.(*dns.A)
	if !ok {
		return nil
	}
	addrs := []string{aRecord.A.String()}
	budget.glueMemo.Add(hostname, addrs)
	return addrs
}
