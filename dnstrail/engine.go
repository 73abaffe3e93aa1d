package main

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/jedisct1/dlog"
	"github.com/miekg/dns"
	netproxy "golang.org/x/net/proxy"
)

const (
	DefaultResolverTimeout = 3 * time.Second
	DefaultMaxIndirections = 16
	DefaultMaxQueries      = 128

	glueMemoSize = 256
)

var (
	ErrResolutionExhausted = errors.New("No remaining nameserver candidates")
	ErrCycleDetected       = errors.New("Resolution cycle detected")
	ErrTooManyIndirections = errors.New("Too many levels of indirection")
	ErrTooManyQueries      = errors.New("Query budget exhausted")
	ErrUndelegatedZone     = errors.New("Undelegated zone")
)

// Resolver walks the delegation tree from the root servers down to the
// servers authoritative for a name, never relying on a recursive helper.
// A Resolver carries no state between calls and can be shared by
// concurrent goroutines.
type Resolver struct {
	rootServers     []string
	timeout         time.Duration
	maxIndirections int
	maxQueries      int
	defaultPort     int
	forceTCP        bool
	proxyDialer     *netproxy.Dialer
	undelegated     *UndelegatedSet
	bogons          *BogonSet
	traceSink       TraceSink
}

func NewResolver(rootServers []string) *Resolver {
	return &Resolver{
		rootServers:     rootServers,
		timeout:         DefaultResolverTimeout,
		maxIndirections: DefaultMaxIndirections,
		maxQueries:      DefaultMaxQueries,
		defaultPort:     DefaultDNSPort,
	}
}

type queryOutcome int

const (
	outcomeAnswered queryOutcome = iota
	outcomeCNAME
	outcomeGlueReferral
	outcomeNSReferral
	outcomeUseless
	outcomeFailed
)

// queryResult is the interpretation of one response from one candidate,
// reduced to the action the resolution loop has to take next.
type queryResult struct {
	outcome queryOutcome
	answer  dns.RR
	cname   string
	glue    []string
	nsNames []string
	rtt     time.Duration
	step    string
	err     error
}

// resolveBudget is shared between a top-level resolution and every nested
// resolution spawned on its behalf, so that referral loops and glue cycles
// stay bounded no matter how they are spread across the call tree.
type resolveBudget struct {
	queriesLeft int
	visited     map[string]bool
	glueMemo    *lru.Cache
}

func newResolveBudget(maxQueries int) *resolveBudget {
	glueMemo, _ := lru.New(glueMemoSize)
	return &resolveBudget{
		queriesLeft: maxQueries,
		visited:     make(map[string]bool),
		glueMemo:    glueMemo,
	}
}

func budgetKey(qName string, qType uint16) string {
	return qName + "/" + dns.Type(qType).String()
}

type resolution struct {
	resolver *Resolver
	budget   *resolveBudget
	pool     NameserverPool
	trace    *Trace
	depth    int
}

// Resolve iteratively resolves qName/qType starting from the root servers,
// and returns the first record of the requested type along with the trace
// of every server the top-level resolution contacted. Nested resolutions
// for missing glue and aliases get traces of their own, delivered to the
// configured TraceSink.
func (resolver *Resolver) Resolve(qName string, qType uint16) (dns.RR, *Trace, error) {
	name, err := NormalizeQName(qName)
	if err != nil {
		return nil, nil, err
	}
	budget := newResolveBudget(resolver.maxQueries)
	return resolver.resolve(name, qType, budget, 0)
}

func (resolver *Resolver) resolve(qName string, qType uint16, budget *resolveBudget, depth int) (dns.RR, *Trace, error) {
	res := &resolution{
		resolver: resolver,
		budget:   budget,
		trace:    &Trace{Question: qName, QType: qType, Depth: depth},
		depth:    depth,
	}
	res.pool.Init(resolver.rootServers)
	start := time.Now()
	answer, err := res.run(qName, qType)
	res.trace.Elapsed = time.Since(start)
	res.trace.Status = resolveStatus(err)
	if resolver.traceSink != nil {
		resolver.traceSink.RecordTrace(res.trace)
	}
	return answer, res.trace, err
}

func (res *resolution) run(qName string, qType uint16) (dns.RR, error) {
	resolver := res.resolver
	if resolver.undelegated != nil && resolver.undelegated.Match(qName) {
		dlog.Debugf("Refusing to walk the delegation tree for undelegated name [%s]", qName)
		return nil, ErrUndelegatedZone
	}
	if res.depth > resolver.maxIndirections {
		return nil, ErrTooManyIndirections
	}
	key := budgetKey(qName, qType)
	if res.budget.visited[key] {
		return nil, ErrCycleDetected
	}
	res.budget.visited[key] = true
	for {
		if res.pool.IsEmpty() {
			return nil, ErrResolutionExhausted
		}
		if res.budget.queriesLeft <= 0 {
			return nil, ErrTooManyQueries
		}
		candidate, err := res.pool.Pick()
		if err != nil {
			return nil, err
		}
		res.budget.queriesLeft--
		result := res.queryCandidate(candidate, qName, qType)
		res.trace.addStep(TraceStep{
			Server:  candidate,
			QName:   qName,
			QType:   qType,
			RTT:     result.rtt,
			Outcome: result.step,
		})
		switch result.outcome {
		case outcomeAnswered:
			return result.answer, nil
		case outcomeCNAME:
			dlog.Debugf("[%s] is an alias for [%s]", qName, result.cname)
			answer, _, err := resolver.resolve(result.cname, qType, res.budget, res.depth+1)
			return answer, err
		case outcomeGlueReferral:
			res.pool.Replace(result.glue)
		case outcomeNSReferral:
			addrs := res.resolveDelegation(result.nsNames)
			if len(addrs) == 0 {
				dlog.Debugf("None of the nameservers delegated for [%s] by [%s] could be resolved", qName, candidate)
				res.pool.Remove(candidate)
			} else {
				res.pool.Replace(addrs)
			}
		case outcomeUseless:
			res.pool.Remove(candidate)
		case outcomeFailed:
			dlog.Debugf("Candidate [%s] failed for [%s]: %v", candidate, qName, result.err)
			res.pool.Remove(candidate)
		}
	}
}

// queryCandidate sends a single nonrecursive query and classifies the
// response. Classification order matters: a direct answer wins over an
// alias, an alias over a referral, and glued referrals over glueless ones.
func (res *resolution) queryCandidate(candidate string, qName string, qType uint16) queryResult {
	response, rtt, err := res.resolver.exchange(qName, qType, candidate)
	if err != nil {
		return queryResult{outcome: outcomeFailed, rtt: rtt, step: stepOutcomeForError(err), err: err}
	}
	if answer := AnswerMatching(response, qType); answer != nil {
		return queryResult{outcome: outcomeAnswered, answer: answer, rtt: rtt, step: StepOutcomeAnswer}
	}
	if target := CNAMETarget(response); len(target) > 0 && qType != dns.TypeCNAME {
		target = strings.ToLower(StripTrailingDot(target))
		return queryResult{outcome: outcomeCNAME, cname: target, rtt: rtt, step: StepOutcomeCNAME}
	}
	if glue := res.usableAddrs(GlueAddresses(response)); len(glue) > 0 {
		return queryResult{outcome: outcomeGlueReferral, glue: glue, rtt: rtt, step: StepOutcomeGlueReferral}
	}
	if nsNames := DelegationNames(response); len(nsNames) > 0 {
		return queryResult{outcome: outcomeNSReferral, nsNames: nsNames, rtt: rtt, step: StepOutcomeReferral}
	}
	return queryResult{outcome: outcomeUseless, rtt: rtt, step: StepOutcomeLame}
}

// resolveDelegation turns the nameserver names of a glueless referral into
// addresses. Every name gets a full resolution from the roots; names that
// cannot be resolved are skipped, as a partial result is still a result.
func (res *resolution) resolveDelegation(nsNames []string) []string {
	glueResolver := &GlueResolver{resolver: res.resolver}
	aggregate := make([]string, 0, len(nsNames))
	for _, nsName := range nsNames {
		aggregate = append(aggregate, glueResolver.AddressesFor(nsName, res.budget, res.depth+1)...)
	}
	return res.usableAddrs(aggregate)
}

// usableAddrs weeds out duplicates and addresses that cannot belong to a
// public nameserver, then normalizes the rest into host:port form. Bare
// addresses get the resolver's nameserver port appended.
func (res *resolution) usableAddrs(addrs []string) []string {
	usable := make([]string, 0, len(addrs))
	seen := make(map[string]bool)
	for _, addr := range addrs {
		if seen[addr] {
			continue
		}
		seen[addr] = true
		if res.resolver.bogons != nil && res.resolver.bogons.Match(addr) {
			dlog.Debugf("Skipping bogon nameserver address [%s]", addr)
			continue
		}
		host, port := ExtractHostAndPort(addr, res.resolver.defaultPort)
		if net.ParseIP(host) == nil {
			dlog.Warnf("Ignoring invalid nameserver address [%s]", addr)
			continue
		}
		usable = append(usable, fmt.Sprintf("%s:%d", host, port))
	}
	return usable
}

func stepOutcomeForError(err error) string {
	if neterr, ok := err.(net.Error); ok && neterr.Timeout() {
		return StepOutcomeTimeout
	}
	if _, ok := err.(net.Error); ok {
		return StepOutcomeNetworkError
	}
	return StepOutcomeDecodeError
}

// resolveStatus folds an engine error into the short status recorded in
// query traces.
func resolveStatus(err error) string {
	switch err {
	case nil:
		return "resolved"
	case ErrResolutionExhausted:
		return "exhausted"
	case ErrCycleDetected:
		return "cycle"
	case ErrTooManyIndirections:
		return "too_many_indirections"
	case ErrTooManyQueries:
		return "budget_exceeded"
	case ErrUndelegatedZone:
		return "undelegated"
	}
	return "error"
}
