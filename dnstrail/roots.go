package main

import (
	"errors"
	"fmt"
	"net"
	"os"
	"sort"
	"time"

	"github.com/VividCortex/ewma"
	"github.com/jedisct1/dlog"
	clocksmith "github.com/jedisct1/go-clocksmith"
	"github.com/jedisct1/go-minisign"
	"github.com/miekg/dns"
)

const RTTEwmaDecay = 10.0

// The 13 well-known IPv4 root server addresses. Loaded once at startup and
// immutable afterwards; every top-level resolution seeds its pool from them.
var rootServers = []string{
	"198.41.0.4",     // a.root-servers.net
	"199.9.14.201",   // b.root-servers.net
	"192.33.4.12",    // c.root-servers.net
	"199.7.91.13",    // d.root-servers.net
	"192.203.230.10", // e.root-servers.net
	"192.5.5.241",    // f.root-servers.net
	"192.112.36.4",   // g.root-servers.net
	"198.97.190.53",  // h.root-servers.net
	"192.36.148.17",  // i.root-servers.net
	"192.58.128.30",  // j.root-servers.net
	"193.0.14.129",   // k.root-servers.net
	"199.7.83.42",    // l.root-servers.net
	"202.12.27.33",   // m.root-servers.net
}

// NormalizeServerAddrs validates addresses and appends the default DNS port
// where missing. Unparsable entries are dropped with a warning.
func NormalizeServerAddrs(addrs []string) []string {
	normalized := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		host, port := ExtractHostAndPort(addr, DefaultDNSPort)
		if net.ParseIP(host) == nil {
			dlog.Warnf("Ignoring invalid server address [%s]", addr)
			continue
		}
		normalized = append(normalized, fmt.Sprintf("%s:%d", host, port))
	}
	return normalized
}

// LoadRootServers returns the root set to seed resolutions with: an explicit
// config override, a hints file (optionally signature-checked), or the
// built-in table, in that order of preference.
func LoadRootServers(config *Config) ([]string, error) {
	if len(config.RootServers) > 0 {
		roots := NormalizeServerAddrs(config.RootServers)
		if len(roots) == 0 {
			return nil, errors.New("No usable addresses in [root_servers]")
		}
		return roots, nil
	}
	if len(config.RootsFile) > 0 {
		roots, err := loadRootsFile(config.RootsFile, config.RootsMinisignKey)
		if err != nil {
			return nil, err
		}
		dlog.Noticef("Loaded %d root server addresses from [%s]", len(roots), config.RootsFile)
		return roots, nil
	}
	return NormalizeServerAddrs(rootServers), nil
}

// loadRootsFile parses a hints-style file with one entry per line, either a
// bare address or a "name address" pair. With a minisign key configured, a
// detached signature next to the file is required and verified first.
func loadRootsFile(fileName string, minisignKeyStr string) ([]string, error) {
	if len(minisignKeyStr) > 0 {
		if err := verifySignedFile(fileName, minisignKeyStr); err != nil {
			return nil, err
		}
	}
	lines, err := ReadTextFile(fileName)
	if err != nil {
		return nil, err
	}
	addrs := make([]string, 0)
	if err := ProcessConfigLines(lines, func(line string, lineNo int) error {
		addr := line
		if _, second, ok := StringTwoFields(line); ok {
			addr = second
		}
		host, _ := ExtractHostAndPort(addr, DefaultDNSPort)
		if net.ParseIP(host) == nil {
			return fmt.Errorf("Invalid address [%s] at line %d of [%s]", addr, 1+lineNo, fileName)
		}
		addrs = append(addrs, addr)
		return nil
	}); err != nil {
		return nil, err
	}
	roots := NormalizeServerAddrs(addrs)
	if len(roots) == 0 {
		return nil, fmt.Errorf("No root server addresses in [%s]", fileName)
	}
	return roots, nil
}

func verifySignedFile(fileName string, minisignKeyStr string) error {
	minisignKey, err := minisign.NewPublicKey(minisignKeyStr)
	if err != nil {
		return err
	}
	bin, err := os.ReadFile(fileName)
	if err != nil {
		return err
	}
	sigStr, err := ReadTextFile(fileName + ".minisig")
	if err != nil {
		return err
	}
	signature, err := minisign.DecodeSignature(sigStr)
	if err != nil {
		return err
	}
	valid, err := minisignKey.Verify(bin, signature)
	if err != nil {
		return err
	}
	if !valid {
		return fmt.Errorf("Invalid signature for [%s]", fileName)
	}
	return nil
}

type RootLatency struct {
	Server string
	RTT    time.Duration
	Err    error
}

// ProbeRootLatencies measures each root's round-trip time over a few paced
// probes and returns the results sorted by latency, reachable roots first.
// Purely diagnostic: candidate selection stays random and unweighted.
func ProbeRootLatencies(resolver *Resolver, rounds int) []RootLatency {
	if rounds <= 0 {
		rounds = 3
	}
	latencies := make([]RootLatency, 0, len(resolver.rootServers))
	for _, server := range resolver.rootServers {
		estimator := ewma.NewMovingAverage(RTTEwmaDecay)
		var lastErr error
		probed := 0
		for round := 0; round < rounds; round++ {
			if round > 0 {
				clocksmith.Sleep(100 * time.Millisecond)
			}
			_, rtt, err := resolver.exchange(".", dns.TypeNS, server)
			if err != nil {
				lastErr = err
				continue
			}
			ms := float64(rtt.Nanoseconds() / 1000000)
			if probed == 0 {
				estimator.Set(ms)
			} else {
				estimator.Add(ms)
			}
			probed++
		}
		if probed == 0 {
			latencies = append(latencies, RootLatency{Server: server, Err: lastErr})
			continue
		}
		latencies = append(latencies, RootLatency{Server: server, RTT: time.Duration(estimator.Value()) * time.Millisecond})
	}
	sort.SliceStable(latencies, func(i, j int) bool {
		if (latencies[i].Err == nil) != (latencies[j].Err == nil) {
			return latencies[i].Err == nil
		}
		return latencies[i].RTT < latencies[j].RTT
	})
	return latencies
}
