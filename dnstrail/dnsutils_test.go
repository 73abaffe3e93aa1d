package main

import (
	"testing"

	"github.com/miekg/dns"
)

func TestAnswerMatching(t *testing.T) {
	msg := new(dns.Msg)
	msg.SetQuestion("www.example.com.", dns.TypeA)
	msg.Answer = append(msg.Answer,
		&dns.CNAME{Hdr: rrHeader("www.example.com.", dns.TypeCNAME), Target: "host.example.com."},
		aRecord("host.example.com.", "192.0.2.1"),
		aRecord("host.example.com.", "192.0.2.2"))

	answer := AnswerMatching(msg, dns.TypeA)
	if answer == nil {
		t.Fatal("AnswerMatching(TypeA) = nil, want the first A record")
	}
	if answer.(*dns.A).A.String() != "192.0.2.1" {
		t.Errorf("AnswerMatching(TypeA) = %v, want 192.0.2.1", answer)
	}
	if AnswerMatching(msg, dns.TypeAAAA) != nil {
		t.Errorf("AnswerMatching(TypeAAAA) should find nothing")
	}
}

func TestCNAMETarget(t *testing.T) {
	msg := new(dns.Msg)
	if target := CNAMETarget(msg); target != "" {
		t.Errorf("CNAMETarget() on an empty message = %q, want empty", target)
	}
	msg.Answer = append(msg.Answer,
		aRecord("other.example.com.", "192.0.2.1"),
		&dns.CNAME{Hdr: rrHeader("www.example.com.", dns.TypeCNAME), Target: "host.example.com."})
	if target := CNAMETarget(msg); target != "host.example.com." {
		t.Errorf("CNAMETarget() = %q, want host.example.com.", target)
	}
}

func TestDelegationNames(t *testing.T) {
	msg := new(dns.Msg)
	msg.Ns = append(msg.Ns,
		&dns.NS{Hdr: rrHeader("example.com.", dns.TypeNS), Ns: "NS1.Example.COM."},
		&dns.NS{Hdr: rrHeader("example.com.", dns.TypeNS), Ns: "ns2.example.com."},
		&dns.NS{Hdr: rrHeader("example.com.", dns.TypeNS), Ns: "ns1.example.com."},
		&dns.SOA{Hdr: rrHeader("example.com.", dns.TypeSOA), Ns: "ns1.example.com.", Mbox: "hostmaster.example.com."})

	names := DelegationNames(msg)
	if len(names) != 2 {
		t.Fatalf("DelegationNames() returned %d names, want 2", len(names))
	}
	if names[0] != "ns1.example.com" || names[1] != "ns2.example.com" {
		t.Errorf("DelegationNames() = %v, want lowercased deduplicated names", names)
	}
}

func TestGlueAddressesCrossValidation(t *testing.T) {
	msg := new(dns.Msg)
	msg.Ns = append(msg.Ns,
		&dns.NS{Hdr: rrHeader("example.com.", dns.TypeNS), Ns: "ns1.example.com."})
	msg.Extra = append(msg.Extra,
		aRecord("ns1.example.com.", "192.0.2.1"),
		aRecord("stranger.example.net.", "192.0.2.2"))

	addrs := GlueAddresses(msg)
	if len(addrs) != 1 || addrs[0] != "192.0.2.1" {
		t.Errorf("GlueAddresses() = %v, want only the address of the delegated server", addrs)
	}
}

func TestGlueAddressesLooseFallback(t *testing.T) {
	msg := new(dns.Msg)
	msg.Extra = append(msg.Extra,
		aRecord("ns1.example.com.", "192.0.2.1"),
		aRecord("ns2.example.com.", "192.0.2.2"),
		aRecord("ns1.example.com.", "192.0.2.1"))

	addrs := GlueAddresses(msg)
	if len(addrs) != 2 {
		t.Fatalf("GlueAddresses() returned %d addresses, want 2 deduplicated", len(addrs))
	}

	msg.Ns = append(msg.Ns,
		&dns.NS{Hdr: rrHeader("example.com.", dns.TypeNS), Ns: "elsewhere.example.org."})
	addrs = GlueAddresses(msg)
	if len(addrs) != 2 {
		t.Errorf("GlueAddresses() with no matching owner = %v, want all addresses kept", addrs)
	}
}

func TestEmptyResponseFromMessage(t *testing.T) {
	query := new(dns.Msg)
	query.SetQuestion("example.com.", dns.TypeA)
	query.Id = 1234
	query.RecursionDesired = true
	query.SetEdns0(1232, false)

	response := EmptyResponseFromMessage(query)
	if !response.Response {
		t.Errorf("EmptyResponseFromMessage() did not set the response bit")
	}
	if response.Id != 1234 {
		t.Errorf("EmptyResponseFromMessage() Id = %d, want 1234", response.Id)
	}
	if len(response.Question) != 1 || response.Question[0].Name != "example.com." {
		t.Errorf("EmptyResponseFromMessage() lost the question section")
	}
	if edns0 := response.IsEdns0(); edns0 == nil || edns0.UDPSize() != 1232 {
		t.Errorf("EmptyResponseFromMessage() lost the EDNS0 size")
	}
	if len(response.Answer) != 0 {
		t.Errorf("EmptyResponseFromMessage() should carry no answers")
	}
}
