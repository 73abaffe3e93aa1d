package main

import (
	"strings"

	"github.com/miekg/dns"
)

func EmptyResponseFromMessage(srcMsg *dns.Msg) *dns.Msg {
	dstMsg := dns.Msg{MsgHdr: srcMsg.MsgHdr, Compress: true}
	dstMsg.Question = srcMsg.Question
	dstMsg.Response = true
	dstMsg.RecursionAvailable = true
	dstMsg.RecursionDesired = srcMsg.RecursionDesired
	dstMsg.CheckingDisabled = false
	dstMsg.AuthenticatedData = false
	if edns0 := srcMsg.IsEdns0(); edns0 != nil {
		dstMsg.SetEdns0(edns0.UDPSize(), edns0.Do())
	}
	return &dstMsg
}

// AnswerMatching returns the first answer record of the requested type, or
// nil. Type CNAME is handled separately by the caller.
func AnswerMatching(msg *dns.Msg, qType uint16) dns.RR {
	for _, answer := range msg.Answer {
		header := answer.Header()
		if header.Class != dns.ClassINET {
			continue
		}
		if header.Rrtype == qType {
			return answer
		}
	}
	return nil
}

// CNAMETarget returns the target of the first canonical-name record in the
// answer section, or an empty string.
func CNAMETarget(msg *dns.Msg) string {
	for _, answer := range msg.Answer {
		header := answer.Header()
		if header.Class != dns.ClassINET || header.Rrtype != dns.TypeCNAME {
			continue
		}
		return answer.(*dns.CNAME).Target
	}
	return ""
}

// DelegationNames returns the nameserver hostnames out of the authority
// section, deduplicated, in original order.
func DelegationNames(msg *dns.Msg) []string {
	names := make([]string, 0, len(msg.Ns))
	seen := make(map[string]struct{})
	for _, rr := range msg.Ns {
		header := rr.Header()
		if header.Class != dns.ClassINET || header.Rrtype != dns.TypeNS {
			continue
		}
		name := strings.ToLower(StripTrailingDot(rr.(*dns.NS).Ns))
		if _, found := seen[name]; found {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

// GlueAddresses returns the IPv4 addresses found in the additional section.
// When the authority section names delegated servers, only glue whose owner
// matches one of those hostnames is kept; if nothing matches (or there is no
// authority section), every additional-section address is accepted.
func GlueAddresses(msg *dns.Msg) []string {
	all := make([]string, 0, len(msg.Extra))
	matching := make([]string, 0, len(msg.Extra))
	nsNames := DelegationNames(msg)
	seen := make(map[string]struct{})
	for _, rr := range msg.Extra {
		header := rr.Header()
		if header.Class != dns.ClassINET || header.Rrtype != dns.TypeA {
			continue
		}
		addr := rr.(*dns.A).A.String()
		if _, found := seen[addr]; found {
			continue
		}
		seen[addr] = struct{}{}
		all = append(all, addr)
		owner := strings.ToLower(StripTrailingDot(header.Name))
		for _, nsName := range nsNames {
			if strings.EqualFold(owner, nsName) {
				matching = append(matching, addr)
				break
			}
		}
	}
	if len(matching) > 0 {
		return matching
	}
	return all
}
