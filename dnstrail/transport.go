package main

import (
	"errors"
	"net"
	"time"

	"github.com/jedisct1/dlog"
	"github.com/miekg/dns"
)

// exchange sends one query to serverAddr and decodes the reply. UDP first,
// falling back to TCP when the response is truncated; a configured proxy
// dialer forces TCP, as does force_tcp. A single attempt per call: retrying
// against other candidates is the engine's job, not the transport's.
func (resolver *Resolver) exchange(qName string, qType uint16, serverAddr string) (*dns.Msg, time.Duration, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(fqdn(qName), qType)
	msg.SetEdns0(uint16(MaxDNSUDPSafePacketSize), false)
	msg.RecursionDesired = false
	query, err := msg.Pack()
	if err != nil {
		return nil, 0, err
	}
	var packet []byte
	var rtt time.Duration
	if resolver.forceTCP || resolver.proxyDialer != nil {
		packet, rtt, err = resolver.exchangeWithTCPServer(serverAddr, query)
	} else {
		packet, rtt, err = resolver.exchangeWithUDPServer(serverAddr, query)
		if err == nil && len(packet) >= MinDNSPacketSize && HasTCFlag(packet) {
			dlog.Debugf("Truncated response from [%s] - retrying over TCP", serverAddr)
			var tcpRtt time.Duration
			packet, tcpRtt, err = resolver.exchangeWithTCPServer(serverAddr, query)
			rtt += tcpRtt
		}
	}
	if err != nil {
		return nil, rtt, err
	}
	if len(packet) < MinDNSPacketSize {
		return nil, rtt, errors.New("Response too short")
	}
	if TransactionID(packet) != msg.Id {
		return nil, rtt, errors.New("Unexpected transaction ID in response")
	}
	response := new(dns.Msg)
	if err := response.Unpack(packet); err != nil {
		return nil, rtt, err
	}
	return response, rtt, nil
}

func (resolver *Resolver) exchangeWithUDPServer(serverAddr string, query []byte) ([]byte, time.Duration, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", serverAddr)
	if err != nil {
		return nil, 0, err
	}
	now := time.Now()
	pc, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		return nil, 0, err
	}
	defer pc.Close()
	pc.SetDeadline(time.Now().Add(resolver.timeout))
	pc.Write(query)
	packet := make([]byte, MaxDNSPacketSize)
	length, err := pc.Read(packet)
	if err != nil {
		return nil, time.Since(now), err
	}
	return packet[:length], time.Since(now), nil
}

func (resolver *Resolver) exchangeWithTCPServer(serverAddr string, query []byte) ([]byte, time.Duration, error) {
	now := time.Now()
	var pc net.Conn
	var err error
	if resolver.proxyDialer == nil {
		pc, err = net.DialTimeout("tcp", serverAddr, resolver.timeout)
	} else {
		pc, err = (*resolver.proxyDialer).Dial("tcp", serverAddr)
	}
	if err != nil {
		return nil, 0, err
	}
	defer pc.Close()
	pc.SetDeadline(time.Now().Add(resolver.timeout))
	query, err = PrefixWithSize(query)
	if err != nil {
		return nil, 0, err
	}
	pc.Write(query)
	packet, err := ReadPrefixed(pc)
	if err != nil {
		return nil, time.Since(now), err
	}
	return packet, time.Since(now), nil
}
