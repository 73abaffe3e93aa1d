package main

import (
	"context"
	"net"
	"sync/atomic"
	"time"

	"github.com/jedisct1/dlog"
	"github.com/miekg/dns"
)

// Proxy answers ordinary DNS queries from local clients by running a full
// iterative resolution for each of them.
type Proxy struct {
	resolver        *Resolver
	listenAddresses []string
	maxClients      uint32
	clientsCount    uint32
	udpListeners    []*net.UDPConn
	tcpListeners    []*net.TCPListener
}

func (proxy *Proxy) StartProxy() {
	for _, listenAddrStr := range proxy.listenAddresses {
		listenUDPAddr, err := net.ResolveUDPAddr("udp", listenAddrStr)
		if err != nil {
			dlog.Fatal(err)
		}
		listenTCPAddr, err := net.ResolveTCPAddr("tcp", listenAddrStr)
		if err != nil {
			dlog.Fatal(err)
		}
		if err := proxy.udpListenerFromAddr(listenUDPAddr); err != nil {
			dlog.Fatal(err)
		}
		if err := proxy.tcpListenerFromAddr(listenTCPAddr); err != nil {
			dlog.Fatal(err)
		}
	}
	if err := proxy.addSystemDListeners(); err != nil {
		dlog.Fatal(err)
	}
	proxy.startAcceptingClients()
	dlog.Noticef("dnstrail is ready - walking delegations from %d root servers", len(proxy.resolver.rootServers))
	ServiceManagerReadyNotify()
}

func (proxy *Proxy) registerUDPListener(conn *net.UDPConn) {
	proxy.udpListeners = append(proxy.udpListeners, conn)
}

func (proxy *Proxy) registerTCPListener(listener *net.TCPListener) {
	proxy.tcpListeners = append(proxy.tcpListeners, listener)
}

func (proxy *Proxy) udpListenerFromAddr(listenAddr *net.UDPAddr) error {
	listenConfig, err := proxy.udpListenerConfig()
	if err != nil {
		return err
	}
	clientPc, err := listenConfig.ListenPacket(context.Background(), "udp", listenAddr.String())
	if err != nil {
		return err
	}
	proxy.registerUDPListener(clientPc.(*net.UDPConn))
	dlog.Noticef("Now listening to %v [UDP]", listenAddr)
	return nil
}

func (proxy *Proxy) tcpListenerFromAddr(listenAddr *net.TCPAddr) error {
	listenConfig, err := proxy.tcpListenerConfig()
	if err != nil {
		return err
	}
	acceptPc, err := listenConfig.Listen(context.Background(), "tcp", listenAddr.String())
	if err != nil {
		return err
	}
	proxy.registerTCPListener(acceptPc.(*net.TCPListener))
	dlog.Noticef("Now listening to %v [TCP]", listenAddr)
	return nil
}

func (proxy *Proxy) startAcceptingClients() {
	for _, clientPc := range proxy.udpListeners {
		go proxy.udpListener(clientPc)
	}
	proxy.udpListeners = nil
	for _, acceptPc := range proxy.tcpListeners {
		go proxy.tcpListener(acceptPc)
	}
	proxy.tcpListeners = nil
}

func (proxy *Proxy) udpListener(clientPc *net.UDPConn) {
	defer clientPc.Close()
	for {
		buffer := make([]byte, MaxDNSPacketSize-1)
		length, clientAddr, err := clientPc.ReadFrom(buffer)
		if err != nil {
			return
		}
		packet := buffer[:length]
		go func() {
			if !proxy.clientsCountInc() {
				dlog.Warnf("Too many connections (max=%d)", proxy.maxClients)
				return
			}
			defer proxy.clientsCountDec()
			proxy.processIncomingQuery("udp", packet, &clientAddr, clientPc)
		}()
	}
}

func (proxy *Proxy) tcpListener(acceptPc *net.TCPListener) {
	defer acceptPc.Close()
	for {
		clientPc, err := acceptPc.Accept()
		if err != nil {
			continue
		}
		go func() {
			defer clientPc.Close()
			if !proxy.clientsCountInc() {
				dlog.Warnf("Too many connections (max=%d)", proxy.maxClients)
				return
			}
			defer proxy.clientsCountDec()
			clientPc.SetDeadline(time.Now().Add(proxy.resolver.timeout))
			packet, err := ReadPrefixed(clientPc)
			if err != nil || len(packet) < MinDNSPacketSize {
				return
			}
			clientAddr := clientPc.RemoteAddr()
			proxy.processIncomingQuery("tcp", packet, &clientAddr, clientPc)
		}()
	}
}

func (proxy *Proxy) clientsCountInc() bool {
	for {
		count := atomic.LoadUint32(&proxy.clientsCount)
		if count >= proxy.maxClients {
			return false
		}
		if atomic.CompareAndSwapUint32(&proxy.clientsCount, count, count+1) {
			dlog.Debugf("clients count: %d", count+1)
			return true
		}
	}
}

func (proxy *Proxy) clientsCountDec() {
	for {
		if count := atomic.LoadUint32(&proxy.clientsCount); count == 0 || atomic.CompareAndSwapUint32(&proxy.clientsCount, count, count-1) {
			break
		}
	}
}

func (proxy *Proxy) processIncomingQuery(clientProto string, query []byte, clientAddr *net.Addr, clientPc net.Conn) {
	if len(query) < MinDNSPacketSize || len(query) > MaxDNSPacketSize {
		return
	}
	queryMsg := dns.Msg{}
	if err := queryMsg.Unpack(query); err != nil {
		return
	}
	response := proxy.answerForQuery(&queryMsg)
	if response == nil {
		return
	}
	packet, err := response.PackBuffer(nil)
	if err != nil {
		return
	}
	if clientProto == "udp" {
		if len(packet) > MaxDNSUDPSafePacketSize {
			truncated := EmptyResponseFromMessage(&queryMsg)
			truncated.Truncated = true
			if packet, err = truncated.PackBuffer(nil); err != nil {
				return
			}
		}
		clientPc.(net.PacketConn).WriteTo(packet, *clientAddr)
	} else {
		if packet, err = PrefixWithSize(packet); err != nil {
			return
		}
		clientPc.Write(packet)
	}
}

// answerForQuery maps the outcome of an iterative resolution back to a
// plain DNS response. Refused undelegated zones come back as NXDOMAIN,
// anything the walk could not answer as SERVFAIL.
func (proxy *Proxy) answerForQuery(queryMsg *dns.Msg) *dns.Msg {
	if len(queryMsg.Question) != 1 {
		return refusedResponseFromMessage(queryMsg)
	}
	question := queryMsg.Question[0]
	if queryMsg.Opcode != dns.OpcodeQuery || question.Qclass != dns.ClassINET {
		return refusedResponseFromMessage(queryMsg)
	}
	qName, err := NormalizeQName(question.Name)
	if err != nil {
		return refusedResponseFromMessage(queryMsg)
	}
	response := EmptyResponseFromMessage(queryMsg)
	response.RecursionAvailable = true
	answer, _, err := proxy.resolver.Resolve(qName, question.Qtype)
	if err != nil {
		if err == ErrUndelegatedZone {
			response.Rcode = dns.RcodeNameError
		} else {
			response.Rcode = dns.RcodeServerFailure
		}
		return response
	}
	response.Answer = []dns.RR{answer}
	return response
}

func refusedResponseFromMessage(queryMsg *dns.Msg) *dns.Msg {
	response := EmptyResponseFromMessage(queryMsg)
	response.Rcode = dns.RcodeRefused
	return response
}
