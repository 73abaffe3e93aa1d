package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/powerman/check"
)

func sampleTrace() *Trace {
	trace := &Trace{Question: "www.example.com", QType: dns.TypeA, Status: "resolved", Elapsed: 42 * time.Millisecond}
	trace.addStep(TraceStep{Server: "198.41.0.4:53", QName: "www.example.com", QType: dns.TypeA, RTT: 10 * time.Millisecond, Outcome: StepOutcomeGlueReferral})
	trace.addStep(TraceStep{Server: "192.0.2.1:53", QName: "www.example.com", QType: dns.TypeA, RTT: 12 * time.Millisecond, Outcome: StepOutcomeAnswer})
	return trace
}

func TestTracePath(tt *testing.T) {
	t := check.T(tt)

	trace := sampleTrace()
	t.EQ(trace.Len(), 2)
	t.EQ(trace.Path(), "198.41.0.4:53 --> 192.0.2.1:53")
	t.Len(trace.Servers(), 2)
}

func TestTraceStepsAreCopied(tt *testing.T) {
	t := check.T(tt)

	trace := sampleTrace()
	steps := trace.Steps()
	steps[0].Server = "mutated"
	t.EQ(trace.Steps()[0].Server, "198.41.0.4:53")
}

func TestTraceLoggerTSV(tt *testing.T) {
	t := check.T(tt)

	buffer := &bytes.Buffer{}
	traceLogger := NewTraceLogger(buffer, "tsv")
	traceLogger.RecordTrace(sampleTrace())

	line := buffer.String()
	t.Must(len(line) > 0)
	t.True(strings.HasSuffix(line, "\n"))
	fields := strings.Split(strings.TrimSuffix(line, "\n"), "\t")
	t.Len(fields, 6)
	t.EQ(fields[1], "www.example.com")
	t.EQ(fields[2], "A")
	t.EQ(fields[3], "resolved")
	t.EQ(fields[4], "2")
	t.EQ(fields[5], "198.41.0.4:53 --> 192.0.2.1:53")
}

func TestTraceLoggerLTSV(tt *testing.T) {
	t := check.T(tt)

	buffer := &bytes.Buffer{}
	traceLogger := NewTraceLogger(buffer, "ltsv")
	traceLogger.RecordTrace(sampleTrace())

	line := buffer.String()
	t.True(strings.HasPrefix(line, "time:"))
	t.Match(line, "\tqname:www.example.com\t")
	t.Match(line, "\ttype:A\t")
	t.Match(line, "\tstatus:resolved\t")
	t.Match(line, "\tsteps:2\t")
}

func TestTraceLoggerIgnoredQTypes(tt *testing.T) {
	t := check.T(tt)

	buffer := &bytes.Buffer{}
	traceLogger := NewTraceLogger(buffer, "tsv")
	traceLogger.ignoredQTypes = []string{"a", "NS"}
	traceLogger.RecordTrace(sampleTrace())
	t.EQ(buffer.Len(), 0)

	trace := sampleTrace()
	trace.QType = dns.TypeTXT
	traceLogger.RecordTrace(trace)
	t.Must(buffer.Len() > 0)
}
