package main

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/jedisct1/dlog"
	"github.com/miekg/dns"
)

const (
	StepOutcomeAnswer       = "answer"
	StepOutcomeCNAME        = "cname"
	StepOutcomeGlueReferral = "glue referral"
	StepOutcomeReferral     = "referral"
	StepOutcomeLame         = "lame"
	StepOutcomeTimeout      = "timeout"
	StepOutcomeNetworkError = "network error"
	StepOutcomeDecodeError  = "decode error"
)

// TraceStep records one server actually queried during a resolution.
type TraceStep struct {
	Server  string
	QName   string
	QType   uint16
	RTT     time.Duration
	Outcome string
}

// Trace is the ordered list of servers queried by a single resolution.
// Nested resolutions (canonical-name chases, glue lookups) carry their own
// traces. The engine only ever appends to it and never reads it back.
type Trace struct {
	Question string
	QType    uint16
	Depth    int
	Status   string
	Elapsed  time.Duration
	steps    []TraceStep
}

func (trace *Trace) addStep(step TraceStep) {
	trace.steps = append(trace.steps, step)
}

func (trace *Trace) Len() int {
	return len(trace.steps)
}

func (trace *Trace) Steps() []TraceStep {
	steps := make([]TraceStep, len(trace.steps))
	copy(steps, trace.steps)
	return steps
}

func (trace *Trace) Servers() []string {
	servers := make([]string, 0, len(trace.steps))
	for _, step := range trace.steps {
		servers = append(servers, step.Server)
	}
	return servers
}

// Path renders the queried servers joined by " --> ", in query order.
func (trace *Trace) Path() string {
	return strings.Join(trace.Servers(), " --> ")
}

// A TraceSink receives the trace of every completed resolution, including
// nested ones. Implementations must be safe for concurrent use.
type TraceSink interface {
	RecordTrace(trace *Trace)
}

// TraceLogger writes one line per completed resolution to a log file, in
// the same tsv/ltsv formats used for query logs.
type TraceLogger struct {
	sync.Mutex
	writer        io.Writer
	format        string
	ignoredQTypes []string
}

func NewTraceLogger(writer io.Writer, format string) *TraceLogger {
	return &TraceLogger{writer: writer, format: format}
}

func (traceLogger *TraceLogger) RecordTrace(trace *Trace) {
	qType, ok := dns.TypeToString[trace.QType]
	if !ok {
		qType = fmt.Sprintf("TYPE%d", trace.QType)
	}
	for _, ignored := range traceLogger.ignoredQTypes {
		if strings.EqualFold(ignored, qType) {
			return
		}
	}
	var line string
	if traceLogger.format == "tsv" {
		now := time.Now()
		year, month, day := now.Date()
		hour, minute, second := now.Clock()
		tsStr := fmt.Sprintf("[%d-%02d-%02d %02d:%02d:%02d]", year, int(month), day, hour, minute, second)
		line = fmt.Sprintf("%s\t%s\t%s\t%s\t%d\t%s\n", tsStr, StringQuote(trace.Question), qType,
			StringQuote(trace.Status), trace.Len(), StringQuote(trace.Path()))
	} else if traceLogger.format == "ltsv" {
		line = fmt.Sprintf("time:%d\tqname:%s\ttype:%s\tstatus:%s\tsteps:%d\tpath:%s\n",
			time.Now().Unix(), StringQuote(trace.Question), qType, StringQuote(trace.Status),
			trace.Len(), StringQuote(trace.Path()))
	} else {
		dlog.Fatalf("Unexpected log format: [%s]", traceLogger.format)
	}
	traceLogger.Lock()
	defer traceLogger.Unlock()
	if traceLogger.writer == nil {
		return
	}
	traceLogger.writer.Write([]byte(line))
}
