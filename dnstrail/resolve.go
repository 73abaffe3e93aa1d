package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedisct1/dlog"
	"github.com/miekg/dns"
)

func parseNameAndType(arg string) (string, uint16) {
	name, qTypeStr := arg, "A"
	parts := strings.SplitN(arg, ",", 2)
	if len(parts) == 2 {
		name, qTypeStr = parts[0], parts[1]
	}
	qType, found := dns.StringToType[strings.ToUpper(qTypeStr)]
	if !found {
		dlog.Fatalf("Unsupported record type: [%s]", qTypeStr)
	}
	return name, qType
}

// ResolveAndPrint walks the delegation for a single name and prints every
// hop of the trail.
func ResolveAndPrint(resolver *Resolver, name string, qType uint16) {
	fmt.Printf("Resolving [%s] with type %s\n\n", name, dns.Type(qType).String())
	answer, trace, err := resolver.Resolve(name, qType)
	if trace != nil {
		for i, step := range trace.Steps() {
			fmt.Printf("%2d. %-21s %-14s %4dms\n", i+1, step.Server, step.Outcome, step.RTT.Milliseconds())
		}
		if trace.Len() > 0 {
			fmt.Printf("\nTrail         : %s\n", trace.Path())
		}
	}
	if err != nil {
		fmt.Printf("Unable to resolve: [%s]\n", err)
		os.Exit(1)
	}
	fmt.Printf("Final answer  : %s\n", answer)
	if trace != nil {
		fmt.Printf("Elapsed       : %dms\n", trace.Elapsed.Milliseconds())
	}
	fmt.Println()
}

// ResolveBatch reads names from a stream, one per line, resolves each of
// them with type A and prints one tab-separated line per name. The exit
// code reports whether every name could be resolved.
func ResolveBatch(resolver *Resolver, reader io.Reader, writer io.Writer) int {
	exitCode := 0
	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		name := TrimAndStripInlineComments(scanner.Text())
		if len(name) == 0 {
			continue
		}
		answer, trace, err := resolver.Resolve(name, dns.TypeA)
		if err != nil {
			fmt.Fprintf(writer, "%s\tERROR\t%s\n", name, err)
			exitCode = 1
			continue
		}
		addrStr := answer.String()
		if aRecord, ok := answer.(*dns.A); ok {
			addrStr = aRecord.A.String()
		}
		fmt.Fprintf(writer, "%s\t%s\t%s\n", name, addrStr, trace.Path())
	}
	if err := scanner.Err(); err != nil {
		dlog.Error(err)
		exitCode = 1
	}
	return exitCode
}

func printRootLatencies(resolver *Resolver, rounds int) {
	for _, latency := range ProbeRootLatencies(resolver, rounds) {
		if latency.Err != nil {
			fmt.Printf("-     n/a %s (%v)\n", latency.Server, latency.Err)
		} else {
			fmt.Printf("- %5dms %s\n", latency.RTT.Milliseconds(), latency.Server)
		}
	}
}
