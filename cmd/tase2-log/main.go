// Command tase2-log views and analyzes TASE.2 protocol log files.
//
// Log files are created by passing -protocol-log to tase2-scan or
// tase2-cli, or by wiring a log.FileLogger into an embedding
// application.
//
// Usage:
//
//	tase2-log <command> [flags] <file.tlog>
//
// Commands:
//
//	view     View log file in human-readable format
//	export   Export log file to JSON lines
//	stats    Show statistics about the log file
//
// Examples:
//
//	# View all events
//	tase2-log view scan.tlog
//
//	# View only control operations in one domain
//	tase2-log view -category control -domain ICC1 scan.tlog
//
//	# Export to JSONL
//	tase2-log export scan.tlog > scan.jsonl
//
//	# Show statistics
//	tase2-log stats scan.tlog
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tase2-protocol/tase2-go/pkg/log"
)

const usage = `tase2-log - TASE.2 Protocol Log Analyzer

Usage:
  tase2-log <command> [flags] <file.tlog>

Commands:
  view     View log file in human-readable format
  export   Export log file to JSON lines
  stats    Show statistics about the log file

Use "tase2-log <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		runView(args)
	case "export":
		runExport(args)
	case "stats":
		runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func runView(args []string) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	category := fs.String("category", "", "Filter by category (data, control, discovery, report, state, error)")
	domain := fs.String("domain", "", "Filter by domain")
	variable := fs.String("variable", "", "Filter by variable name")
	connID := fs.String("conn-id", "", "Filter by connection ID")
	parse(fs, args)

	filter := log.Filter{
		ConnectionID: *connID,
		Domain:       *domain,
		Variable:     *variable,
	}
	if *category != "" {
		c, err := parseCategory(*category)
		if err != nil {
			fatal(err)
		}
		filter.Category = &c
	}

	forEach(fs.Arg(0), filter, func(e log.Event) {
		fmt.Println(formatEvent(e))
	})
}

func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	parse(fs, args)

	enc := json.NewEncoder(os.Stdout)
	forEach(fs.Arg(0), log.Filter{}, func(e log.Event) {
		if err := enc.Encode(e); err != nil {
			fatal(err)
		}
	})
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	parse(fs, args)

	var total, errors int
	categories := map[string]int{}
	ops := map[string]int{}
	domains := map[string]int{}

	forEach(fs.Arg(0), log.Filter{}, func(e log.Event) {
		total++
		categories[e.Category.String()]++
		if e.Op != log.OpNone {
			ops[e.Op.String()]++
		}
		if e.Domain != "" {
			domains[e.Domain]++
		}
		if e.Error != nil {
			errors++
		}
	})

	fmt.Printf("Events:  %d (%d errors)\n", total, errors)
	printCounts("By category", categories)
	printCounts("By operation", ops)
	printCounts("By domain", domains)
}

func parse(fs *flag.FlagSet, args []string) {
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Expected exactly one log file argument")
		fs.Usage()
		os.Exit(1)
	}
}

// forEach streams every matching event of a log file through fn.
func forEach(path string, filter log.Filter, fn func(log.Event)) {
	r, err := log.NewFilteredReader(path, filter)
	if err != nil {
		fatal(err)
	}
	defer r.Close()

	for {
		event, err := r.Next()
		if err == io.EOF {
			return
		}
		if err != nil {
			fatal(err)
		}
		fn(event)
	}
}

func parseCategory(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "data":
		return log.CategoryData, nil
	case "control":
		return log.CategoryControl, nil
	case "discovery":
		return log.CategoryDiscovery, nil
	case "report":
		return log.CategoryReport, nil
	case "state":
		return log.CategoryState, nil
	case "error":
		return log.CategoryError, nil
	default:
		return 0, fmt.Errorf("unknown category: %s", s)
	}
}

// formatEvent renders one event as a single line.
func formatEvent(e log.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %-3s %-9s %-10s",
		e.Timestamp.Format("15:04:05.000"), e.Direction, e.Category, e.Op)
	if e.Domain != "" {
		fmt.Fprintf(&b, " %s", e.Domain)
		if e.Variable != "" {
			fmt.Fprintf(&b, "/%s", e.Variable)
		}
	} else if e.Variable != "" {
		fmt.Fprintf(&b, " %s", e.Variable)
	}

	switch {
	case e.Data != nil:
		if e.Data.Count > 0 {
			fmt.Fprintf(&b, " count=%d", e.Data.Count)
		}
		if e.Data.Value != "" {
			fmt.Fprintf(&b, " value=%s", e.Data.Value)
		}
		if e.Data.Quality != nil {
			fmt.Fprintf(&b, " quality=0x%02X", *e.Data.Quality)
		}
	case e.Control != nil:
		if e.Control.Value != "" {
			fmt.Fprintf(&b, " value=%s", e.Control.Value)
		}
		if e.Control.Candidate != "" {
			fmt.Fprintf(&b, " via=%s", e.Control.Candidate)
		}
		if e.Control.Implicit {
			b.WriteString(" implicit")
		}
	case e.Report != nil:
		fmt.Fprintf(&b, " ts=%s points=%d seq=%d",
			e.Report.TransferSet, e.Report.Points, e.Report.Sequence)
	case e.StateChange != nil:
		fmt.Fprintf(&b, " %s -> %s", e.StateChange.Entity, e.StateChange.NewState)
		if e.StateChange.Reason != "" {
			fmt.Fprintf(&b, " (%s)", e.StateChange.Reason)
		}
	case e.Error != nil:
		fmt.Fprintf(&b, " error=%q", e.Error.Message)
		if e.Error.Context != "" {
			fmt.Fprintf(&b, " during=%s", e.Error.Context)
		}
	}
	return b.String()
}

func printCounts(title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	fmt.Printf("\n%s:\n", title)
	for k, v := range counts {
		fmt.Printf("  %-12s %d\n", k, v)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "tase2-log: %v\n", err)
	os.Exit(1)
}
