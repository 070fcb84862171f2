package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/tase2-protocol/tase2-go/pkg/client"
	"github.com/tase2-protocol/tase2-go/pkg/mms"
	"github.com/tase2-protocol/tase2-go/pkg/model"
)

// shell is the interactive command loop.
type shell struct {
	c  *client.Client
	rl *readline.Instance
}

func newShell(c *client.Client) (*shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "tase2> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("create readline: %w", err)
	}
	return &shell{c: c, rl: rl}, nil
}

func (s *shell) run() {
	defer s.rl.Close()
	s.printHelp()

	for {
		line, err := s.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(s.rl.Stdout(), "Exiting...")
			return
		}

		parts := strings.Fields(strings.TrimSpace(line))
		if len(parts) == 0 {
			continue
		}
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help", "?":
			s.printHelp()
		case "domains", "d":
			s.cmdDomains()
		case "vars", "v":
			s.cmdVars(args)
		case "sets":
			s.cmdSets(args)
		case "read", "r":
			s.cmdRead(args)
		case "write", "w":
			s.cmdWrite(args)
		case "select":
			s.cmdSelect(args)
		case "operate", "op":
			s.cmdOperate(args)
		case "cancel":
			s.cmdCancel(args)
		case "tag":
			s.cmdTag(args)
		case "ts":
			s.cmdTransferSets(args)
		case "enable":
			s.cmdEnable(args, true)
		case "disable":
			s.cmdEnable(args, false)
		case "info":
			s.cmdInfo(args)
		case "server":
			s.cmdServer()
		case "security":
			s.cmdSecurity()
		case "stats":
			s.cmdStats()
		case "quit", "exit", "q":
			fmt.Fprintln(s.rl.Stdout(), "Exiting...")
			return
		default:
			fmt.Fprintf(s.rl.Stdout(), "Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
}

func (s *shell) printHelp() {
	fmt.Fprintln(s.rl.Stdout(), `
TASE.2 Client Commands:
  Discovery:
    domains                     - List domains
    vars <domain>               - List a domain's variables
    sets <domain>               - List a domain's data sets

  Data:
    read <domain> <name>        - Read and decode a point
    write <domain> <name> <val> - Write a variable

  Control (Block 5):
    select <domain> <device>    - Select a device
    operate <domain> <device> <val> - Operate a selected device
    cancel <domain> <device>    - Cancel a select
    tag <domain> <device> <0-3> [reason] - Tag a device

  Transfer Sets (Block 2):
    ts <domain>                 - Discover transfer sets
    enable <domain> <name>      - Enable a transfer set
    disable <domain> <name>     - Disable a transfer set

  Other:
    info <domain>               - List information buffers
    server                      - Show server identity
    security                    - Run the security analysis
    stats                       - Show client statistics
    quit                        - Exit`)
}

func (s *shell) out() io.Writer { return s.rl.Stdout() }

func (s *shell) cmdDomains() {
	domains, err := s.c.Domains(false)
	if err != nil {
		fmt.Fprintf(s.out(), "Error: %v\n", err)
		return
	}
	for _, d := range domains {
		fmt.Fprintf(s.out(), "  %-24s %s  (%d variables, %d data sets)\n",
			d.Name, d.Type(), len(d.Variables), len(d.DataSets))
	}
}

func (s *shell) cmdVars(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(s.out(), "Usage: vars <domain>")
		return
	}
	d, err := s.c.Domain(args[0])
	if err != nil {
		fmt.Fprintf(s.out(), "Error: %v\n", err)
		return
	}
	for _, v := range d.Variables {
		fmt.Fprintf(s.out(), "  %s\n", v)
	}
}

func (s *shell) cmdSets(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(s.out(), "Usage: sets <domain>")
		return
	}
	sets, err := s.c.DataSets(args[0])
	if err != nil {
		fmt.Fprintf(s.out(), "Error: %v\n", err)
		return
	}
	for _, ds := range sets {
		fmt.Fprintf(s.out(), "  %s\n", ds.Name)
	}
}

func (s *shell) cmdRead(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(s.out(), "Usage: read <domain> <name>")
		return
	}
	pv, err := s.c.ReadPoint(args[0], args[1])
	if err != nil {
		fmt.Fprintf(s.out(), "Error: %v\n", err)
		return
	}
	fmt.Fprintf(s.out(), "  %s/%s = %v  [%s]", pv.Domain, pv.Name, pv.Value, pv.Quality)
	if pv.Timestamp != nil {
		fmt.Fprintf(s.out(), "  @ %s", pv.Timestamp.Format("2006-01-02 15:04:05.000"))
	}
	if pv.COVCounter != nil {
		fmt.Fprintf(s.out(), "  cov=%d", *pv.COVCounter)
	}
	fmt.Fprintln(s.out())
}

func (s *shell) cmdWrite(args []string) {
	if len(args) < 3 {
		fmt.Fprintln(s.out(), "Usage: write <domain> <name> <value>")
		return
	}
	if err := s.c.WritePoint(args[0], args[1], parseValue(args[2])); err != nil {
		fmt.Fprintf(s.out(), "Error: %v\n", err)
		return
	}
	fmt.Fprintln(s.out(), "OK")
}

func (s *shell) cmdSelect(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(s.out(), "Usage: select <domain> <device>")
		return
	}
	sel, err := s.c.Select(args[0], args[1])
	if err != nil {
		fmt.Fprintf(s.out(), "Error: %v\n", err)
		return
	}
	if sel.Implicit {
		fmt.Fprintf(s.out(), "Selected (implicit); operate within %s\n", client.SBOTimeout)
	} else {
		fmt.Fprintf(s.out(), "Selected via %s; operate within %s\n", sel.Candidate, client.SBOTimeout)
	}
}

func (s *shell) cmdOperate(args []string) {
	if len(args) < 3 {
		fmt.Fprintln(s.out(), "Usage: operate <domain> <device> <value>")
		return
	}
	if err := s.c.Operate(args[0], args[1], parseValue(args[2])); err != nil {
		fmt.Fprintf(s.out(), "Error: %v\n", err)
		return
	}
	fmt.Fprintln(s.out(), "Operated")
}

func (s *shell) cmdCancel(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(s.out(), "Usage: cancel <domain> <device>")
		return
	}
	if s.c.CancelSelect(args[0], args[1]) {
		fmt.Fprintln(s.out(), "Cancelled")
	} else {
		fmt.Fprintln(s.out(), "No select record")
	}
}

func (s *shell) cmdTag(args []string) {
	if len(args) < 3 {
		fmt.Fprintln(s.out(), "Usage: tag <domain> <device> <0-3> [reason]")
		return
	}
	value, err := strconv.Atoi(args[2])
	if err != nil || value < 0 || value > 3 {
		fmt.Fprintln(s.out(), "Tag value must be 0 (none), 1 (open+close inhibit), 2 (close inhibit) or 3 (invalid)")
		return
	}
	reason := strings.Join(args[3:], " ")
	if err := s.c.SetTag(args[0], args[1], model.TagValue(value), reason); err != nil {
		fmt.Fprintf(s.out(), "Error: %v\n", err)
		return
	}
	fmt.Fprintf(s.out(), "Tagged %s\n", model.TagValue(value))
}

func (s *shell) cmdTransferSets(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(s.out(), "Usage: ts <domain>")
		return
	}
	sets, err := s.c.TransferSets(args[0])
	if err != nil {
		fmt.Fprintf(s.out(), "Error: %v\n", err)
		return
	}
	if len(sets) == 0 {
		fmt.Fprintln(s.out(), "No transfer sets found")
		return
	}
	for _, ts := range sets {
		details, err := s.c.TransferSetDetails(args[0], ts.Name)
		if err != nil {
			details = ts
		}
		fmt.Fprintf(s.out(), "  %-24s interval=%ds buffer=%ds rbe=%v conditions=%s\n",
			details.Name, details.Interval, details.BufferTime, details.RBEEnabled, details.Conditions)
	}
}

func (s *shell) cmdEnable(args []string, enable bool) {
	if len(args) < 2 {
		fmt.Fprintln(s.out(), "Usage: enable|disable <domain> <name>")
		return
	}
	var ok bool
	if enable {
		ok = s.c.EnableTransferSet(args[0], args[1])
	} else {
		ok = s.c.DisableTransferSet(args[0], args[1])
	}
	if ok {
		fmt.Fprintln(s.out(), "OK")
	} else {
		fmt.Fprintln(s.out(), "No enable variable accepted the write")
	}
}

func (s *shell) cmdInfo(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(s.out(), "Usage: info <domain>")
		return
	}
	bufs, err := s.c.InfoBuffers(args[0])
	if err != nil {
		fmt.Fprintf(s.out(), "Error: %v\n", err)
		return
	}
	if len(bufs) == 0 {
		fmt.Fprintln(s.out(), "No information buffers")
		return
	}
	for _, b := range bufs {
		fmt.Fprintf(s.out(), "  %-32s size=%d entries=%d\n", b.Name, b.Size, b.EntryCount)
	}
}

func (s *shell) cmdServer() {
	info, err := s.c.ServerInfo()
	if err != nil {
		fmt.Fprintf(s.out(), "Error: %v\n", err)
		return
	}
	fmt.Fprintf(s.out(), "  Vendor:    %s\n", info.Vendor)
	fmt.Fprintf(s.out(), "  Model:     %s\n", info.Model)
	fmt.Fprintf(s.out(), "  Revision:  %s\n", info.Revision)
	if info.BilateralTableID != "" {
		fmt.Fprintf(s.out(), "  Bilateral: %s (%d tables)\n", info.BilateralTableID, info.BilateralTableCount)
	}
	if blocks, err := s.c.SupportedFeatures(); err == nil && len(blocks) > 0 {
		fmt.Fprintf(s.out(), "  Blocks:    %v\n", blocks)
	}
}

func (s *shell) cmdSecurity() {
	findings, err := s.c.AnalyzeSecurity()
	if err != nil {
		fmt.Fprintf(s.out(), "Error: %v\n", err)
		return
	}
	fmt.Fprintln(s.out(), findings.Format())
}

func (s *shell) cmdStats() {
	stats := s.c.Statistics()
	fmt.Fprintf(s.out(), "  Reads:    %d\n", stats.Reads)
	fmt.Fprintf(s.out(), "  Writes:   %d\n", stats.Writes)
	fmt.Fprintf(s.out(), "  Controls: %d\n", stats.ControlOps)
	fmt.Fprintf(s.out(), "  Reports:  %d\n", stats.ReportsReceived)
	fmt.Fprintf(s.out(), "  Errors:   %d\n", stats.Errors)
	fmt.Fprintf(s.out(), "  Uptime:   %s\n", stats.Uptime().Round(time.Millisecond))
}

// parseValue interprets a shell argument as the narrowest fitting
// value type: bool, integer, float, then string.
func parseValue(arg string) mms.Value {
	switch strings.ToLower(arg) {
	case "true", "on":
		return mms.NewBool(true)
	case "false", "off":
		return mms.NewBool(false)
	}
	if n, err := strconv.ParseInt(arg, 10, 64); err == nil {
		return mms.NewInt64(n)
	}
	if f, err := strconv.ParseFloat(arg, 64); err == nil {
		return mms.NewFloat64(f)
	}
	return mms.NewVisibleString(arg)
}
