// Command tase2-cli is an interactive TASE.2 (ICCP) client shell.
//
// Usage:
//
//	tase2-cli [flags]
//
// Flags:
//
//	-host string          Server host
//	-port int             Server port (default 102)
//	-timeout duration     Connect timeout (default 10s)
//	-protocol-log string  Write the protocol event log to this file
//	-simulate             Connect to the built-in demo server
//
// Interactive Commands:
//
//	domains                     - List domains
//	vars <domain>               - List a domain's variables
//	sets <domain>               - List a domain's data sets
//	read <domain> <name>        - Read and decode a point
//	write <domain> <name> <val> - Write a variable
//	select <domain> <device>    - Select a device for control
//	operate <domain> <device> <val> - Operate a selected device
//	cancel <domain> <device>    - Cancel a select
//	tag <domain> <device> <0-3> [reason] - Tag a device
//	ts <domain>                 - Discover transfer sets
//	enable <domain> <name>      - Enable a transfer set
//	disable <domain> <name>     - Disable a transfer set
//	info <domain>               - List information buffers
//	server                      - Show server identity
//	security                    - Run the security analysis
//	stats                       - Show client statistics
//	quit                        - Exit
//
// A network session requires an MMS transport implementing the
// client.Connection contract; without one, use -simulate.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tase2-protocol/tase2-go/internal/simulator"
	"github.com/tase2-protocol/tase2-go/pkg/client"
	"github.com/tase2-protocol/tase2-go/pkg/log"
)

func main() {
	host := flag.String("host", "", "Server host")
	port := flag.Int("port", client.DefaultPort, "Server port")
	timeout := flag.Duration("timeout", client.DefaultTimeout, "Connect timeout")
	protocolLog := flag.String("protocol-log", "", "Write the protocol event log to this file")
	simulate := flag.Bool("simulate", false, "Connect to the built-in demo server")
	flag.Parse()

	var logger log.Logger
	if *protocolLog != "" {
		fl, err := log.NewFileLogger(*protocolLog)
		if err != nil {
			fmt.Fprintf(os.Stderr, "tase2-cli: %v\n", err)
			os.Exit(1)
		}
		defer fl.Close()
		logger = fl
	}

	var conn client.Connection
	switch {
	case *simulate:
		conn = simulator.Demo()
		*host = "simulator"
	case *host != "":
		fmt.Fprintf(os.Stderr, "tase2-cli: no MMS transport available for %s; build one against client.Connection or use -simulate\n", *host)
		os.Exit(1)
	default:
		fmt.Fprintln(os.Stderr, "tase2-cli: no target; use -host or -simulate")
		os.Exit(1)
	}

	c := client.NewWithConfig(conn, client.Config{Timeout: *timeout, Logger: logger})
	if err := c.Connect(*host, *port); err != nil {
		fmt.Fprintf(os.Stderr, "tase2-cli: %v\n", err)
		os.Exit(1)
	}
	defer c.Disconnect()

	shell, err := newShell(c)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tase2-cli: %v\n", err)
		os.Exit(1)
	}
	shell.run()
}
