// Command parapet serves a firewall policy dashboard: it fetches the
// policy collection from an authoritative gateway, derives the zone
// posture matrix and table views, and brokers logging mutations back.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/parapet-sh/parapet/cmd"
)

const defaultConfigFile = "/etc/parapet/parapet.hcl"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		fs := flag.NewFlagSet("serve", flag.ExitOnError)
		configFile := fs.String("config", defaultConfigFile, "Configuration file")
		fs.StringVar(configFile, "c", defaultConfigFile, "Configuration file (short)")
		fs.Parse(os.Args[2:])
		if err := cmd.RunServe(*configFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	case "check":
		fs := flag.NewFlagSet("check", flag.ExitOnError)
		configFile := fs.String("config", defaultConfigFile, "Configuration file")
		fs.StringVar(configFile, "c", defaultConfigFile, "Configuration file (short)")
		fs.Parse(os.Args[2:])
		if err := cmd.RunCheck(*configFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	case "version", "--version", "-v":
		cmd.RunVersion()

	case "help", "--help", "-h":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `parapet - firewall policy posture dashboard

Usage:
  parapet <command> [flags]

Commands:
  serve      Run the dashboard service
  check      Validate a configuration file
  version    Print version information

Flags:
  -c, -config <file>   Configuration file (default %s)
`, defaultConfigFile)
}
