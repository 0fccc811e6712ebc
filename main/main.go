// Command mailauth verifies the DKIM signatures and DMARC policy of a
// message, and inspects the DNS records involved.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/synqronlabs/mailauth/dns"
)

// Exit statuses.
const (
	exitOK      = 0
	exitWarning = 1
	exitFailed  = 2
	exitUsage   = 3
)

func main() {
	app := cli.NewApp()
	app.Name = "mailauth"
	app.Usage = "verify DKIM signatures and DMARC policies"
	app.Flags = []cli.Flag{
		&cli.StringSliceFlag{
			Name:    "nameserver",
			Aliases: []string{"n"},
			Usage:   "DNS server to query, as host:port; repeatable",
			EnvVars: []string{"MAILAUTH_NAMESERVERS"},
		},
		&cli.DurationFlag{
			Name:    "dns-timeout",
			Usage:   "timeout for a single DNS query",
			EnvVars: []string{"MAILAUTH_DNS_TIMEOUT"},
			Value:   5 * time.Second,
		},
		&cli.BoolFlag{
			Name:  "dnssec",
			Usage: "request DNSSEC validation from the nameserver",
		},
		&cli.BoolFlag{
			Name:  "system-resolver",
			Usage: "use the Go resolver instead of querying nameservers directly",
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "log level: debug, info, warn or error",
			EnvVars: []string{"MAILAUTH_LOG_LEVEL"},
			Value:   "warn",
		},
	}
	app.Before = func(c *cli.Context) error {
		var level slog.Level
		if err := level.UnmarshalText([]byte(c.String("log-level"))); err != nil {
			return fmt.Errorf("invalid log level %q", c.String("log-level"))
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		return nil
	}
	app.ExitErrHandler = func(c *cli.Context, err error) {
		if err == nil {
			return
		}
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			cli.HandleExitCoder(err)
			return
		}
		fmt.Fprintln(os.Stderr, "mailauth:", err)
		cli.OsExiter(exitUsage)
	}
	app.Commands = []*cli.Command{
		verifyCommand,
		dmarcCommand,
		keyCommand,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "mailauth:", err)
		os.Exit(exitUsage)
	}
}

// newResolver builds the DNS resolver from the global flags.
func newResolver(c *cli.Context) dns.Resolver {
	if c.Bool("system-resolver") {
		return dns.NewStdResolver()
	}

	var nameservers []string
	for _, ns := range c.StringSlice("nameserver") {
		for _, s := range strings.Split(ns, ",") {
			if s = strings.TrimSpace(s); s != "" {
				nameservers = append(nameservers, withPort(s))
			}
		}
	}
	return dns.NewResolver(dns.ResolverConfig{
		Nameservers: nameservers,
		DNSSEC:      c.Bool("dnssec"),
		Timeout:     c.Duration("dns-timeout"),
		Logger:      slog.Default(),
	})
}

// withPort adds the DNS port to a nameserver given without one.
func withPort(ns string) string {
	if strings.HasPrefix(ns, "[") || strings.Count(ns, ":") == 1 {
		return ns
	}
	if strings.Contains(ns, ":") {
		return "[" + ns + "]:53"
	}
	return ns + ":53"
}
