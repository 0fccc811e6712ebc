package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/synqronlabs/mailauth"
	"github.com/synqronlabs/mailauth/dkim"
	"github.com/synqronlabs/mailauth/dmarc"
)

var verifyCommand = &cli.Command{
	Name:      "verify",
	Usage:     "Verify the DKIM signatures and DMARC policy of a message",
	ArgsUsage: "FILE|-",
	Description: `Reads a message in RFC 5322 format from FILE, or from standard input
for "-", and reports the verification result. Bare LF line endings are
converted to CRLF first.

Exit status is 0 for SUCCESS or NONE, 1 for WARNING and 2 for FAILED.`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "output format: text, authres, json or msgpack",
			Value:   "text",
		},
		&cli.StringFlag{
			Name:  "hostname",
			Usage: "authserv-id used in Authentication-Results output",
		},
	},
	Action: verifyAction,
}

func verifyAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("verify: expected one FILE argument")
	}
	raw, err := readMessage(c.Args().First())
	if err != nil {
		return err
	}

	v := &mailauth.Verifier{Resolver: newResolver(c)}
	res, err := v.VerifyMessage(c.Context, bytes.NewReader(toCRLF(raw)))
	if err != nil {
		return err
	}

	out := c.App.Writer
	switch c.String("format") {
	case "text":
		fmt.Fprintln(out, res.ShortMessage())
		fmt.Fprintln(out)
		fmt.Fprint(out, res.LongMessage())
	case "authres":
		hostname := c.String("hostname")
		if hostname == "" {
			hostname, _ = os.Hostname()
		}
		fmt.Fprintln(out, "Authentication-Results: "+res.AuthenticationResults(hostname))
	case "json":
		data, err := res.ToJSONIndent()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
	case "msgpack":
		data, err := res.ToMessagePack()
		if err != nil {
			return err
		}
		if _, err := out.Write(data); err != nil {
			return err
		}
	default:
		return fmt.Errorf("verify: unknown format %q", c.String("format"))
	}

	if code := exitStatus(res.Status); code != exitOK {
		return cli.Exit("", code)
	}
	return nil
}

func readMessage(name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(name)
}

// toCRLF converts bare LF line endings to CRLF.
func toCRLF(b []byte) []byte {
	if !bytes.Contains(b, []byte("\n")) {
		return b
	}
	out := make([]byte, 0, len(b)+bytes.Count(b, []byte("\n")))
	for i, c := range b {
		if c == '\n' && (i == 0 || b[i-1] != '\r') {
			out = append(out, '\r')
		}
		out = append(out, c)
	}
	return out
}

func exitStatus(s dkim.Status) int {
	switch s {
	case dkim.StatusWarning:
		return exitWarning
	case dkim.StatusFailed:
		return exitFailed
	}
	return exitOK
}

var dmarcCommand = &cli.Command{
	Name:      "dmarc",
	Usage:     "Resolve the DMARC policy of a domain",
	ArgsUsage: "DOMAIN",
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return fmt.Errorf("dmarc: expected one DOMAIN argument")
		}
		domain := strings.ToLower(strings.TrimSuffix(c.Args().First(), "."))

		r := &dmarc.PolicyResolver{Resolver: newResolver(c)}
		policy, err := r.Resolve(c.Context, domain)
		if err != nil {
			return err
		}

		out := c.App.Writer
		fmt.Fprintf(out, "Record:    %s\n", policy.Record)
		fmt.Fprintf(out, "Published: %s\n", dmarc.PolicyName(policy.Domain))
		fmt.Fprintf(out, "Policy:    %s\n", policy.Record.EffectivePolicy(policy.Domain != domain))
		fmt.Fprintf(out, "DKIM:      %s alignment\n", alignmentName(policy.Record.StrictAlignment()))
		fmt.Fprintf(out, "DNSSEC:    %v\n", policy.Authentic)
		return nil
	},
}

func alignmentName(strict bool) string {
	if strict {
		return "strict"
	}
	return "relaxed"
}

var keyCommand = &cli.Command{
	Name:      "key",
	Usage:     "Resolve and describe a DKIM public key",
	ArgsUsage: "SELECTOR DOMAIN [ALGORITHM]",
	Description: `ALGORITHM is the a= value of a signature using the key and defaults to
rsa-sha256.`,
	Action: func(c *cli.Context) error {
		if c.NArg() < 2 || c.NArg() > 3 {
			return fmt.Errorf("key: expected SELECTOR DOMAIN [ALGORITHM]")
		}
		alg := "rsa-sha256"
		if c.NArg() == 3 {
			alg = c.Args().Get(2)
		}
		kt, hash, err := parseAlgorithm(alg)
		if err != nil {
			return err
		}
		sig := &dkim.Signature{
			Selector: c.Args().Get(0),
			Domain:   strings.ToLower(strings.TrimSuffix(c.Args().Get(1), ".")),
			KeyType:  kt,
			Hash:     hash,
		}

		r := &dkim.KeyResolver{Resolver: newResolver(c)}
		key, err := r.Resolve(c.Context, sig)
		if err != nil {
			return err
		}

		out := c.App.Writer
		fmt.Fprintf(out, "Name:     %s\n", dkim.KeyName(sig.Selector, sig.Domain))
		fmt.Fprintf(out, "Type:     %s, %d bits\n", kt, key.Bits())
		if len(key.Hashes) > 0 {
			fmt.Fprintf(out, "Hashes:   %s\n", strings.Join(key.Hashes, ":"))
		}
		if len(key.Services) > 0 {
			fmt.Fprintf(out, "Services: %s\n", strings.Join(key.Services, ":"))
		}
		if len(key.Flags) > 0 {
			fmt.Fprintf(out, "Flags:    %s\n", strings.Join(key.Flags, ":"))
		}
		if key.IsTesting() {
			fmt.Fprintln(out, "The domain is testing DKIM.")
		}
		if key.Notes != "" {
			fmt.Fprintf(out, "Notes:    %s\n", key.Notes)
		}
		return nil
	},
}

// parseAlgorithm splits an a= value into its key type and hash.
func parseAlgorithm(alg string) (dkim.KeyType, dkim.HashAlg, error) {
	switch strings.ToLower(alg) {
	case "rsa-sha256":
		return dkim.KeyRSA, dkim.HashSHA256, nil
	case "rsa-sha1":
		return dkim.KeyRSA, dkim.HashSHA1, nil
	case "ed25519-sha256":
		return dkim.KeyEd25519, dkim.HashSHA256, nil
	}
	return "", "", fmt.Errorf("key: unsupported algorithm %q", alg)
}
