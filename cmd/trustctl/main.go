package main

import (
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/clipsync/clipsync-trust-backend/certinspect"
	"github.com/clipsync/clipsync-trust-backend/cmd/flags"
	"github.com/clipsync/clipsync-trust-backend/trust"
	"github.com/urfave/cli/v2"
)

const defaultPort = 443

var ctlFlags = []cli.Flag{
	flags.TrustFileFlag,
	flags.LogJsonFlag,
	flags.LogDebugFlag,
	flags.LogServiceFlagFn("trustctl"),
}

func main() {
	app := &cli.App{
		Name:  "trustctl",
		Usage: "Manage trusted clipboard sync endpoints",
		Flags: ctlFlags,
		Commands: []*cli.Command{
			{
				Name:      "inspect",
				Usage:     "Fetch and describe the certificate an endpoint presents",
				ArgsUsage: "<host[:port]>",
				Action:    runInspect,
			},
			{
				Name:      "trust",
				Usage:     "Evaluate an endpoint and pin its fingerprint after confirmation",
				ArgsUsage: "<host[:port]>",
				Action:    runTrust,
			},
			{
				Name:      "untrust",
				Usage:     "Remove the pinned fingerprint for a host",
				ArgsUsage: "<host>",
				Action:    runUntrust,
			},
			{
				Name:   "list",
				Usage:  "List pinned hosts and their fingerprints",
				Action: runList,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func trustFilePath(cCtx *cli.Context) (string, error) {
	if path := cCtx.String(flags.TrustFileFlag.Name); path != "" {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".config", "clipsync", "trusted_hosts.toml"), nil
}

func hostPortArg(cCtx *cli.Context) (string, int, error) {
	arg := cCtx.Args().First()
	if arg == "" {
		return "", 0, fmt.Errorf("expected a host argument")
	}
	return splitEndpoint(arg)
}

// splitEndpoint parses host[:port], defaulting the port. A bracketed
// IPv6 literal without a port ("[::1]") loses its brackets so the host
// can be re-joined with a port later.
func splitEndpoint(arg string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(arg)
	if err != nil {
		host = strings.TrimSuffix(strings.TrimPrefix(arg, "["), "]")
		return host, defaultPort, nil
	}

	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return "", 0, fmt.Errorf("invalid port in %q", arg)
	}
	return host, port, nil
}

func runInspect(cCtx *cli.Context) error {
	host, port, err := hostPortArg(cCtx)
	if err != nil {
		return err
	}

	info, err := certinspect.Fetch(cCtx.Context, host, port)
	if err != nil {
		return err
	}

	fmt.Printf("Host:           %s:%d\n", host, port)
	fmt.Printf("Subject:        %s\n", info.SubjectCN)
	fmt.Printf("Issuer:         %s\n", info.IssuerCN)
	fmt.Printf("Valid:          %s to %s\n",
		info.NotBefore.Format("2006-01-02"), info.NotAfter.Format("2006-01-02"))
	fmt.Printf("Self-signed:    %t\n", info.SelfSigned)
	fmt.Printf("System trusted: %t\n", info.SystemTrusted)
	fmt.Printf("SHA-256:        %s\n", info.Fingerprint)

	return nil
}

func runTrust(cCtx *cli.Context) error {
	host, port, err := hostPortArg(cCtx)
	if err != nil {
		return err
	}

	path, err := trustFilePath(cCtx)
	if err != nil {
		return err
	}
	store, err := trust.OpenFileTrustStore(path)
	if err != nil {
		return err
	}

	info, err := certinspect.Fetch(cCtx.Context, host, port)
	if err != nil {
		return err
	}

	logger := flags.SetupLogger(cCtx)
	prompter := &trust.TerminalPrompter{In: os.Stdin, Out: os.Stderr}
	engine := trust.NewEngine(store, prompter, logger)

	if err := engine.Evaluate(info); err != nil {
		return err
	}

	fmt.Printf("%s is trusted\n", host)
	return nil
}

func runUntrust(cCtx *cli.Context) error {
	host := cCtx.Args().First()
	if host == "" {
		return fmt.Errorf("expected a host argument")
	}

	path, err := trustFilePath(cCtx)
	if err != nil {
		return err
	}
	store, err := trust.OpenFileTrustStore(path)
	if err != nil {
		return err
	}

	if err := store.Unpin(host); err != nil {
		return err
	}

	fmt.Printf("Removed pin for %s\n", host)
	return nil
}

func runList(cCtx *cli.Context) error {
	path, err := trustFilePath(cCtx)
	if err != nil {
		return err
	}
	store, err := trust.OpenFileTrustStore(path)
	if err != nil {
		return err
	}

	pins := store.Snapshot()
	hosts := make([]string, 0, len(pins))
	for host := range pins {
		hosts = append(hosts, host)
	}
	sort.Strings(hosts)

	for _, host := range hosts {
		fmt.Printf("%s  %s\n", host, pins[host])
	}
	return nil
}
