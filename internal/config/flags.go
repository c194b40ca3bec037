package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/pflag"
)

// NetAddress holds structured network address data for host and port.
// It implements the pflag.Value interface.
type NetAddress struct {
	Host string
	Port int
}

// ParseFlags parses the configuration flags in args (without the program
// name).
//
// Flags:
//
//	-a, --address            server address in format [host]:port
//	-p, --port               server port
//	    --host               server host
//	    --file               unix socket path
//	-c, --config             JSON or YAML config file
//	    --name               application name used in logs
//	    --debug              debug logging
//	    --log-requests       log every request line (with --debug)
//	    --codes-file         response codes file
//	    --force-exit-after   graceful shutdown limit (e.g. "30s")
//	    --tls                enable TLS
//	    --tls-cert           certificate file
//	    --tls-key            key file
//	    --tls-watch          reload the certificate when the files change
//	    --body-parsers       body parser kinds (json, urlencoded)
//	    --json-limit         JSON body limit in bytes
//	    --form-limit         urlencoded body limit in bytes
//	    --security           enable security headers
//	    --csp-nonces         CSP nonces generated per request
//	    --compression        enable gzip responses
//	    --compression-level  gzip level
//	    --static             static mounts, prefix=dir
//	    --validation-sections  request sections exposed to validation
//	    --abort-early        stop validation at the first violation
//	    --strip-unknown      drop keys the schema does not declare
//	    --wait-for-ready     hold requests until the server is marked ready
//	    --handle-errors      install the error and not-found handlers
//	    --metrics            expose prometheus metrics
//	    --metrics-path       metrics path
//	    --read-header-timeout  http.Server ReadHeaderTimeout
func ParseFlags(args []string) (*StructuredConfig, error) {
	cfg := &StructuredConfig{}
	fs := pflag.NewFlagSet("server", pflag.ContinueOnError)

	var address NetAddress
	fs.VarP(&address, "address", "a", "Net address host:port")
	fs.IntVarP(&cfg.Server.Port, "port", "p", 0, "Server port")
	fs.StringVar(&cfg.Server.Host, "host", "", "Server host")
	fs.StringVar(&cfg.Server.File, "file", "", "Unix socket path")
	fs.StringVarP(&cfg.ConfigFile, "config", "c", "", "JSON or YAML config file path")

	fs.StringVar(&cfg.App.Name, "name", "", "Application name")
	fs.BoolVar(&cfg.App.Debug, "debug", false, "Debug logging")
	fs.BoolVar(&cfg.App.LogRequests, "log-requests", false, "Log every request line (with --debug)")
	fs.StringVar(&cfg.App.CodesFile, "codes-file", "", "Response codes file")
	fs.DurationVar(&cfg.App.ForceExitAfter, "force-exit-after", 0, "Graceful shutdown limit (e.g. 30s)")

	fs.BoolVar(&cfg.Server.TLS.Enabled, "tls", false, "Enable TLS")
	fs.StringVar(&cfg.Server.TLS.CertFile, "tls-cert", "", "TLS certificate file")
	fs.StringVar(&cfg.Server.TLS.KeyFile, "tls-key", "", "TLS key file")
	fs.BoolVar(&cfg.Server.TLS.Watch, "tls-watch", false, "Reload the certificate when the files change")

	fs.StringSliceVar(&cfg.Server.BodyParser.Kinds, "body-parsers", nil, "Body parser kinds (json, urlencoded)")
	fs.Int64Var(&cfg.Server.BodyParser.JSONLimit, "json-limit", 0, "JSON body limit in bytes")
	fs.Int64Var(&cfg.Server.BodyParser.FormLimit, "form-limit", 0, "Urlencoded body limit in bytes")

	fs.BoolVar(&cfg.Server.Security.Enabled, "security", false, "Enable security headers")
	fs.IntVar(&cfg.Server.Security.CSP.GenerateNonces, "csp-nonces", 0, "CSP nonces generated per request")

	fs.BoolVar(&cfg.Server.Compression.Enabled, "compression", false, "Enable gzip responses")
	fs.IntVar(&cfg.Server.Compression.Level, "compression-level", 0, "Gzip level")

	fs.StringToStringVar(&cfg.Server.Static, "static", nil, "Static mounts as prefix=dir")

	fs.StringSliceVar(&cfg.Server.Validation.Sections, "validation-sections", nil, "Request sections exposed to validation")
	fs.BoolVar(&cfg.Server.Validation.AbortEarly, "abort-early", false, "Stop validation at the first violation")
	fs.BoolVar(&cfg.Server.Validation.StripUnknown, "strip-unknown", false, "Drop keys the schema does not declare")

	fs.BoolVar(&cfg.Server.WaitForReady, "wait-for-ready", false, "Hold requests until the server is marked ready")
	fs.BoolVar(&cfg.Server.HandleErrors, "handle-errors", false, "Install the error and not-found handlers")
	fs.BoolVar(&cfg.Server.Metrics.Enabled, "metrics", false, "Expose prometheus metrics")
	fs.StringVar(&cfg.Server.Metrics.Path, "metrics-path", "", "Metrics path")
	fs.DurationVar(&cfg.Server.ReadHeaderTimeout, "read-header-timeout", 0, "ReadHeaderTimeout of the HTTP server")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("error parsing flags: %w", err)
	}

	if address.Port != 0 {
		if cfg.Server.Host == "" {
			cfg.Server.Host = address.Host
		}
		if cfg.Server.Port == 0 {
			cfg.Server.Port = address.Port
		}
	}

	return cfg, nil
}

// String returns a canonical host:port string for a NetAddress.
// If neither Host nor Port are set, it returns an empty string.
func (a *NetAddress) String() string {
	if a.Host == "" && a.Port == 0 {
		return ""
	}

	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}

// Set parses the input string of form [host]:port and populates the
// NetAddress. It validates the port range and checks IP correctness unless
// host is empty or "localhost".
func (a *NetAddress) Set(s string) error {
	host, rawPort, err := net.SplitHostPort(s)
	if err != nil {
		return errors.New("need address in a form `host:port`")
	}

	port, err := strconv.Atoi(rawPort)
	if err != nil {
		return err
	}

	if port < 1 || port > 65535 {
		return errors.New("port number must be between 1 and 65535")
	}

	if host != "" && host != "localhost" {
		ip := net.ParseIP(host)
		if ip == nil {
			return errors.New("incorrect IP-address provided")
		}
	}

	a.Host = host
	a.Port = port
	return nil
}

// Type implements pflag.Value.
func (a *NetAddress) Type() string {
	return "host:port"
}
