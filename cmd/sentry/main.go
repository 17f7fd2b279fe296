package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	jwttoken "sentry/internal/jwt_token"
	"sentry/internal/platform/config"
	"sentry/internal/platform/logger"
	"sentry/internal/scan/engine"
	"sentry/internal/scan/models"
	"sentry/internal/scan/npi"
	"sentry/internal/scan/scoring"
	"sentry/internal/scan/setup"
)

// exitErr carries a numeric exit code through the cobra error path.
type exitErr struct {
	code int
	msg  string
}

func (e *exitErr) Error() string { return e.msg }

func codeError(code int, format string, args ...any) error {
	return &exitErr{code: code, msg: fmt.Sprintf(format, args...)}
}

// scanner is the engine surface the scan command needs.
type scanner interface {
	Scan(ctx context.Context, req models.ScanRequest) (*models.ScanResult, error)
}

type scanFlags struct {
	npi             string
	url             string
	json            bool
	strict          bool
	failOnViolation bool
	logLevel        string
}

type tokenFlags struct {
	subject string
	scopes  []string
	ttl     time.Duration
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var ee *exitErr
		if errors.As(err, &ee) {
			fmt.Fprintln(os.Stderr, "Error:", ee.msg)
			os.Exit(ee.code)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "sentry",
		Short:        "Audit a healthcare provider website for data residency and AI transparency",
		SilenceUsage: true,
	}
	root.AddCommand(newScanCmd(), newTokenCmd())
	return root
}

func newScanCmd() *cobra.Command {
	var flags scanFlags
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run one scan and print the result",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.FromEnv()
			log := logger.NewWithWriter(cmd.ErrOrStderr(), flags.logLevel, "text")
			svc, err := setup.Engine(cfg.Probes, log, nil)
			if err != nil {
				return codeError(3, "%s", err)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return runScan(ctx, cmd.OutOrStdout(), svc, flags)
		},
	}
	f := cmd.Flags()
	f.StringVar(&flags.npi, "npi", "", "10-digit National Provider Identifier")
	f.StringVar(&flags.url, "url", "", "Provider website; https is assumed without a scheme")
	f.BoolVar(&flags.json, "json", false, "Print the full result as JSON")
	f.BoolVar(&flags.strict, "strict", false, "Reject NPIs that fail the Luhn check digit")
	f.BoolVar(&flags.failOnViolation, "fail-on-violation", false, "Exit 2 when the tier is Violation")
	f.StringVar(&flags.logLevel, "log-level", "warn", "Log level written to stderr")
	_ = cmd.MarkFlagRequired("npi")
	_ = cmd.MarkFlagRequired("url")
	return cmd
}

func newTokenCmd() *cobra.Command {
	var flags tokenFlags
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an API token signed with SENTRY_JWT_SIGNING_KEY",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.FromEnv()
			if cfg.JWTSigningKey == "" {
				return codeError(3, "SENTRY_JWT_SIGNING_KEY is not set")
			}
			svc := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer)
			tok, err := svc.GenerateToken(flags.subject, flags.scopes, flags.ttl)
			if err != nil {
				return codeError(1, "sign token: %s", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&flags.subject, "subject", "", "Token subject")
	f.StringSliceVar(&flags.scopes, "scope", []string{jwttoken.ScopeRegistryRead}, "Granted scopes (repeatable)")
	f.DurationVar(&flags.ttl, "ttl", 24*time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}

func runScan(ctx context.Context, out io.Writer, svc scanner, flags scanFlags) error {
	number := strings.TrimSpace(flags.npi)
	if len(number) != 10 || strings.Trim(number, "0123456789") != "" {
		return codeError(3, "npi must be 10 digits")
	}
	if flags.strict && !npi.ValidateChecksum(number) {
		return codeError(3, "npi %s fails the check digit", number)
	}

	result, err := svc.Scan(ctx, models.ScanRequest{NPI: number, URL: engine.NormalizeURL(flags.url)})
	if err != nil {
		return codeError(4, "%s", err)
	}

	if flags.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
	} else {
		writeSummary(out, result)
	}

	if flags.failOnViolation && result.ComplianceStatus == models.TierViolation {
		return codeError(2, "tier %s (score %d)", result.ComplianceStatus, result.RiskScore)
	}
	return nil
}

func writeSummary(w io.Writer, r *models.ScanResult) {
	fmt.Fprintf(w, "%s  %s\n", r.URL, r.EngineVersion)
	fmt.Fprintf(w, "Score %d  %s  (%s risk, %s)\n", r.RiskScore, r.ComplianceStatus, r.RiskLevel, scoring.ReportGrade(r.RiskScore))
	if r.NPIVerification.Valid {
		fmt.Fprintf(w, "NPI %s  %s  %s\n", r.NPI, r.NPIVerification.Name, r.NPIVerification.State)
	} else {
		fmt.Fprintf(w, "NPI %s  not found in registry\n", r.NPI)
	}
	for _, c := range []models.CategoryScore{
		r.CategoryScores.DataSovereignty,
		r.CategoryScores.AITransparency,
		r.CategoryScores.ClinicalIntegrity,
	} {
		fmt.Fprintf(w, "  %-30s %3d%%  %s\n", c.Name, c.Percentage, c.Level)
	}
	if len(r.TopIssues) > 0 {
		fmt.Fprintln(w, "Top issues:")
		for _, f := range r.TopIssues {
			fmt.Fprintf(w, "  [%s] %s %s: %s\n", f.Severity, f.ID, f.Name, f.Detail)
		}
	}
}
