package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/pankaj-dahiya-devops/awsinv/internal/config"
	"github.com/pankaj-dahiya-devops/awsinv/internal/providers/aws/common"
	"github.com/pankaj-dahiya-devops/awsinv/internal/retry"
)

// ── AWS mocks ─────────────────────────────────────────────────────────────────

type mockSTS struct {
	out *sts.GetCallerIdentityOutput
	err error
}

func (m *mockSTS) GetCallerIdentity(_ context.Context, _ *sts.GetCallerIdentityInput, _ ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	return m.out, m.err
}

type mockAWSProvider struct {
	profileResult *common.ProfileConfig
	profileErr    error
	regionsResult []string
	regionsErr    error
	loadCalls     int
	lastOpts      common.LoadOptions
}

func (m *mockAWSProvider) LoadProfile(_ context.Context, opts common.LoadOptions) (*common.ProfileConfig, error) {
	m.loadCalls++
	m.lastOpts = opts
	return m.profileResult, m.profileErr
}

func (m *mockAWSProvider) GetActiveRegions(_ context.Context, _ *common.ProfileConfig) ([]string, error) {
	return m.regionsResult, m.regionsErr
}

func (m *mockAWSProvider) ConfigForRegion(_ *common.ProfileConfig, region string) aws.Config {
	return aws.Config{Region: region}
}

// ── helpers ───────────────────────────────────────────────────────────────────

func goodMockAWS() *mockAWSProvider {
	return &mockAWSProvider{
		profileResult: &common.ProfileConfig{
			ProfileName: "default",
			Region:      "us-east-1",
			Clients: &common.ClientSet{STS: &mockSTS{out: &sts.GetCallerIdentityOutput{
				Account: aws.String("123456789012"),
				Arn:     aws.String("arn:aws:iam::123456789012:user/ops"),
			}}},
		},
		regionsResult: []string{"us-east-1", "eu-west-1"},
	}
}

// runDoctorIsolated points HOME at an empty temp dir so profile discovery
// is deterministic, then runs runDoctor against the config file at cfgPath.
func runDoctorIsolated(t *testing.T, p common.AWSClientProvider, cfgPath string, opts doctorOptions) (string, DoctorResult, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	if cfgPath == "" {
		cfgPath = filepath.Join(t.TempDir(), "absent.yaml")
	}
	var buf bytes.Buffer
	guard := retry.NewGuard(0, slog.New(slog.DiscardHandler))
	result, err := runDoctor(context.Background(), p, config.NewFileLoader(cfgPath), guard, &buf, opts)
	return buf.String(), result, err
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// ── table format tests ────────────────────────────────────────────────────────

func TestDoctorAllOK(t *testing.T) {
	out, result, err := runDoctorIsolated(t, goodMockAWS(), "", doctorOptions{Format: "table"})
	if err != nil {
		t.Fatalf("unexpected render error: %v", err)
	}
	if !result.OverallHealthy {
		t.Errorf("expected OverallHealthy=true; got:\n%s", out)
	}
	for _, want := range []string{
		"Credentials: OK",
		"STS Identity: OK (Account: 123456789012)",
		"Regions API: OK (2 enabled)",
		"Region: OK (us-east-1)",
		"Config file: Not found (optional)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q;\ngot:\n%s", want, out)
		}
	}
}

func TestDoctorCredentialsFail(t *testing.T) {
	p := &mockAWSProvider{profileErr: errors.New("no credentials configured")}
	out, result, _ := runDoctorIsolated(t, p, "", doctorOptions{Format: "table"})
	if result.OverallHealthy {
		t.Error("expected OverallHealthy=false")
	}
	if !strings.Contains(out, "Credentials: FAIL (no credentials configured)") {
		t.Errorf("expected 'Credentials: FAIL'; got:\n%s", out)
	}
}

func TestDoctorIdentityFail(t *testing.T) {
	p := goodMockAWS()
	p.profileResult.Clients = &common.ClientSet{STS: &mockSTS{err: errors.New("ExpiredToken")}}
	out, result, _ := runDoctorIsolated(t, p, "", doctorOptions{Format: "table"})
	if result.OverallHealthy {
		t.Error("expected OverallHealthy=false")
	}
	if !strings.Contains(out, "STS Identity: FAIL") {
		t.Errorf("expected 'STS Identity: FAIL'; got:\n%s", out)
	}
	if !strings.Contains(out, "Regions API: FAIL (skipped)") {
		t.Errorf("expected regions to be skipped; got:\n%s", out)
	}
}

func TestDoctorRegionsFail(t *testing.T) {
	p := goodMockAWS()
	p.regionsErr = errors.New("EC2 API error")
	out, result, _ := runDoctorIsolated(t, p, "", doctorOptions{Format: "table"})
	if result.OverallHealthy {
		t.Error("expected OverallHealthy=false")
	}
	if !strings.Contains(out, "Regions API: FAIL (EC2 API error)") {
		t.Errorf("expected 'Regions API: FAIL'; got:\n%s", out)
	}
}

func TestDoctorInvalidRegionSkipsLoad(t *testing.T) {
	p := goodMockAWS()
	out, result, _ := runDoctorIsolated(t, p, "", doctorOptions{Region: "mars-north-1", Format: "table"})
	if p.loadCalls != 0 {
		t.Errorf("LoadProfile calls = %d; want 0", p.loadCalls)
	}
	if result.OverallHealthy {
		t.Error("expected OverallHealthy=false")
	}
	if !strings.Contains(out, `Region: FAIL (invalid region "mars-north-1")`) {
		t.Errorf("expected region failure; got:\n%s", out)
	}
}

func TestDoctorRegionNotEnabled(t *testing.T) {
	p := goodMockAWS()
	p.profileResult.Region = "ap-east-1"
	out, result, _ := runDoctorIsolated(t, p, "", doctorOptions{Region: "ap-east-1", Format: "table"})
	if result.OverallHealthy {
		t.Error("expected OverallHealthy=false for an opt-in region that is disabled")
	}
	if !strings.Contains(out, "ap-east-1 is not enabled") {
		t.Errorf("expected not-enabled detail; got:\n%s", out)
	}
	if p.lastOpts.Region != "ap-east-1" {
		t.Errorf("LoadOptions.Region = %q; want ap-east-1", p.lastOpts.Region)
	}
}

// ── config checks ─────────────────────────────────────────────────────────────

func TestDoctorConfigValidSuppliesDefaults(t *testing.T) {
	path := writeConfig(t, "aws:\n  default_profile: audit\n  default_region: eu-west-1\n")
	p := goodMockAWS()
	p.profileResult.Region = "eu-west-1"
	out, result, _ := runDoctorIsolated(t, p, path, doctorOptions{Format: "table"})
	if !result.Config.Present || !result.Config.Valid {
		t.Errorf("config = %+v; want present and valid", result.Config)
	}
	if p.lastOpts.Profile != "audit" || p.lastOpts.Region != "eu-west-1" {
		t.Errorf("LoadOptions = %+v; want profile audit, region eu-west-1", p.lastOpts)
	}
	if !strings.Contains(out, "AWS (profile: audit):") {
		t.Errorf("expected profile header; got:\n%s", out)
	}
	if !result.OverallHealthy {
		t.Errorf("expected healthy; got:\n%s", out)
	}
}

func TestDoctorConfigInvalid(t *testing.T) {
	path := writeConfig(t, "inventory:\n  format: xml\n")
	out, result, _ := runDoctorIsolated(t, goodMockAWS(), path, doctorOptions{Format: "table"})
	if result.OverallHealthy {
		t.Error("expected OverallHealthy=false with an invalid config file")
	}
	if !strings.Contains(out, "Config valid: FAIL") {
		t.Errorf("expected 'Config valid: FAIL'; got:\n%s", out)
	}
}

func TestDoctorProfilesDiscovered(t *testing.T) {
	home := t.TempDir()
	if err := os.MkdirAll(filepath.Join(home, ".aws"), 0o755); err != nil {
		t.Fatal(err)
	}
	creds := "[default]\naws_access_key_id = x\n[prod]\naws_access_key_id = y\n"
	if err := os.WriteFile(filepath.Join(home, ".aws", "credentials"), []byte(creds), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("HOME", home)

	var buf bytes.Buffer
	guard := retry.NewGuard(0, slog.New(slog.DiscardHandler))
	loader := config.NewFileLoader(filepath.Join(home, "none.yaml"))
	result, err := runDoctor(context.Background(), goodMockAWS(), loader, guard, &buf, doctorOptions{Format: "table"})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.AWS.Profiles) != 2 {
		t.Errorf("profiles = %v; want [default prod]", result.AWS.Profiles)
	}
	if !strings.Contains(buf.String(), "Profiles found: 2") {
		t.Errorf("expected profile count; got:\n%s", buf.String())
	}
}

// ── JSON format tests ─────────────────────────────────────────────────────────

func TestDoctorJSONOutput(t *testing.T) {
	out, _, err := runDoctorIsolated(t, goodMockAWS(), "", doctorOptions{Profile: "prod", Format: "json"})
	if err != nil {
		t.Fatalf("unexpected render error: %v", err)
	}
	var decoded DoctorResult
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, out)
	}
	if !decoded.OverallHealthy {
		t.Error("decoded overall_healthy = false; want true")
	}
	if decoded.AWS.Profile != "prod" {
		t.Errorf("profile = %q; want prod", decoded.AWS.Profile)
	}
	if decoded.AWS.AccountID != "123456789012" {
		t.Errorf("account_id = %q; want 123456789012", decoded.AWS.AccountID)
	}
	if !strings.Contains(out, `"credentials_ok": true`) {
		t.Errorf("expected indented credentials_ok key; got:\n%s", out)
	}
}
