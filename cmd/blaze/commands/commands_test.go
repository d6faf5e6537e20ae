package commands

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kochabx/blaze/internal/apitest"
)

const (
	riderEmail  = "ada@blaze.test"
	driverEmail = "grace@blaze.test"
)

func writeConfig(t *testing.T, srv *apitest.Server) string {
	t.Helper()
	dir := t.TempDir()
	content := fmt.Sprintf(`api:
  base_url: %s
  timeout: 2s
storage:
  driver: file
  path: %s
  secret: test-secret
cache:
  retry: 0
  mutation_retry_delay: 10ms
log:
  level: error
`, srv.URL, filepath.Join(dir, "credentials"))

	path := filepath.Join(dir, "blaze.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, config string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", config}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestDriverLoginFlow(t *testing.T) {
	srv := apitest.New(t)
	srv.AddDriver(driverEmail)
	cfg := writeConfig(t, srv)

	out, err := execute(t, cfg, "login", "-e", driverEmail, "-p", apitest.Password)
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as Grace Hopper")
	assert.Contains(t, out, "continue at step 1/3 (personal-info)")

	out, err = execute(t, cfg, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Email: "+driverEmail)
	assert.Contains(t, out, "Role:  DRIVER")
	assert.Contains(t, out, "Onboarding: step 1/3")

	out, err = execute(t, cfg, "onboarding", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Step 1/3: personal-info")
	assert.Contains(t, out, "personal info  pending")

	out, err = execute(t, cfg, "onboarding", "vehicles")
	require.NoError(t, err)
	assert.Contains(t, out, "mf-toyota")

	out, err = execute(t, cfg, "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out")
	assert.Equal(t, 1, srv.Logouts())

	_, err = execute(t, cfg, "whoami")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not logged in")
}

func TestLoginWithPasswordFromEnv(t *testing.T) {
	srv := apitest.New(t)
	srv.AddRider(riderEmail)
	cfg := writeConfig(t, srv)
	t.Setenv(envPassword, apitest.Password)

	out, err := execute(t, cfg, "login", "--email", riderEmail)
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as Ada Lovelace")
	assert.NotContains(t, out, "onboarding")
}

func TestLoginInvalidCredentials(t *testing.T) {
	srv := apitest.New(t)
	srv.AddRider(riderEmail)
	cfg := writeConfig(t, srv)

	_, err := execute(t, cfg, "login", "-e", riderEmail, "-p", "wrong")
	require.Error(t, err)
	assert.Equal(t, "Invalid credentials", err.Error())
}

func TestLoginWithOTP(t *testing.T) {
	srv := apitest.New(t)
	srv.AddDriver(driverEmail)
	srv.RequireOTP(driverEmail)
	cfg := writeConfig(t, srv)

	out, err := execute(t, cfg, "login", "-e", driverEmail, "-p", apitest.Password)
	require.NoError(t, err)
	assert.Contains(t, out, "Verification code required")

	out, err = execute(t, cfg, "verify-otp", "--phone", "+15550100", "--otp", apitest.OTP)
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as Grace Hopper")
}

func TestRides(t *testing.T) {
	srv := apitest.New(t)
	srv.AddRider(riderEmail)
	cfg := writeConfig(t, srv)

	_, err := execute(t, cfg, "login", "-e", riderEmail, "-p", apitest.Password)
	require.NoError(t, err)

	out, err := execute(t, cfg, "rides", "history")
	require.NoError(t, err)
	assert.Contains(t, out, "No rides yet")

	out, err = execute(t, cfg, "rides", "active")
	require.NoError(t, err)
	assert.Contains(t, out, "No active ride")

	out, err = execute(t, cfg, "rides", "active", "--watch", "--interval", "10ms")
	require.NoError(t, err)
	assert.Contains(t, out, "No active ride")

	_, err = execute(t, cfg, "rides", "cancel", "missing")
	require.Error(t, err)
	assert.Equal(t, "Ride not found", err.Error())

	_, err = execute(t, cfg, "rides", "cancel")
	require.Error(t, err)
}

func TestRequiresLogin(t *testing.T) {
	srv := apitest.New(t)
	cfg := writeConfig(t, srv)

	_, err := execute(t, cfg, "rides", "history")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not logged in")
	assert.Equal(t, 0, srv.Hits("GET", "/rides/history"))
}

func TestStatus(t *testing.T) {
	srv := apitest.New(t)
	srv.AddRider(riderEmail)
	cfg := writeConfig(t, srv)

	out, err := execute(t, cfg, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Not logged in")

	_, err = execute(t, cfg, "login", "-e", riderEmail, "-p", apitest.Password)
	require.NoError(t, err)
	out, err = execute(t, cfg, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in")
	assert.NotContains(t, out, "Not logged in")
}

func TestDebugDumpsMetrics(t *testing.T) {
	srv := apitest.New(t)
	srv.AddRider(riderEmail)
	cfg := writeConfig(t, srv)

	out, err := execute(t, cfg, "login", "--debug", "-e", riderEmail, "-p", apitest.Password)
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as Ada Lovelace")
	assert.Contains(t, out, "# TYPE blaze_client_requests_total counter")
	assert.Contains(t, out, `blaze_client_requests_total{method="POST",status="200"} 1`)

	out, err = execute(t, cfg, "whoami")
	require.NoError(t, err)
	assert.NotContains(t, out, "blaze_client_requests_total")
}
