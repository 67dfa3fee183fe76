package main

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"mercator-hq/keyport/pkg/cli"
)

// writeServeConfig generates a keystore and the properties naming it into a
// temporary directory, with both passwords stored as secret files.
func writeServeConfig(t *testing.T, port int, storePass, entryPass string) (resources, secretsDir string) {
	t.Helper()

	resources = t.TempDir()
	secretsDir = t.TempDir()
	keystorePath := filepath.Join(resources, "keystore.p12")

	t.Setenv("KP_TEST_STORE", "st0re-Secret")
	t.Setenv("KP_TEST_ENTRY", "entry-Secret")
	if _, _, err := execute(t, "", "keystore", "generate", keystorePath,
		"--password-env", "KP_TEST_STORE",
		"--entry-password-env", "KP_TEST_ENTRY",
	); err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	writeFile(t, resources, "application.properties",
		"local.port="+strconv.Itoa(port)+"\n"+
			"local.address=127.0.0.1\n"+
			"security.config.filepath=security.properties\n"+
			"log.level=debug\n"+
			"certificate.expiry.schedule=@daily\n", 0644)
	writeFile(t, resources, "security.properties",
		"keystore.filepath="+filepath.ToSlash(keystorePath)+"\n"+
			"keystore.password=${secret:keystore-password}\n"+
			"entry.alias=server\n"+
			"entry.key.password=${secret:entry-password}\n", 0644)
	writeFile(t, secretsDir, "keystore-password", storePass+"\n", 0600)
	writeFile(t, secretsDir, "entry-password", entryPass+"\n", 0600)

	return resources, secretsDir
}

func writeFile(t *testing.T, dir, name, content string, mode os.FileMode) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), mode); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

func TestServe_StartsAndStops(t *testing.T) {
	port := freePort(t)
	resources, secretsDir := writeServeConfig(t, port, "st0re-Secret", "entry-Secret")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type result struct {
		stderr string
		err    error
	}
	done := make(chan result, 1)
	go func() {
		_, stderr, err := executeContext(ctx, t, "", "serve", "--resources", resources, "--secrets-dir", secretsDir)
		done <- result{stderr, err}
	}()

	client := &http.Client{
		Timeout:   time.Second,
		Transport: &http.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: true}}, // #nosec G402 - self-signed test certificate
	}
	url := "https://127.0.0.1:" + strconv.Itoa(port) + "/health"

	var resp *http.Response
	deadline := time.Now().Add(10 * time.Second)
	for {
		var err error
		resp, err = client.Get(url)
		if err == nil {
			break
		}
		if time.Now().After(deadline) {
			cancel()
			r := <-done
			t.Fatalf("server did not come up: %v\nstderr:\n%s", err, r.stderr)
		}
		time.Sleep(50 * time.Millisecond)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("health status = %d, body = %s", resp.StatusCode, body)
	}
	if resp.TLS == nil || resp.TLS.PeerCertificates[0].Subject.CommonName != "localhost" {
		t.Error("server did not present the keystore certificate")
	}

	cancel()
	select {
	case r := <-done:
		if r.err != nil {
			t.Errorf("serve error = %v, want nil after cancellation", r.err)
		}
		if strings.Contains(r.stderr, "st0re-Secret") || strings.Contains(r.stderr, "entry-Secret") {
			t.Errorf("output leaks a password:\n%s", r.stderr)
		}
		if !strings.Contains(r.stderr, "tls context ready") {
			t.Errorf("missing startup log:\n%s", r.stderr)
		}
	case <-time.After(15 * time.Second):
		t.Fatal("serve did not return after cancellation")
	}
}

func TestServe_StartupFailures(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(t *testing.T) []string
		wantStage string
	}{
		{
			name: "missing application properties",
			setup: func(t *testing.T) []string {
				return []string{"--resources", t.TempDir()}
			},
			wantStage: "config-load",
		},
		{
			name: "invalid port",
			setup: func(t *testing.T) []string {
				dir := t.TempDir()
				writeFile(t, dir, "application.properties", "local.port=http\nsecurity.config.filepath=security.properties\n", 0644)
				return []string{"--resources", dir}
			},
			wantStage: "port-parse",
		},
		{
			name: "unresolved secret",
			setup: func(t *testing.T) []string {
				resources, _ := writeServeConfig(t, 8443, "st0re-Secret", "entry-Secret")
				return []string{"--resources", resources}
			},
			wantStage: "security-config-load",
		},
		{
			name: "wrong entry password",
			setup: func(t *testing.T) []string {
				resources, secretsDir := writeServeConfig(t, 8443, "st0re-Secret", "not-the-Secret")
				return []string{"--resources", resources, "--secrets-dir", secretsDir}
			},
			wantStage: "keystore-decode",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"serve"}, tt.setup(t)...)
			_, stderr, err := execute(t, "", args...)

			if code := cli.ExitCode(err); code != 1 {
				t.Errorf("exit code = %d, want 1 (err = %v)", code, err)
			}
			if !cli.IsSilent(err) {
				t.Errorf("error %v should be silent after the diagnostic", err)
			}
			if want := "startup failed at " + tt.wantStage + ":"; !strings.Contains(stderr, want) {
				t.Errorf("stderr missing %q:\n%s", want, stderr)
			}
			for _, secret := range []string{"st0re-Secret", "entry-Secret", "not-the-Secret"} {
				if strings.Contains(stderr, secret) {
					t.Errorf("stderr leaks %q:\n%s", secret, stderr)
				}
			}
		})
	}
}

func TestServe_ContextNotReusedAcrossRuns(t *testing.T) {
	resources, secretsDir := writeServeConfig(t, freePort(t), "st0re-Secret", "entry-Secret")
	writeFile(t, resources, "invalid-port.properties",
		"local.port=http\nsecurity.config.filepath=security.properties\n", 0644)
	args := []string{"serve", "--resources", resources, "--secrets-dir", secretsDir, "--config", "invalid-port.properties"}

	canceled, cancel := context.WithCancel(context.Background())
	cancel()
	_, stderr, _ := executeContext(canceled, t, "", args...)
	if !strings.Contains(stderr, "startup failed at config-load:") {
		t.Fatalf("canceled run stderr = %q, want a config-load failure", stderr)
	}

	_, stderr, err := execute(t, "", args...)
	if cli.ExitCode(err) != 1 {
		t.Fatalf("exit code = %d, want 1", cli.ExitCode(err))
	}
	if !strings.Contains(stderr, "startup failed at port-parse:") {
		t.Errorf("stderr = %q, want a port-parse failure", stderr)
	}
	if strings.Contains(stderr, "context canceled") {
		t.Errorf("second run reused the canceled context:\n%s", stderr)
	}
}

func TestServe_InvalidResources(t *testing.T) {
	file := filepath.Join(t.TempDir(), "plain")
	writeFile(t, filepath.Dir(file), "plain", "x", 0644)

	for _, dir := range []string{"", filepath.Join(t.TempDir(), "missing"), file} {
		_, _, err := execute(t, "", "serve", "--resources", dir)
		var cfgErr *cli.ConfigError
		if !errors.As(err, &cfgErr) {
			t.Errorf("--resources %q: error = %v, want *cli.ConfigError", dir, err)
		}
	}
}

func TestNewResolver(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "application.properties", "local.port=9443\n", 0644)
	abs := filepath.Join(dir, "application.properties")

	tests := []struct {
		name      string
		resources string
		resource  string
		want      string
	}{
		{"embedded default", embedResources, "application.properties", "local.port=8443"},
		{"embed scheme", dir, "embed:security.properties", "entry.alias=server"},
		{"directory default", dir, "application.properties", "local.port=9443"},
		{"file scheme", embedResources, "file:" + abs, "local.port=9443"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc, err := newResolver(tt.resources).Open(tt.resource)
			if err != nil {
				t.Fatalf("Open(%q) error = %v", tt.resource, err)
			}
			defer rc.Close()

			data, _ := io.ReadAll(rc)
			if !strings.Contains(string(data), tt.want) {
				t.Errorf("Open(%q) = %q, want it to contain %q", tt.resource, data, tt.want)
			}
		})
	}
}
