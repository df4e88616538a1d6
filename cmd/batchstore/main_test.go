package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vango-dev/batchstore"
	"github.com/vango-dev/batchstore/internal/config"
	"github.com/vango-dev/batchstore/pkg/channel"
	"github.com/vango-dev/batchstore/pkg/container"
	"github.com/vango-dev/batchstore/pkg/limiter"
	"github.com/vango-dev/batchstore/pkg/loop"
	"github.com/vango-dev/batchstore/pkg/server"
	"github.com/vango-dev/batchstore/pkg/todos"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func startServer(t *testing.T) *httptest.Server {
	t.Helper()
	base, err := container.New(todos.Reducer, todos.State{})
	if err != nil {
		t.Fatal(err)
	}
	store, err := batchstore.New[todos.State](base, batchstore.Config{
		Channels: map[string]channel.LimiterFactory{"slow": limiter.NewManual().Factory()},
	})
	if err != nil {
		t.Fatal(err)
	}
	l := loop.New(16)
	ctx, cancel := context.WithCancel(context.Background())
	go l.Run(ctx)
	t.Cleanup(cancel)

	srv, err := server.New(server.Config[todos.State]{Store: store, Loop: l})
	if err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return ts
}

func TestVersion(t *testing.T) {
	out, err := runCmd(t, "version", "--short")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != version {
		t.Errorf("version --short = %q, want %q", out, version)
	}

	out, _ = runCmd(t, "version")
	if !strings.Contains(out, "Go version:") {
		t.Errorf("version output = %q", out)
	}
}

func TestDispatchAndState(t *testing.T) {
	ts := startServer(t)

	out, err := runCmd(t, "dispatch", "--server", ts.URL,
		`[{"type":"ADD_TODO","text":"Hello"},{"type":"ADD_TODO","text":"World"}]`)
	if err != nil {
		t.Fatalf("dispatch error = %v", err)
	}
	if !strings.Contains(out, `"World"`) {
		t.Errorf("dispatch output = %s", out)
	}

	out, err = runCmd(t, "state", "--server", ts.URL)
	if err != nil {
		t.Fatalf("state error = %v", err)
	}
	if !strings.Contains(out, `"id": 2`) {
		t.Errorf("state output = %s", out)
	}
}

func TestDispatchFromStdin(t *testing.T) {
	ts := startServer(t)

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader(`{"type":"ADD_TODO","text":"piped"}`))
	cmd.SetArgs([]string{"dispatch", "--server", ts.URL, "-"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("dispatch - error = %v", err)
	}
	if !strings.Contains(out.String(), "piped") {
		t.Errorf("output = %s", out.String())
	}
}

func TestQueueCommands(t *testing.T) {
	ts := startServer(t)

	if _, err := runCmd(t, "dispatch", "--server", ts.URL, "--channel", "slow", `{"type":"ADD_TODO","text":"later"}`); err != nil {
		t.Fatalf("dispatch error = %v", err)
	}

	out, err := runCmd(t, "queue", "show", "slow", "--server", ts.URL)
	if err != nil {
		t.Fatalf("queue show error = %v", err)
	}
	if !strings.Contains(out, "later") {
		t.Errorf("queue show = %s", out)
	}

	out, err = runCmd(t, "queue", "flush", "slow", "--server", ts.URL)
	if err != nil {
		t.Fatalf("queue flush error = %v", err)
	}
	if !strings.Contains(out, "later") {
		t.Errorf("queue flush = %s", out)
	}

	out, err = runCmd(t, "queue", "clear", "--server", ts.URL)
	if err != nil || !strings.Contains(out, "cleared all channels") {
		t.Errorf("queue clear = %q, %v", out, err)
	}
}

func TestServerErrors(t *testing.T) {
	ts := startServer(t)

	_, err := runCmd(t, "dispatch", "--server", ts.URL, "--channel", "missing", `{"type":"X"}`)
	if err == nil || !strings.Contains(err.Error(), "E061") {
		t.Fatalf("dispatch error = %v, want E061", err)
	}
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("error %q should carry the status", err)
	}

	_, err = runCmd(t, "state", "--server", "http://127.0.0.1:1")
	if err == nil {
		t.Error("state against a closed port should fail")
	}
}

func TestChannelsCommand(t *testing.T) {
	dir := t.TempDir()
	cfg := `{"channels": {
  "slow": {"kind": "throttle", "interval": "1s"},
  "search": {"kind": "debounce", "wait": "300ms", "maxWait": "2s"},
  "bulk": {"kind": "budget", "window": "1m", "max": 10}
}}`
	if err := os.WriteFile(filepath.Join(dir, config.ConfigFileName), []byte(cfg), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := runCmd(t, "channels", "--config", dir)
	if err != nil {
		t.Fatalf("channels error = %v", err)
	}
	for _, want := range []string{"bulk", "window=1m0s max=10", "search", "maxWait=2s", "slow", "interval=1s"} {
		if !strings.Contains(out, want) {
			t.Errorf("channels output missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "bulk") > strings.Index(out, "slow") {
		t.Errorf("channels are not sorted:\n%s", out)
	}

	out, err = runCmd(t, "channels", "--config", t.TempDir())
	if err != nil || !strings.Contains(out, "no channels configured") {
		t.Errorf("channels without config = %q, %v", out, err)
	}
}

func TestNewLogger(t *testing.T) {
	cfg := config.New()
	cfg.Log.Format = "json"
	cfg.Log.Level = "debug"

	var buf bytes.Buffer
	logger, err := newLogger(cfg, &buf)
	if err != nil {
		t.Fatal(err)
	}
	logger.Debug("hello", "channel", "slow")
	if !strings.Contains(buf.String(), `"channel":"slow"`) {
		t.Errorf("json log = %s", buf.String())
	}

	cfg.Log.Level = "loud"
	if _, err := newLogger(cfg, &buf); err == nil {
		t.Error("newLogger() accepted an invalid level")
	}
}

func TestEnvCredentials(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "")
	if _, err := (envCredentials{}).Retrieve(context.Background()); err == nil {
		t.Error("Retrieve() without keys should fail")
	}

	t.Setenv("AWS_ACCESS_KEY_ID", "AKID")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")
	creds, err := (envCredentials{}).Retrieve(context.Background())
	if err != nil || creds.AccessKeyID != "AKID" {
		t.Errorf("Retrieve() = %+v, %v", creds, err)
	}
}

func TestServeShutsDown(t *testing.T) {
	cfg := config.New()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	cfg.Channels["slow"] = config.ChannelConfig{Kind: config.KindImmediate}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var logs bytes.Buffer
	if err := runServe(ctx, cfg, &logs); err != nil {
		t.Errorf("runServe() error = %v", err)
	}
}
