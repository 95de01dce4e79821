package main

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/knxgraph-core/internal/commissioning/history"
	"github.com/nerrad567/knxgraph-core/internal/infrastructure/database"
)

const projectXML = `<?xml version="1.0" encoding="utf-8"?>
<KNX xmlns="http://knx.org/xml/project/21">
  <Project Id="P-0201">
    <ProjectInformation Name="CLI House" />
  </Project>
</KNX>`

const dataXML = `<?xml version="1.0" encoding="utf-8"?>
<KNX xmlns="http://knx.org/xml/project/21">
  <Project Id="P-0201">
    <Installations>
      <Installation Name="">
        <Topology>
          <Area Id="P-0201-0_A-1" Address="1">
            <Line Id="P-0201-0_L-1" Address="1">
              <DeviceInstance Id="P-0201-0_DI-1" Name="Dimmer" Address="7" />
            </Line>
          </Area>
        </Topology>
        <GroupAddresses>
          <GroupRanges>
            <GroupRange Id="P-0201-0_GR-1" Name="Lighting">
              <GroupAddress Id="P-0201-0_GA-1" Address="2305" Name="Hall" />
            </GroupRange>
          </GroupRanges>
        </GroupAddresses>
      </Installation>
    </Installations>
  </Project>
</KNX>`

// writeProject writes a minimal project archive into dir and returns its path.
func writeProject(t *testing.T, dir, name string) string {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for path, body := range map[string]string{
		"P-0201/project.xml": projectXML,
		"P-0201/0.xml":       dataXML,
	} {
		f, err := w.Create(path)
		require.NoError(t, err)
		_, err = f.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	return path
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestParseFlags(t *testing.T) {
	t.Setenv(configEnv, "")

	opts, err := parseFlags([]string{"-password", "pw", "-style", "2", "-format", "cbor", "-record", "house.knxproj"})
	require.NoError(t, err)
	assert.Equal(t, "pw", opts.password)
	assert.Equal(t, "2", opts.style)
	assert.Equal(t, "cbor", opts.format)
	assert.True(t, opts.record)
	assert.Equal(t, "house.knxproj", opts.input)

	_, err = parseFlags(nil)
	assert.ErrorIs(t, err, errUsage)

	_, err = parseFlags([]string{"a.knxproj", "b.knxproj"})
	assert.ErrorIs(t, err, errUsage)

	_, err = parseFlags([]string{"-nope", "a.knxproj"})
	assert.ErrorIs(t, err, errUsage)
}

func TestParseFlags_ConfigFromEnvironment(t *testing.T) {
	t.Setenv(configEnv, "/etc/knxgraph/config.yaml")

	opts, err := parseFlags([]string{"house.knxproj"})
	require.NoError(t, err)
	assert.Equal(t, "/etc/knxgraph/config.yaml", opts.configPath)
}

func TestStyleName(t *testing.T) {
	assert.Equal(t, "three_level", styleName("3"))
	assert.Equal(t, "two_level", styleName("2"))
	assert.Equal(t, "free", styleName("free"))
	assert.Equal(t, "project", styleName("project"))
	assert.Empty(t, styleName(""))
}

func TestRun_WritesJSONToStdout(t *testing.T) {
	t.Setenv(configEnv, "")
	input := writeProject(t, t.TempDir(), "house.knxproj")

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{input}, &out))

	var graphs map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &graphs))
	assert.Equal(t, "CLI House", graphs["project_name"])
	assert.Contains(t, graphs, "topology_graph")
	assert.Contains(t, graphs, "group_address_graph")
}

func TestRun_WritesCBORToFile(t *testing.T) {
	t.Setenv(configEnv, "")
	dir := t.TempDir()
	input := writeProject(t, dir, "house.knxproj")
	outPath := filepath.Join(dir, "graphs.cbor")

	var stdout bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-format", "cbor", "-out", outPath, input}, &stdout))
	assert.Zero(t, stdout.Len())

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	var graphs map[string]any
	require.NoError(t, cbor.Unmarshal(data, &graphs))
	assert.Equal(t, "CLI House", graphs["project_name"])
}

func TestRun_Errors(t *testing.T) {
	t.Setenv(configEnv, "")
	dir := t.TempDir()
	input := writeProject(t, dir, "house.knxproj")
	wrongExt := writeProject(t, dir, "house.zip")

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "no input", args: nil, wantErr: "usage"},
		{name: "missing file", args: []string{filepath.Join(dir, "missing.knxproj")}, wantErr: "reading project"},
		{name: "bad format", args: []string{"-format", "xml", input}, wantErr: "unknown output format"},
		{name: "bad config", args: []string{"-config", filepath.Join(dir, "none.yaml"), input}, wantErr: "loading config"},
		{name: "wrong extension", args: []string{wrongExt}, wantErr: "invalid file format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(context.Background(), tt.args, &bytes.Buffer{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRun_RecordsHistory(t *testing.T) {
	t.Setenv(configEnv, "")
	dir := t.TempDir()
	input := writeProject(t, dir, "house.knxproj")
	dbPath := filepath.Join(dir, "history.db")
	cfgPath := writeConfig(t, dir, "database:\n  path: "+dbPath+"\n  wal_mode: true\n  busy_timeout: 5\n")

	require.NoError(t, run(context.Background(), []string{"-config", cfgPath, "-record", input}, &bytes.Buffer{}))

	db, err := database.Open(database.Config{Path: dbPath, BusyTimeout: 5})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	runs, err := history.NewSQLiteRepository(db.DB).List(context.Background(), history.Filter{})
	require.NoError(t, err)
	require.Len(t, runs.Runs, 1)
	assert.Equal(t, "house.knxproj", runs.Runs[0].Filename)
	assert.Equal(t, history.StatusSucceeded, runs.Runs[0].Status)
	assert.Equal(t, "CLI House", runs.Runs[0].ProjectName)
}

func TestRun_CancelledContext(t *testing.T) {
	t.Setenv(configEnv, "")
	input := writeProject(t, t.TempDir(), "house.knxproj")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := run(ctx, []string{input}, &bytes.Buffer{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled) || strings.Contains(err.Error(), "canceled"))
}

type stubChecker struct {
	err    error
	called bool
}

func (s *stubChecker) HealthCheck(ctx context.Context) error {
	s.called = true
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("no deadline")
	}
	return s.err
}

func TestHealthCheck(t *testing.T) {
	db, broker, influx := &stubChecker{}, &stubChecker{err: errors.New("not connected")}, &stubChecker{}

	err := healthCheck(context.Background(), []sinkCheck{
		{name: "database", checker: db},
		{name: "MQTT", checker: broker},
		{name: "InfluxDB", checker: influx},
	})
	require.Error(t, err)
	assert.Equal(t, "MQTT health check: not connected", err.Error())
	assert.True(t, db.called)
	assert.False(t, influx.called, "checks stop at the first failure")

	assert.NoError(t, healthCheck(context.Background(), []sinkCheck{{name: "database", checker: &stubChecker{}}}))
}
