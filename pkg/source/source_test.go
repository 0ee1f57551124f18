package source

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() (*log.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel}), &buf
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("<mule/>"), 0o644))
}

func TestResolve_SingleFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "example-config.xml")
	touch(t, file)

	logger, buf := testLogger()
	desc := Resolve(file, logger)

	assert.Equal(t, file, desc.Root)
	assert.Equal(t, []string{file}, desc.Files)
	assert.True(t, desc.IsFile())
	assert.Empty(t, desc.Convention)
	assert.Contains(t, buf.String(), "Reading source file "+file)
}

func TestResolve_Conventions(t *testing.T) {
	tests := []struct {
		name       string
		layout     []string
		wantSub    string
		wantConv   string
		wantLogged string
	}{
		{
			name:       "mule 4",
			layout:     []string{"src/main/mule/app.xml", "pom.xml"},
			wantSub:    "src/main/mule",
			wantConv:   "mule4",
			wantLogged: "Found standard Mule 4 source structure 'src/main/mule'. Source is a Mule-4 project.",
		},
		{
			name:       "mule 3 non-maven",
			layout:     []string{"src/main/app/app.xml", "mule-project.xml"},
			wantSub:    "src/main/app",
			wantConv:   "mule3",
			wantLogged: "Found standard Mule 3 source structure 'src/main/app'. Source is a Mule-3 project.",
		},
		{
			name:       "mule 3 maven",
			layout:     []string{"src/main/app/app.xml", "pom.xml"},
			wantSub:    "src/main/app",
			wantConv:   "mule3-maven",
			wantLogged: "Found standard Mule 3 source structure 'src/main/app'. Source is a Mule-3 project.",
		},
		{
			name:     "mule 4 wins over mule 3",
			layout:   []string{"src/main/mule/a.xml", "src/main/app/b.xml"},
			wantSub:  "src/main/mule",
			wantConv: "mule4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for _, p := range tt.layout {
				touch(t, filepath.Join(dir, p))
			}

			logger, buf := testLogger()
			desc := Resolve(dir, logger)

			assert.Equal(t, filepath.Join(dir, tt.wantSub), desc.Root)
			assert.Equal(t, tt.wantConv, desc.Convention)
			assert.Len(t, desc.Files, 1)
			if tt.wantLogged != "" {
				assert.Contains(t, buf.String(), tt.wantLogged)
			}
		})
	}
}

func TestResolve_FlatFallback(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "b.xml"))
	touch(t, filepath.Join(dir, "a.xml"))
	touch(t, filepath.Join(dir, "nested", "c.XML"))
	touch(t, filepath.Join(dir, "notes.txt"))
	touch(t, filepath.Join(dir, ".git", "config.xml"))
	touch(t, filepath.Join(dir, "target", "classes", "copy.xml"))

	desc := Resolve(dir, nil)

	assert.Equal(t, dir, desc.Root)
	assert.Empty(t, desc.Convention)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.xml"),
		filepath.Join(dir, "b.xml"),
		filepath.Join(dir, "nested", "c.XML"),
	}, desc.Files)
	assert.False(t, desc.IsFile())
}

func TestResolve_MissingPath(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "does-not-exist")

	logger, buf := testLogger()
	desc := Resolve(missing, logger)

	assert.True(t, desc.Empty())
	assert.Equal(t, missing, desc.Root)
	assert.Contains(t, buf.String(), "Source path is not readable")
}

func TestResolve_EmptyDirectory(t *testing.T) {
	desc := Resolve(t.TempDir(), nil)
	assert.True(t, desc.Empty())
}

func TestResolveWith_CustomTable(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "config", "flows.xml"))

	table := []Convention{{
		Name:    "custom",
		Subpath: "config",
		Match:   hasDir("config"),
		Message: "custom layout",
	}}
	logger, buf := testLogger()
	desc := ResolveWith(dir, table, logger)

	assert.Equal(t, "custom", desc.Convention)
	assert.Equal(t, filepath.Join(dir, "config"), desc.Root)
	assert.Contains(t, buf.String(), "custom layout")
}
