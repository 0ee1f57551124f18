package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePOM = `<?xml version="1.0" encoding="UTF-8"?>
<project>
  <parent>
    <groupId>com.example.parent</groupId>
    <artifactId>mule-parent</artifactId>
    <version>2.1.0</version>
  </parent>
  <artifactId>orders-api</artifactId>
  <packaging>mule-application</packaging>
  <name> Orders API </name>
  <dependencies>
    <dependency>
      <groupId>org.mule.connectors</groupId>
      <artifactId>mule-http-connector</artifactId>
      <classifier>mule-plugin</classifier>
    </dependency>
    <dependency>
      <groupId>org.mule.connectors</groupId>
      <artifactId>mule-http-connector</artifactId>
      <classifier>mule-plugin</classifier>
    </dependency>
    <dependency>
      <groupId>com.mulesoft.munit</groupId>
      <artifactId>munit-runner</artifactId>
      <classifier>mule-plugin</classifier>
      <scope>test</scope>
    </dependency>
    <dependency>
      <groupId>${connector.group}</groupId>
      <artifactId>mule-db-connector</artifactId>
      <classifier>mule-plugin</classifier>
    </dependency>
    <dependency>
      <groupId>junit</groupId>
      <artifactId>junit</artifactId>
    </dependency>
  </dependencies>
</project>`

func TestReadProject(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pom.xml"), []byte(samplePOM), 0o644))

	p := ReadProject(dir)
	require.NotNil(t, p)
	assert.Equal(t, "com.example.parent", p.GroupID)
	assert.Equal(t, "orders-api", p.ArtifactID)
	assert.Equal(t, "2.1.0", p.Version)
	assert.Equal(t, "Orders API", p.DisplayName())
	assert.Equal(t, "mule-application", p.Packaging)
	assert.Equal(t, []string{"org.mule.connectors:mule-http-connector"}, p.Connectors)
}

func TestReadProject_Missing(t *testing.T) {
	assert.Nil(t, ReadProject(t.TempDir()))

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pom.xml"), []byte("<project>"), 0o644))
	assert.Nil(t, ReadProject(dir))
}

func TestProject_DisplayName(t *testing.T) {
	var p *Project
	assert.Empty(t, p.DisplayName())
	assert.Equal(t, "orders", (&Project{ArtifactID: "orders"}).DisplayName())
}

func TestResolve_RecordsProject(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "src", "main", "mule", "app.xml"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pom.xml"), []byte(samplePOM), 0o644))

	desc := Resolve(dir, nil)
	require.NotNil(t, desc.Project)
	assert.Equal(t, "orders-api", desc.Project.ArtifactID)

	file := Resolve(filepath.Join(dir, "src", "main", "mule", "app.xml"), nil)
	assert.Nil(t, file.Project)
}
