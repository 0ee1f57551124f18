package source

import (
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"
)

// Project is the Maven coordinate block of a Mule application's pom.xml.
type Project struct {
	GroupID     string
	ArtifactID  string
	Version     string
	Name        string
	Description string
	Packaging   string   // "mule-application" for Mule 4, "mule" for Mule 3
	Connectors  []string // groupId:artifactId of mule-plugin dependencies
}

// DisplayName is the project name, falling back to the artifact id.
func (p *Project) DisplayName() string {
	if p == nil {
		return ""
	}
	if p.Name != "" {
		return p.Name
	}
	return p.ArtifactID
}

// ReadProject parses dir/pom.xml. It returns nil when the file is missing
// or is not well-formed XML.
func ReadProject(dir string) *Project {
	data, err := os.ReadFile(filepath.Join(dir, "pom.xml"))
	if err != nil {
		return nil
	}
	var pom pomProject
	if err := xml.Unmarshal(data, &pom); err != nil {
		return nil
	}

	p := &Project{
		GroupID:     pom.GroupID,
		ArtifactID:  pom.ArtifactID,
		Version:     pom.Version,
		Name:        strings.TrimSpace(pom.Name),
		Description: strings.TrimSpace(pom.Description),
		Packaging:   pom.Packaging,
	}
	if p.GroupID == "" && pom.Parent != nil {
		p.GroupID = pom.Parent.GroupID
	}
	if p.Version == "" && pom.Parent != nil {
		p.Version = pom.Parent.Version
	}
	p.Connectors = connectors(pom.Dependencies)
	return p
}

func connectors(deps []pomDependency) []string {
	var out []string
	seen := make(map[string]bool)
	for _, dep := range deps {
		if dep.Classifier != "mule-plugin" || dep.Scope == "test" {
			continue
		}
		// Unresolved Maven properties carry no usable coordinate.
		if strings.HasPrefix(dep.GroupID, "${") || strings.HasPrefix(dep.ArtifactID, "${") {
			continue
		}
		coord := dep.GroupID + ":" + dep.ArtifactID
		if !seen[coord] {
			seen[coord] = true
			out = append(out, coord)
		}
	}
	return out
}

type pomProject struct {
	GroupID      string          `xml:"groupId"`
	ArtifactID   string          `xml:"artifactId"`
	Version      string          `xml:"version"`
	Name         string          `xml:"name"`
	Description  string          `xml:"description"`
	Packaging    string          `xml:"packaging"`
	Dependencies []pomDependency `xml:"dependencies>dependency"`
	Parent       *pomParent      `xml:"parent"`
}

type pomParent struct {
	GroupID string `xml:"groupId"`
	Version string `xml:"version"`
}

type pomDependency struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Classifier string `xml:"classifier"`
	Scope      string `xml:"scope"`
}
