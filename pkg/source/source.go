// Package source resolves a user-supplied path into the set of Mule
// configuration files to parse.
//
// A regular file is used as-is. A directory is probed against an ordered
// table of project layout conventions ([Conventions]); the first matching
// rule decides the configuration root. Directories matching no convention are
// used directly (flat layout).
//
// Resolution never fails: a missing or unreadable path produces a
// [Descriptor] with no files, so the pipeline can still run and report that
// no flows were found.
package source

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
)

// Convention is one project layout rule.
type Convention struct {
	Name    string                 // Stable identifier, recorded in Descriptor.Convention
	Subpath string                 // Configuration root relative to the project directory
	Match   func(root string) bool // Reports whether root uses this layout
	Message string                 // Informational log line emitted on match
	Detail  string                 // Optional debug line emitted on match
}

const (
	mule4Message = "Found standard Mule 4 source structure 'src/main/mule'. Source is a Mule-4 project."
	mule3Message = "Found standard Mule 3 source structure 'src/main/app'. Source is a Mule-3 project."
)

// Conventions lists the known layouts in priority order.
var Conventions = []Convention{
	{
		Name:    "mule4",
		Subpath: filepath.Join("src", "main", "mule"),
		Match:   hasDir("src", "main", "mule"),
		Message: mule4Message,
	},
	{
		Name:    "mule3-maven",
		Subpath: filepath.Join("src", "main", "app"),
		Match:   all(hasFile("pom.xml"), hasDir("src", "main", "app")),
		Message: mule3Message,
		Detail:  "Found pom.xml, Mule 3 project is built with Maven",
	},
	{
		Name:    "mule3",
		Subpath: filepath.Join("src", "main", "app"),
		Match:   hasDir("src", "main", "app"),
		Message: mule3Message,
	},
}

// Descriptor is the outcome of resolving a source path.
type Descriptor struct {
	Input      string   // Absolute form of the user-supplied path
	Root       string   // Resolved configuration file or directory
	Convention string   // Matched convention name, "" for single files and flat layouts
	Files      []string // Configuration files in resolution order
	Project    *Project // pom.xml metadata of a directory source, if any
}

// IsFile reports whether the descriptor points at a single file.
func (d Descriptor) IsFile() bool {
	return len(d.Files) == 1 && d.Files[0] == d.Root
}

// Empty reports whether no files were found.
func (d Descriptor) Empty() bool { return len(d.Files) == 0 }

// Resolve determines the configuration root for path and lists its files.
// A nil logger discards output.
func Resolve(path string, logger *log.Logger) Descriptor {
	return ResolveWith(path, Conventions, logger)
}

// ResolveWith is [Resolve] with a custom convention table.
func ResolveWith(path string, conventions []Convention, logger *log.Logger) Descriptor {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		logger.Warn("Cannot resolve source path", "path", path, "err", err)
		return Descriptor{Input: path, Root: path}
	}
	desc := Descriptor{Input: abs, Root: abs}

	info, err := os.Stat(abs)
	if err != nil {
		logger.Warn("Source path is not readable", "path", abs, "err", err)
		return desc
	}

	if !info.IsDir() {
		logger.Info("Reading source file " + abs)
		desc.Files = []string{abs}
		return desc
	}

	if p := ReadProject(abs); p != nil {
		desc.Project = p
		logger.Debug("Read project descriptor", "name", p.DisplayName(), "version", p.Version, "connectors", len(p.Connectors))
	}
	root, conv := ResolveRoot(abs, conventions, logger)
	desc.Root = root
	desc.Convention = conv
	desc.Files = ListConfigFiles(root, logger)
	logger.Debug("Resolved configuration files", "root", root, "files", len(desc.Files))
	return desc
}

// ResolveRoot applies the convention table to dir and returns the
// configuration root together with the name of the matched convention.
// Without a match, dir itself is returned with an empty name.
func ResolveRoot(dir string, conventions []Convention, logger *log.Logger) (string, string) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	for _, c := range conventions {
		if !c.Match(dir) {
			continue
		}
		logger.Info(c.Message)
		if c.Detail != "" {
			logger.Debug(c.Detail)
		}
		return filepath.Join(dir, c.Subpath), c.Name
	}
	logger.Debug("No standard project structure found, using directory as source root", "dir", dir)
	return dir, ""
}

// ListConfigFiles returns every .xml file below root, sorted lexically.
// Hidden directories and Maven "target" output are skipped. Unreadable
// entries are logged and ignored.
func ListConfigFiles(root string, logger *log.Logger) []string {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("Skipping unreadable path", "path", path, "err", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != root && skipDir(d.Name()) {
				return fs.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(d.Name()), ".xml") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		logger.Warn("Cannot list configuration files", "root", root, "err", err)
	}
	slices.Sort(files)
	return files
}

func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || name == "target"
}

func hasDir(elem ...string) func(string) bool {
	return func(root string) bool {
		info, err := os.Stat(filepath.Join(append([]string{root}, elem...)...))
		return err == nil && info.IsDir()
	}
}

func hasFile(elem ...string) func(string) bool {
	return func(root string) bool {
		info, err := os.Stat(filepath.Join(append([]string{root}, elem...)...))
		return err == nil && info.Mode().IsRegular()
	}
}

func all(preds ...func(string) bool) func(string) bool {
	return func(root string) bool {
		for _, p := range preds {
			if !p(root) {
				return false
			}
		}
		return true
	}
}
