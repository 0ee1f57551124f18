// Package parser extracts flow containers from Mule configuration files.
//
// [Parse] reads one file; [Aggregate] reads a list of files and concatenates
// their containers in file order. Both absorb per-file problems: a document
// whose root is not a Mule <mule> element, or that is not well-formed XML,
// contributes nothing and is logged, so one bad file never aborts the run.
//
// Flow references are recorded by name only. They are linked by the graph
// builder once every file has been read.
package parser

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/muleflow/pkg/catalog"
	"github.com/matzehuels/muleflow/pkg/model"
)

// Namespaces of the Mule dialect. Mule 3 and Mule 4 share the core namespace
// and differ in their schema locations only.
const (
	CoreNamespace = "http://www.mulesoft.org/schema/mule/core"
	DocNamespace  = "http://www.mulesoft.org/schema/mule/documentation"

	xmlnsSpace = "xmlns"
)

// configOnly lists elements that configure the operation they are nested in.
// Their subtrees never hold processors.
var configOnly = map[string]bool{
	"http:request-builder":           true,
	"http:response-builder":          true,
	"http:error-response-builder":    true,
	"http:response":                  true,
	"http:error-response":            true,
	"http:headers":                   true,
	"http:query-params":              true,
	"http:uri-params":                true,
	"http:body":                      true,
	"ee:message":                     true,
	"ee:variables":                   true,
	"ee:attributes":                  true,
	"db:sql":                         true,
	"db:input-parameters":            true,
	"db:parameter-types":             true,
	"vm:queues":                      true,
	"scheduling-strategy":            true,
	"reconnect":                      true,
	"reconnect-forever":              true,
	"reconnection":                   true,
	"redelivery-policy":              true,
	"expiration-policy":              true,
	"repeatable-in-memory-stream":    true,
	"repeatable-file-store-stream":   true,
	"non-repeatable-stream":          true,
	"repeatable-in-memory-iterable":  true,
	"repeatable-file-store-iterable": true,
	"non-repeatable-iterable":        true,
}

// errNotMule signals a well-formed document with a foreign root element.
var errNotMule = errors.New("not a mule configuration file")

// Options configures parsing.
type Options struct {
	// Catalog names the routers, scopes and error handlers whose children are
	// all processors. Below any other element, text-valued children such as
	// <db:sql> are configuration and are dropped. A nil catalog knows no such
	// elements.
	Catalog *catalog.Catalog
	// Logger receives skip diagnostics. Nil discards them.
	Logger *log.Logger
	// Workers bounds concurrent file parsing in Aggregate. Values below 2
	// parse sequentially.
	Workers int
}

func (o Options) logger() *log.Logger {
	if o.Logger == nil {
		return log.New(io.Discard)
	}
	return o.Logger
}

func (o Options) catalog() *catalog.Catalog {
	if o.Catalog == nil {
		return catalog.New()
	}
	return o.Catalog
}

// Parse reads the configuration file at path and returns its flow
// containers in document order. Files that are not Mule configurations, or
// not well-formed, yield an empty result and a log entry. Only a file that
// cannot be opened returns an error.
func Parse(path string, opts Options) ([]*model.FlowContainer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	containers, err := Read(f, path, opts)
	switch {
	case errors.Is(err, errNotMule):
		opts.logger().Info("Not a mule configuration file: " + path)
		return nil, nil
	case err != nil:
		opts.logger().Warn("Skipping malformed configuration file", "file", path, "err", err)
		return nil, nil
	}
	opts.logger().Debug("Parsed configuration file", "file", path, "containers", len(containers))
	return containers, nil
}

// Read decodes a configuration document from r. sourceFile is recorded on
// every returned container. Read reports foreign root elements and syntax
// errors as errors; [Parse] turns them into log entries.
func Read(r io.Reader, sourceFile string, opts Options) ([]*model.FlowContainer, error) {
	p := &docParser{
		dec:      xml.NewDecoder(r),
		catalog:  opts.catalog(),
		file:     sourceFile,
		prefixes: map[string]string{CoreNamespace: ""},
	}
	return p.parse()
}

type docParser struct {
	dec      *xml.Decoder
	catalog  *catalog.Catalog
	file     string
	prefixes map[string]string // namespace URI -> prefix
}

func (p *docParser) parse() ([]*model.FlowContainer, error) {
	root, err := p.nextStart()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty document", errNotMule)
	}
	if err != nil {
		return nil, err
	}
	if root.Name.Local != "mule" || root.Name.Space != CoreNamespace {
		return nil, fmt.Errorf("%w: root element %s", errNotMule, qualified(root.Name))
	}
	p.declare(root)

	var containers []*model.FlowContainer
	for {
		tok, err := p.dec.Token()
		if err == io.EOF {
			return nil, fmt.Errorf("unexpected end of document")
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			p.declare(t)
			kind, ok := containerKind(t)
			if !ok {
				if err := p.dec.Skip(); err != nil {
					return nil, err
				}
				continue
			}
			c, err := p.container(kind, t)
			if err != nil {
				return nil, err
			}
			containers = append(containers, c)
		case xml.EndElement:
			return containers, nil
		}
	}
}

// containerKind reports whether a top-level element is a flow container.
// Global error handlers only count when they are named.
func containerKind(el xml.StartElement) (string, bool) {
	if el.Name.Space != CoreNamespace {
		return "", false
	}
	switch el.Name.Local {
	case model.KindFlow, model.KindSubFlow:
		return el.Name.Local, true
	case model.KindErrorHandler:
		return model.KindErrorHandler, attr(el, "", "name") != ""
	}
	return "", false
}

func (p *docParser) container(kind string, el xml.StartElement) (*model.FlowContainer, error) {
	c := &model.FlowContainer{
		Type:        kind,
		Name:        attr(el, "", "name"),
		Description: attr(el, DocNamespace, "description"),
		SourceFile:  p.file,
	}
	b, err := p.children(true)
	if err != nil {
		return nil, fmt.Errorf("%s %q: %w", kind, c.Name, err)
	}
	c.Processors = b.steps
	if c.Description == "" {
		c.Description = b.desc
	}
	return c, nil
}

// body is the content of one element.
type body struct {
	steps []*model.Step
	desc  string // Mule 3 <description>
	text  bool   // non-blank character data
}

// children reads processors until the end of the current element. Mule 3
// <description> elements are returned separately instead of as steps.
// Unless keepValues is set, text-valued leaves are dropped: below a
// connector operation or an unknown element they hold configuration such as
// a query or an expression, not a processor.
func (p *docParser) children(keepValues bool) (body, error) {
	var b body
	for {
		tok, err := p.dec.Token()
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return body{}, err
		}
		switch t := tok.(type) {
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				b.text = true
			}
		case xml.StartElement:
			p.declare(t)
			if t.Name.Space == DocNamespace {
				if err := p.dec.Skip(); err != nil {
					return body{}, err
				}
				continue
			}
			if t.Name.Space == CoreNamespace && t.Name.Local == "description" {
				var text string
				if err := p.dec.DecodeElement(&text, &t); err != nil {
					return body{}, err
				}
				b.desc = strings.TrimSpace(text)
				continue
			}
			s, value, err := p.step(t)
			if err != nil {
				return body{}, err
			}
			if s == nil || (value && !keepValues) {
				continue
			}
			b.steps = append(b.steps, s)
		case xml.EndElement:
			return b, nil
		}
	}
}

// step reads one processor and its nested processors. Configuration-only
// elements yield a nil step. value reports a leaf carrying only text.
func (p *docParser) step(el xml.StartElement) (s *model.Step, value bool, err error) {
	kind := p.kind(el.Name)
	if configOnly[kind] {
		return nil, false, p.dec.Skip()
	}
	s = &model.Step{
		Kind:      kind,
		Label:     attr(el, DocNamespace, "name"),
		ConfigRef: firstAttr(el, "config-ref", "connector-ref"),
	}
	if s.Label == "" {
		s.Label = kind
	}

	switch kind {
	case "flow-ref":
		s.Reference = attr(el, "", "name")
		s.Dynamic = strings.Contains(s.Reference, "#[")
	case model.KindErrorHandler:
		// <error-handler ref="..."/> inside a flow points at a global handler
		s.Reference = attr(el, "", "ref")
	}

	b, err := p.children(p.catalog.Lookup(kind).IsContainer())
	if err != nil {
		return nil, false, err
	}
	s.Children = b.steps
	value = b.text && len(b.steps) == 0 && !s.IsReference()
	return s, value, nil
}

// kind returns the element key: the bare local name for core elements and
// "prefix:local" otherwise. Prefixes come from the xmlns declarations seen so
// far; undeclared namespaces fall back to the last URI path segment.
func (p *docParser) kind(name xml.Name) string {
	if name.Space == "" {
		return name.Local
	}
	prefix, ok := p.prefixes[name.Space]
	if !ok {
		prefix = path.Base(strings.TrimSuffix(name.Space, "/core"))
	}
	if prefix == "" {
		return name.Local
	}
	return prefix + ":" + name.Local
}

func (p *docParser) declare(el xml.StartElement) {
	for _, a := range el.Attr {
		if a.Name.Space == xmlnsSpace {
			if _, seen := p.prefixes[a.Value]; !seen {
				p.prefixes[a.Value] = a.Name.Local
			}
		}
	}
}

func (p *docParser) nextStart() (xml.StartElement, error) {
	for {
		tok, err := p.dec.Token()
		if err != nil {
			return xml.StartElement{}, err
		}
		if el, ok := tok.(xml.StartElement); ok {
			return el, nil
		}
	}
}

func attr(el xml.StartElement, space, local string) string {
	for _, a := range el.Attr {
		if a.Name.Space == space && a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

func firstAttr(el xml.StartElement, locals ...string) string {
	for _, l := range locals {
		if v := attr(el, "", l); v != "" {
			return v
		}
	}
	return ""
}

func qualified(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return "{" + n.Space + "}" + n.Local
}
