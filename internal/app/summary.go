package app

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/vk/fieldgo/internal/model"
	"github.com/vk/fieldgo/internal/session"
	"gopkg.in/yaml.v3"
)

// ObjectSummary describes one resolved object.
type ObjectSummary struct {
	Handle    int      `json:"handle" yaml:"handle"`
	Name      string   `json:"name" yaml:"name"`
	Kind      string   `json:"kind" yaml:"kind"`
	Location  string   `json:"location" yaml:"location"`
	DependsOn []string `json:"dependsOn,omitempty" yaml:"dependsOn,omitempty"`
}

// ImportSummary describes one imported name.
type ImportSummary struct {
	Href       string `json:"href" yaml:"href"`
	Region     string `json:"region" yaml:"region"`
	LocalName  string `json:"localName" yaml:"localName"`
	RemoteName string `json:"remoteName" yaml:"remoteName"`
}

// DocumentSummary is the report for one document.
type DocumentSummary struct {
	Path    string          `json:"path" yaml:"path"`
	Region  string          `json:"region" yaml:"region"`
	Imports []ImportSummary `json:"imports,omitempty" yaml:"imports,omitempty"`
	Objects []ObjectSummary `json:"objects" yaml:"objects"`
}

// summarize lists the named objects of sess in handle order. Unless all is
// set, only objects and imports of the document itself are included.
func summarize(path string, sess *session.Session, all bool) *DocumentSummary {
	doc := &DocumentSummary{Path: path, Region: sess.Region(), Objects: []ObjectSummary{}}

	sources := sess.ImportSources()
	for _, imp := range sess.Imports() {
		if !all && imp.Location != model.LocalLocation {
			continue
		}
		src := sources[imp.Source]
		doc.Imports = append(doc.Imports, ImportSummary{
			Href:       src.Href,
			Region:     src.Region,
			LocalName:  imp.LocalName,
			RemoteName: imp.RemoteName,
		})
	}

	sess.Each(func(obj model.Object) bool {
		head := obj.Head()
		if head.Name == "" || (!all && head.Location != model.LocalLocation) {
			return true
		}
		var deps []string
		for _, dep := range sess.Dependencies(head.Handle) {
			deps = append(deps, objectName(sess, dep))
		}
		doc.Objects = append(doc.Objects, ObjectSummary{
			Handle:    int(head.Handle),
			Name:      head.Name,
			Kind:      head.Kind.String(),
			Location:  head.Location.String(),
			DependsOn: deps,
		})
		return true
	})
	return doc
}

func objectName(sess *session.Session, h model.Handle) string {
	obj, err := sess.Object(h)
	if err != nil || obj.Head().Name == "" {
		return "#" + strconv.Itoa(int(h))
	}
	return obj.Head().Name
}

// print writes the summaries in the configured output format.
func (a *App) print(docs []*DocumentSummary) error {
	switch a.config.Output {
	case OutputYAML:
		out, err := yaml.Marshal(docs)
		if err != nil {
			return fmt.Errorf("fail to marshal yaml: %w", err)
		}
		_, err = a.outW.Write(out)
		return err
	case OutputJSON:
		out, err := json.MarshalIndent(docs, "", "  ")
		if err != nil {
			return fmt.Errorf("fail to marshal json: %w", err)
		}
		_, err = fmt.Fprintln(a.outW, string(out))
		return err
	case OutputTable:
		for _, doc := range docs {
			a.printTable(doc)
		}
		return nil
	default:
		// NewConfig rejects every other value.
		return fmt.Errorf("output was not validated: %q should have been rejected", a.config.Output)
	}
}

func (a *App) printTable(doc *DocumentSummary) {
	fmt.Fprintf(a.outW, "Document: %s\nRegion:   %s\n", doc.Path, doc.Region)
	for _, imp := range doc.Imports {
		fmt.Fprintf(a.outW, "Import:   %s from %s (%s)\n", imp.LocalName, imp.Href, imp.RemoteName)
	}

	table := tablewriter.NewWriter(a.outW)
	table.SetHeader([]string{"Handle", "Name", "Kind", "Location", "Depends On"})
	table.SetAutoWrapText(false)
	for _, obj := range doc.Objects {
		table.Append([]string{
			strconv.Itoa(obj.Handle),
			obj.Name,
			obj.Kind,
			obj.Location,
			strings.Join(obj.DependsOn, ", "),
		})
	}
	table.Render()
}
