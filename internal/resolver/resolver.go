package resolver

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/fieldgo/internal/config"
	"github.com/vk/fieldgo/internal/ctxlog"
	"github.com/vk/fieldgo/internal/fmlerr"
	"github.com/vk/fieldgo/internal/markup"
	"github.com/vk/fieldgo/internal/model"
	"github.com/vk/fieldgo/internal/schema"
	"github.com/vk/fieldgo/internal/session"
)

// NodeError ties a failure to the document element that caused it.
type NodeError struct {
	Pos  markup.Pos
	Node string
	Err  error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Pos, e.Node, e.Err)
}

func (e *NodeError) Unwrap() error { return e.Err }

// at attaches the position of n to err unless err already carries one from
// a deeper element.
func at(n markup.Node, err error) error {
	if err == nil {
		return nil
	}
	var ne *NodeError
	if errors.As(err, &ne) {
		return err
	}
	return &NodeError{Pos: n.Pos(), Node: markup.Describe(n), Err: err}
}

// Resolver builds documents into a session.
type Resolver struct {
	sess    *session.Session
	loader  config.Loader
	opts    config.Options
	loading map[string]bool
}

// New creates a resolver that adds objects to sess and loads imported
// documents through loader.
func New(sess *session.Session, loader config.Loader, opts config.Options) *Resolver {
	return &Resolver{
		sess:    sess,
		loader:  loader,
		opts:    opts,
		loading: make(map[string]bool),
	}
}

// Load reads the document at href and resolves it into the local location.
func (r *Resolver) Load(ctx context.Context, href string) error {
	doc, err := r.loader.Load(ctx, "", href)
	if err != nil {
		return err
	}
	return r.Resolve(ctx, doc)
}

// Resolve builds every object of doc into the local location of the
// session. On failure the session is restored to its state before the call.
func (r *Resolver) Resolve(ctx context.Context, doc *config.Document) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Resolving document.", "href", doc.Href, "path", doc.Path)

	cp := r.sess.Checkpoint()
	err := r.sess.Within(model.LocalLocation, func() error {
		return r.resolve(ctx, doc, model.LocalLocation, "")
	})
	if err != nil {
		r.sess.Rollback(cp)
		logger.Debug("Document rejected.", "href", doc.Href, "error", err)
		return err
	}
	logger.Debug("Successfully resolved document.", "href", doc.Href, "region", r.sess.Region(), "handles", r.sess.Len())
	return nil
}

func docKey(doc *config.Document) string {
	if doc.Path != "" {
		return doc.Path
	}
	return doc.Href
}

// resolve builds doc into loc, which must be the current location of the
// session. region, when not empty, is the region name the importer expects.
func (r *Resolver) resolve(ctx context.Context, doc *config.Document, loc model.Location, region string) error {
	key := docKey(doc)
	r.loading[key] = true
	defer delete(r.loading, key)

	if !r.opts.SkipValidation {
		if err := schema.Validate(doc.Root); err != nil {
			return err
		}
	}

	if doc.Root.Tag() != schema.RootTag {
		return at(doc.Root, fmlerr.New(fmlerr.ErrMalformedDescription, "root element must be %s", schema.RootTag))
	}
	regionNode := markup.Child(doc.Root, "Region")
	if regionNode == nil {
		return at(doc.Root, fmlerr.New(fmlerr.ErrMalformedDescription, "document has no Region"))
	}
	name := markup.AttrOr(regionNode, "name", "")
	if region != "" && name != region {
		return at(regionNode, fmlerr.New(fmlerr.ErrNotFound, "document %s has no region %q", key, region))
	}
	if loc == model.LocalLocation {
		r.sess.SetRegion(name)
	}

	d := &docResolver{
		r:      r,
		ctx:    ctx,
		doc:    doc,
		loc:    loc,
		byName: make(map[string]*entry),
	}
	return d.run(regionNode)
}

// state is the progress of one top level node.
type state int

const (
	unvisited state = iota
	inProgress
	resolved
	failed
)

type entry struct {
	node   markup.Node
	name   string
	state  state
	handle model.Handle
	err    error
}

// docResolver resolves the objects of one document.
type docResolver struct {
	r   *Resolver
	ctx context.Context
	doc *config.Document
	loc model.Location

	entries []*entry
	// byName maps every name a top level node defines, including the names
	// of objects it creates as a side effect, to that node.
	byName map[string]*entry
	stack  []*entry
}

func (d *docResolver) sess() *session.Session { return d.r.sess }

func (d *docResolver) run(region markup.Node) error {
	for _, n := range region.Children() {
		if n.Tag() != "Import" {
			continue
		}
		if err := d.importNode(n); err != nil {
			return at(n, err)
		}
	}

	for _, n := range region.Children() {
		if n.Tag() == "Import" {
			continue
		}
		if !objectTags[n.Tag()] {
			return at(n, fmlerr.New(fmlerr.ErrMalformedDescription, "unknown element %s", n.Tag()))
		}
		e := &entry{node: n, name: markup.AttrOr(n, "name", ""), handle: model.Invalid}
		for _, name := range append([]string{e.name}, definedNames(n, e.name)...) {
			if name == "" {
				continue
			}
			if other, dup := d.byName[name]; dup {
				return at(n, fmlerr.New(fmlerr.ErrAlreadyDefined, "name is also defined at %s", other.node.Pos()).WithObject(name))
			}
			d.byName[name] = e
		}
		d.entries = append(d.entries, e)
	}

	for _, e := range d.entries {
		if err := d.build(e); err != nil {
			return err
		}
	}
	ctxlog.FromContext(d.ctx).Debug("Resolved region.", "location", d.loc.String(), "objects", len(d.entries))
	return nil
}

// build resolves e and, before it, everything e refers to.
func (d *docResolver) build(e *entry) error {
	switch e.state {
	case resolved:
		return nil
	case failed:
		return e.err
	case inProgress:
		return d.cycle(e)
	}

	e.state = inProgress
	d.stack = append(d.stack, e)
	h, err := d.construct(e.node)
	d.stack = d.stack[:len(d.stack)-1]
	if err != nil {
		e.state = failed
		e.err = at(e.node, err)
		return e.err
	}
	e.state = resolved
	e.handle = h
	return nil
}

func (d *docResolver) cycle(e *entry) error {
	var chain []string
	for i := len(d.stack) - 1; i >= 0; i-- {
		chain = append([]string{d.stack[i].name}, chain...)
		if d.stack[i] == e {
			break
		}
	}
	chain = append(chain, e.name)
	msg := chain[0]
	for _, name := range chain[1:] {
		msg += " -> " + name
	}
	return fmlerr.New(fmlerr.ErrRecursiveDefinition, "%s", msg).WithObject(e.name)
}

// lookup returns the handle of the object called name, building the node
// that defines it first when needed.
func (d *docResolver) lookup(name string) (model.Handle, error) {
	if e, ok := d.byName[name]; ok {
		if err := d.build(e); err != nil {
			return model.Invalid, err
		}
		if e.name == name {
			return e.handle, nil
		}
	}
	h, err := d.sess().Lookup(name)
	if err != nil {
		return model.Invalid, fmlerr.New(fmlerr.ErrNotFound, "no object named %q", name).WithObject(name)
	}
	return h, nil
}

// ref resolves the object named by attribute attr of n.
func (d *docResolver) ref(n markup.Node, attr string) (model.Handle, error) {
	name, ok := n.Attr(attr)
	if !ok || name == "" {
		return model.Invalid, fmlerr.New(fmlerr.ErrMalformedDescription, "%s needs a %s reference", n.Tag(), attr).WithAttribute(attr)
	}
	h, err := d.lookup(name)
	if err != nil {
		if fe, ok := err.(*fmlerr.Error); ok && fe.Kind == fmlerr.ErrNotFound && fe.Attribute == "" {
			return model.Invalid, fe.WithAttribute(attr)
		}
		return model.Invalid, err
	}
	return h, nil
}

// optRef is ref for optional attributes.
func (d *docResolver) optRef(n markup.Node, attr string) (model.Handle, error) {
	if v, ok := n.Attr(attr); !ok || v == "" {
		return model.Invalid, nil
	}
	return d.ref(n, attr)
}

// importNode loads the document an Import refers to and publishes its
// ImportType and ImportEvaluator entries.
func (d *docResolver) importNode(n markup.Node) error {
	href := markup.AttrOr(n, "href", "")
	region := markup.AttrOr(n, "region", "")
	if href == "" || region == "" {
		return fmlerr.New(fmlerr.ErrMalformedDescription, "import needs href and region")
	}

	doc, err := d.r.loader.Load(d.ctx, d.doc.Dir(), href)
	if err != nil {
		return err
	}
	key := docKey(doc)
	if d.r.loading[key] {
		return fmlerr.New(fmlerr.ErrRecursiveDefinition, "document %s imports itself", key).WithAttribute("href")
	}

	index, loc, fresh := d.sess().AddImportSource(key, region)
	if fresh {
		err := d.sess().Within(loc, func() error {
			return d.r.resolve(d.ctx, doc, loc, region)
		})
		if err != nil {
			return err
		}
	}

	for _, c := range n.Children() {
		local := markup.AttrOr(c, "localName", "")
		remote := markup.AttrOr(c, "remoteName", "")
		var err error
		switch c.Tag() {
		case "ImportType":
			_, err = d.sess().ImportType(index, local, remote)
		case "ImportEvaluator":
			_, err = d.sess().ImportEvaluator(index, local, remote)
		default:
			err = fmlerr.New(fmlerr.ErrMalformedDescription, "unexpected %s in Import", c.Tag())
		}
		if err != nil {
			return at(c, err)
		}
	}
	return nil
}
