package shadow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/vango-dev/shadowdom/internal/errors"
	"github.com/vango-dev/shadowdom/pkg/live"
	"github.com/vango-dev/shadowdom/pkg/markup"
	"github.com/vango-dev/shadowdom/pkg/telemetry"
)

// Sentinel errors for errors.Is.
var (
	ErrHandleInUse    = errors.New("E120")
	ErrHandleNotFound = errors.New("E121")
	ErrHost           = errors.New("E130")
	ErrDetached       = errors.New("E140")
	ErrNotSingleNode  = errors.New("E141")
	ErrNoParent       = errors.New("E142")
	ErrWrongKind      = errors.New("E143")
)

// IsRegistryInconsistency reports whether err is an E120 or E121 invariant
// violation.
func IsRegistryInconsistency(err error) bool {
	return errors.CategoryOf(err) == errors.CategoryRegistry
}

// Options configures a Document.
type Options struct {
	// Logger receives reconcile summaries at Debug and registry
	// inconsistencies at Error. Default: slog.Default().
	Logger *slog.Logger

	// Metrics records parse, reconcile and host call metrics. Optional.
	Metrics *telemetry.Metrics

	// Tracer starts a span per entry point. Optional.
	Tracer *telemetry.Tracer

	// StrictRegistry panics on a registry inconsistency instead of
	// returning it.
	StrictRegistry bool
}

// Document owns a shadow tree mirroring one live document and is the
// only way to mutate it. All entry points are serialized by one mutex.
type Document struct {
	mu sync.Mutex

	host    live.Host
	root    *Node
	reg     *registry
	logger  *slog.Logger
	metrics *telemetry.Metrics
	tracer  *telemetry.Tracer
	strict  bool
}

// New creates a Document whose root mirrors the live node root. The live
// root's existing children are not read; call Mount to populate it.
func New(host live.Host, root live.Handle, opts Options) *Document {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	d := &Document{
		host:    telemetry.InstrumentHost(host, opts.Metrics),
		reg:     newRegistry(),
		logger:  logger.With("component", "shadow"),
		metrics: opts.Metrics,
		tracer:  opts.Tracer,
		strict:  opts.StrictRegistry,
	}
	d.root = &Node{doc: d, kind: KindElement}
	d.root.ref = d.reg.alloc(d.root)
	if err := d.bind(d.root, root); err != nil {
		panic(err)
	}
	d.metrics.SetNodes(d.reg.len())
	return d
}

// Root returns the document root. It has no tag and serializes as its
// children.
func (d *Document) Root() *Node {
	return d.root
}

// View runs fn with the document locked, so a group of reads observes
// one consistent tree. fn must not call other Document methods.
func (d *Document) View(fn func(root *Node)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn(d.root)
}

// Len returns the number of shadow nodes, the root included.
func (d *Document) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.reg.len()
}

// NodeFor returns the shadow node mirroring a live handle.
func (d *Document) NodeFor(h live.Handle) (*Node, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.reg.lookup(h)
}

// Node resolves an arena reference.
func (d *Document) Node(ref Ref) (*Node, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.reg.get(ref)
}

// LookupByID returns the live handle of the element registered for id.
func (d *Document) LookupByID(id string) (live.Handle, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.reg.handleForID(id)
}

// ElementByID returns the shadow element registered for id.
func (d *Document) ElementByID(id string) (*Node, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	h, ok := d.reg.handleForID(id)
	if !ok {
		return nil, false
	}
	return d.reg.lookup(h)
}

// Query returns the first element in the document matching sel.
func (d *Document) Query(sel string) (*Node, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.root.QuerySelector(sel)
}

// QueryAll returns every element in the document matching sel.
func (d *Document) QueryAll(sel string) ([]*Node, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.root.QuerySelectorAll(sel)
}

// HTML serializes the whole document.
func (d *Document) HTML() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.root.InnerHTML()
}

// Mount replaces the document content with src.
func (d *Document) Mount(ctx context.Context, src string) error {
	return d.SetInnerHTML(ctx, d.root, src)
}

// SetInnerHTML parses src and reconciles n's children against it. A parse
// error leaves both trees untouched. The content of a SCRIPT or STYLE
// element is taken as text, as the parser would read it.
func (d *Document) SetInnerHTML(ctx context.Context, n *Node, src string) (err error) {
	_, span := d.tracer.Start(ctx, "shadow.SetInnerHTML",
		attribute.String("shadow.node", describe(n)),
		attribute.Int("shadow.markup_bytes", len(src)),
	)
	defer func() { span.End(err) }()

	var forest []*markup.Node
	if n != nil && markup.IsRawText(n.tag) {
		forest = rawTextForest(src)
	} else if forest, err = d.parse(src); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkContainer(n); err != nil {
		return err
	}
	stats, err := d.reconcile(func(r *reconciler) error {
		return r.children(n, forest)
	})
	span.SetAttributes(attribute.Int("shadow.mutations", stats.Mutations()))
	return err
}

// SetOuterHTML parses src, which must hold exactly one top-level node,
// and reconciles n's slot in its parent against it. Inside a SCRIPT or
// STYLE element src is taken verbatim as the replacement text.
func (d *Document) SetOuterHTML(ctx context.Context, n *Node, src string) (err error) {
	_, span := d.tracer.Start(ctx, "shadow.SetOuterHTML",
		attribute.String("shadow.node", describe(n)),
		attribute.Int("shadow.markup_bytes", len(src)),
	)
	defer func() { span.End(err) }()

	var forest []*markup.Node
	if n != nil && n.parent != nil && markup.IsRawText(n.parent.tag) {
		forest = rawTextForest(src)
	} else if forest, err = d.parse(strings.TrimSpace(src)); err != nil {
		return err
	}
	if len(forest) != 1 {
		return errors.New("E141").WithDetailf("got %d top-level nodes", len(forest))
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkAlive(n); err != nil {
		return err
	}
	parent := n.parent
	if parent == nil {
		return errors.New("E142").WithDetail(describe(n))
	}
	i := n.Index()
	stats, err := d.reconcile(func(r *reconciler) error {
		return r.patch(parent, i, forest[0])
	})
	span.SetAttributes(attribute.Int("shadow.mutations", stats.Mutations()))
	return err
}

// Reconcile reconciles parent's children against an already parsed forest.
func (d *Document) Reconcile(ctx context.Context, parent *Node, forest []*markup.Node) (stats Stats, err error) {
	_, span := d.tracer.Start(ctx, "shadow.Reconcile",
		attribute.String("shadow.node", describe(parent)),
		attribute.Int("shadow.new_children", len(forest)),
	)
	defer func() { span.End(err) }()

	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkContainer(parent); err != nil {
		return Stats{}, err
	}
	return d.reconcile(func(r *reconciler) error {
		return r.children(parent, forest)
	})
}

// SetAttrs makes n's attributes equal to attrs. Values are raw markup
// values; the live node receives them decoded.
func (d *Document) SetAttrs(ctx context.Context, n *Node, attrs []markup.Attr) error {
	return d.updateAttrs(ctx, "shadow.SetAttrs", n, func([]markup.Attr) []markup.Attr {
		out := make([]markup.Attr, len(attrs))
		for i, a := range attrs {
			out[i] = markup.Attr{Name: strings.ToLower(a.Name), Value: a.Value}
		}
		return out
	})
}

// SetAttr sets one attribute to a plain value, keeping the others.
func (d *Document) SetAttr(ctx context.Context, n *Node, name, value string) error {
	name = strings.ToLower(name)
	raw := escapeAttr(value)
	return d.updateAttrs(ctx, "shadow.SetAttr", n, func(cur []markup.Attr) []markup.Attr {
		for i := range cur {
			if cur[i].Name == name {
				cur[i].Value = raw
				return cur
			}
		}
		return append(cur, markup.Attr{Name: name, Value: raw})
	})
}

// RemoveAttr removes one attribute, keeping the others.
func (d *Document) RemoveAttr(ctx context.Context, n *Node, name string) error {
	name = strings.ToLower(name)
	return d.updateAttrs(ctx, "shadow.RemoveAttr", n, func(cur []markup.Attr) []markup.Attr {
		kept := cur[:0]
		for _, a := range cur {
			if a.Name != name {
				kept = append(kept, a)
			}
		}
		return kept
	})
}

// updateAttrs derives the wanted attribute list from the current one and
// applies the difference, all under one lock.
func (d *Document) updateAttrs(ctx context.Context, op string, n *Node, want func(cur []markup.Attr) []markup.Attr) (err error) {
	_, span := d.tracer.Start(ctx, op, attribute.String("shadow.node", describe(n)))
	defer func() { span.End(err) }()

	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkElement(n); err != nil {
		return err
	}
	next := want(n.attrs.list())
	stats, err := d.reconcile(func(r *reconciler) error {
		return r.attrs(n, next)
	})
	span.SetAttributes(attribute.Int("shadow.mutations", stats.Mutations()))
	return err
}

// Remove detaches n from the live document and destroys its subtree.
func (d *Document) Remove(ctx context.Context, n *Node) (err error) {
	_, span := d.tracer.Start(ctx, "shadow.Remove", attribute.String("shadow.node", describe(n)))
	defer func() { span.End(err) }()

	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkAlive(n); err != nil {
		return err
	}
	parent := n.parent
	if parent == nil {
		return errors.New("E142").WithDetail(describe(n))
	}
	_, err = d.reconcile(func(r *reconciler) error {
		if err := r.host.RemoveChild(parent.handle, n.handle); err != nil {
			return hostErr(live.OpRemoveChild, err)
		}
		i := n.Index()
		parent.children = append(parent.children[:i], parent.children[i+1:]...)
		r.stats.Removed++
		return r.destroy(n)
	})
	return err
}

// reconcile runs fn with a fresh reconciler, then records metrics and
// logs the outcome. Callers hold d.mu.
func (d *Document) reconcile(fn func(*reconciler) error) (Stats, error) {
	start := time.Now()
	r := d.newReconciler()
	err := fn(r)
	elapsed := time.Since(start)

	d.metrics.ObserveReconcile(elapsed, err)
	d.metrics.SetNodes(d.reg.len())

	if err != nil {
		d.logger.Warn("reconcile failed",
			"error", err,
			"mutations", r.stats.Mutations(),
		)
		return r.stats, err
	}
	d.logger.Debug("reconciled",
		"created", r.stats.Created,
		"replaced", r.stats.Replaced,
		"appended", r.stats.Appended,
		"removed", r.stats.Removed,
		"attrs_set", r.stats.AttrsSet,
		"attrs_removed", r.stats.AttrsRemoved,
		"duration", elapsed,
	)
	return r.stats, nil
}

// rawTextForest is the parse of src as raw-text element content.
func rawTextForest(src string) []*markup.Node {
	if src == "" {
		return nil
	}
	return []*markup.Node{markup.Text(src)}
}

func (d *Document) parse(src string) ([]*markup.Node, error) {
	start := time.Now()
	forest, err := markup.ParseFragment(src)
	d.metrics.ObserveParse(time.Since(start), err)
	return forest, err
}

// newNode creates and registers the shadow node for a parse node.
// Children are attached by the caller.
func (d *Document) newNode(pn *markup.Node, h live.Handle) (*Node, error) {
	n := &Node{doc: d, kind: pn.Kind}
	switch pn.Kind {
	case KindElement:
		n.tag = pn.Tag
		n.void = pn.Void
		n.attrs = newAttrMap(pn.Attrs)
	default:
		n.content = pn.Content
	}
	n.ref = d.reg.alloc(n)
	if err := d.bind(n, h); err != nil {
		d.reg.release(n)
		return nil, err
	}
	d.refreshID(n)
	return n, nil
}

// refreshID brings the identifier registry in line with n's id attribute.
func (d *Document) refreshID(n *Node) {
	id := ""
	if raw, ok := n.attrs.get("id"); ok {
		id = markup.Decode(raw)
	}
	d.reg.setID(n, n.id, id)
	n.id = id
}

// release removes n from the registry and severs its handle.
func (d *Document) release(n *Node) error {
	if n.id != "" {
		d.reg.setID(n, n.id, "")
	}
	err := d.unbind(n)
	d.reg.release(n)
	n.parent = nil
	n.children = nil
	n.handle = nil
	return err
}

func (d *Document) bind(n *Node, h live.Handle) error {
	if err := d.reg.bind(n, h); err != nil {
		return d.inconsistent(err)
	}
	return nil
}

func (d *Document) unbind(n *Node) error {
	if err := d.reg.unbind(n); err != nil {
		return d.inconsistent(err)
	}
	return nil
}

func (d *Document) inconsistent(err *errors.Error) error {
	d.logger.Error("registry inconsistency", "code", err.Code, "detail", err.Detail)
	if d.strict {
		panic(err)
	}
	return err
}

func (d *Document) checkAlive(n *Node) error {
	if n == nil || n.doc != d || !d.reg.alive(n) {
		return errors.New("E140").WithDetail(describe(n))
	}
	return nil
}

func (d *Document) checkContainer(n *Node) error {
	if err := d.checkAlive(n); err != nil {
		return err
	}
	if n.kind != KindElement || n.void {
		return errors.New("E143").WithDetailf("%s cannot have children", describe(n))
	}
	return nil
}

func (d *Document) checkElement(n *Node) error {
	if err := d.checkAlive(n); err != nil {
		return err
	}
	if !n.IsElement() {
		return errors.New("E143").WithDetailf("%s has no attributes", describe(n))
	}
	return nil
}

func describe(n *Node) string {
	switch {
	case n == nil:
		return "nil node"
	case n.IsRoot():
		return "document root"
	case n.kind == KindElement:
		return fmt.Sprintf("<%s>", strings.ToLower(n.tag))
	default:
		return n.kind.String() + " node"
	}
}

var attrEscaper = strings.NewReplacer("&", "&amp;", `"`, "&quot;")

// escapeAttr turns a plain value into a raw attribute value.
func escapeAttr(v string) string {
	return attrEscaper.Replace(v)
}
