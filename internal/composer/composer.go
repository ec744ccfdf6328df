package composer

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/vk/projweave/internal/config"
	"github.com/vk/projweave/internal/ctxlog"
	"github.com/vk/projweave/internal/dag"
	"github.com/vk/projweave/internal/descriptor"
)

// Composer builds descriptors from projects served by a config.Loader.
type Composer struct {
	loader config.Loader
	graph  *dag.Graph
	// chain holds the canonical paths of the projects currently being
	// composed, outermost first.
	chain []string
}

// New creates a Composer reading projects through loader.
func New(loader config.Loader) *Composer {
	return &Composer{
		loader: loader,
		graph:  dag.New(),
	}
}

// Graph returns the inclusion graph recorded so far.
func (c *Composer) Graph() *dag.Graph {
	return c.graph
}

// Compose loads the project named by ref, builds its descriptor and resolves
// it. It is the top-level entry point.
func (c *Composer) Compose(ctx context.Context, ref string) (*descriptor.Manifest, error) {
	d, err := c.Build(ctx, ref, "")
	if err != nil {
		return nil, err
	}
	return c.Resolve(ctx, d)
}

// Build loads the project named by ref (relative to baseDir) and applies its
// declarations to a fresh descriptor. The descriptor is returned unresolved.
func (c *Composer) Build(ctx context.Context, ref, baseDir string) (*descriptor.Descriptor, error) {
	proj, err := c.loader.Load(ctx, ref, baseDir)
	if err != nil {
		if errors.Is(err, config.ErrNotFound) {
			return nil, descriptor.NotFoundError("", ref, err)
		}
		var fileErr *config.FileError
		if errors.As(err, &fileErr) {
			c.graph.AddNode(descriptor.NormalizePath("", fileErr.Path))
		}
		return nil, fmt.Errorf("failed to load project %q: %w", ref, err)
	}
	return c.build(ctx, proj)
}

func (c *Composer) build(ctx context.Context, proj *config.Project) (*descriptor.Descriptor, error) {
	key := projectKey(proj)
	if i := slices.Index(c.chain, key); i >= 0 {
		cycle := append(slices.Clone(c.chain[i:]), key)
		return nil, descriptor.CycleError(proj.Name, cycle)
	}
	c.chain = append(c.chain, key)
	defer func() { c.chain = c.chain[:len(c.chain)-1] }()

	ctx = ctxlog.With(ctx, "project", proj.Name)
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Building project descriptor.", "path", proj.Path, "declarations", len(proj.Declarations))

	d, err := descriptor.New(proj.Name, descriptor.InDir(proj.Dir), descriptor.FromFile(proj.Path))
	if err != nil {
		return nil, err
	}
	c.graph.AddNode(key)

	for _, decl := range proj.Declarations {
		if err := c.Apply(ctx, d, decl); err != nil {
			return nil, fmt.Errorf("%s: %w", decl, err)
		}
	}

	logger.Debug("Project descriptor built.", "sources", len(d.Sources()), "libraries", len(d.Libraries()), "defines", len(d.Defines()), "assets", len(d.Assets()), "parameters", len(d.Parameters()))
	return d, nil
}

// projectKey is the identity of a project on the chain and in the graph. It
// matches the Path of the descriptor built from it.
func projectKey(proj *config.Project) string {
	if proj.Path == "" {
		return proj.Name
	}
	return descriptor.NormalizePath(proj.Dir, proj.Path)
}

// Apply applies a single declaration to d.
func (c *Composer) Apply(ctx context.Context, d *descriptor.Descriptor, decl config.Declaration) error {
	switch decl.Kind {
	case config.KindSource:
		return d.AddSource(decl.Value)
	case config.KindLibrary:
		return d.AddLibrary(decl.Value)
	case config.KindDefine:
		return d.AddDefine(decl.Value)
	case config.KindAsset:
		return d.AddAsset(decl.Value, decl.Asset)
	case config.KindParameter:
		return d.AddParameter(decl.Value)
	case config.KindProject:
		return c.AddProject(ctx, d, decl.Value)
	default:
		return fmt.Errorf("unknown declaration kind %q", decl.Kind)
	}
}

// Resolve freezes d and returns its manifest. The inclusion graph is checked
// for cycles first, and every diagnostic is logged at warn level.
func (c *Composer) Resolve(ctx context.Context, d *descriptor.Descriptor) (*descriptor.Manifest, error) {
	logger := ctxlog.FromContext(ctx)

	if err := c.graph.DetectCycles(); err != nil {
		var cycleErr *dag.CycleError
		if errors.As(err, &cycleErr) {
			return nil, descriptor.CycleError(d.Name(), cycleErr.Path)
		}
		return nil, err
	}

	m, err := d.Resolve()
	if err != nil {
		return nil, err
	}

	for _, diag := range m.Diagnostics {
		logger.Warn("Descriptor diagnostic.", "kind", diag.Kind, "project", diag.Project, "message", diag.Message)
	}
	logger.Debug("Descriptor resolved.", "project", m.Name, "children", len(m.Children), "files", len(m.Files))
	return m, nil
}
