package composer

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/vk/projweave/internal/config"
	"github.com/vk/projweave/internal/ctxlog"
	"github.com/vk/projweave/internal/descriptor"
)

// AddProject composes the sub-project named by ref into parent. The child is
// built and resolved completely before anything is spliced; its sources,
// libraries, defines, assets and parameters then go through parent's own
// primitives in the child's order. On any failure parent is restored to its
// state from before the call.
func (c *Composer) AddProject(ctx context.Context, parent *descriptor.Descriptor, ref string) error {
	if err := parent.BeginComposition(); err != nil {
		return err
	}
	snap := parent.Snapshot()

	err := c.addProject(ctx, parent, ref)
	parent.EndComposition()
	if err == nil {
		return nil
	}

	if rerr := parent.Restore(snap); rerr != nil {
		return errors.Join(err, fmt.Errorf("failed to roll back %q: %w", parent.Name(), rerr))
	}
	ctxlog.FromContext(ctx).Debug("Sub-project composition failed, parent rolled back.", "ref", ref, "error", err)
	return err
}

func (c *Composer) addProject(ctx context.Context, parent *descriptor.Descriptor, ref string) error {
	logger := ctxlog.FromContext(ctx)
	if ref == "" {
		return descriptor.InvalidReferenceError(parent.Name(), "sub-project reference must not be empty")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	// A descriptor built outside Compose is not on the chain yet.
	if p := parent.Path(); p != "" && !slices.Contains(c.chain, p) {
		c.chain = append(c.chain, p)
		defer func() { c.chain = c.chain[:len(c.chain)-1] }()
	}

	logger.Debug("Composing sub-project.", "ref", ref, "base_dir", parent.Dir())
	proj, err := c.loader.Load(ctx, ref, parent.Dir())
	if err != nil {
		if errors.Is(err, config.ErrNotFound) {
			return descriptor.NotFoundError(parent.Name(), ref, err)
		}
		var fileErr *config.FileError
		if errors.As(err, &fileErr) {
			c.recordFile(parent, fileErr.Path)
		}
		return fmt.Errorf("failed to load sub-project %q: %w", ref, err)
	}

	child, err := c.build(ctx, proj)
	if err != nil {
		return err
	}
	m, err := child.Resolve()
	if err != nil {
		return fmt.Errorf("failed to resolve sub-project %q: %w", proj.Name, err)
	}

	if err := splice(parent, m); err != nil {
		return fmt.Errorf("failed to merge sub-project %q: %w", proj.Name, err)
	}
	if parent.Path() != "" && m.Path != "" {
		if err := c.graph.AddEdge(parent.Path(), m.Path); err != nil {
			return err
		}
	}

	logger.Debug("Sub-project merged.", "child", m.Name, "sources", len(m.Sources), "libraries", len(m.Libraries), "defines", len(m.Defines), "assets", len(m.Assets), "parameters", len(m.Parameters))
	return nil
}

// recordFile adds a located project file to the inclusion graph, so that it
// is watched even though it could not be loaded.
func (c *Composer) recordFile(parent *descriptor.Descriptor, file string) {
	key := descriptor.NormalizePath("", file)
	c.graph.AddNode(key)
	if p := parent.Path(); p != "" && p != key {
		// Only a self-referential edge can fail, and that case is excluded.
		_ = c.graph.AddEdge(p, key)
	}
}

// splice adds every entry of a resolved child to parent as if each had been
// declared directly at the call site.
func splice(parent *descriptor.Descriptor, m *descriptor.Manifest) error {
	if err := parent.AddDiagnostics(m.Diagnostics...); err != nil {
		return err
	}
	for _, s := range m.Sources {
		if err := parent.AddSource(s); err != nil {
			return err
		}
	}
	for _, l := range m.Libraries {
		if err := parent.AddLibrary(l); err != nil {
			return err
		}
	}
	for _, d := range m.Defines {
		if err := parent.AddDefine(d.Literal); err != nil {
			return err
		}
	}
	for _, a := range m.Assets {
		if err := parent.AddAsset(a.Path, a.Options); err != nil {
			return err
		}
	}
	for _, p := range m.Parameters {
		if err := parent.AddParameter(p); err != nil {
			return err
		}
	}
	for _, f := range m.Files {
		if err := parent.AddFile(f); err != nil {
			return err
		}
	}
	return parent.AddChild(descriptor.Child{Name: m.Name, Path: m.Path})
}
