package hcl

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/projweave/internal/config"
	"github.com/vk/projweave/internal/ctxlog"
	"github.com/vk/projweave/internal/fsutil"
)

// DefaultFileName is the project file looked up when a reference names a
// directory.
const DefaultFileName = "project.hcl"

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct {
	env map[string]string
}

// NewLoader creates a loader whose expressions see the process environment.
func NewLoader() *Loader {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && k != "" {
			env[k] = v
		}
	}
	return NewLoaderWithEnv(env)
}

// NewLoaderWithEnv creates a loader whose expressions see env as the
// environment.
func NewLoaderWithEnv(env map[string]string) *Loader {
	if env == nil {
		env = map[string]string{}
	}
	return &Loader{env: env}
}

// Load locates, parses and translates the project file named by ref.
func (l *Loader) Load(ctx context.Context, ref, baseDir string) (*config.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logger := ctxlog.FromContext(ctx)

	target := filepath.FromSlash(strings.ReplaceAll(ref, "\\", "/"))
	if !filepath.IsAbs(target) && baseDir != "" {
		target = filepath.Join(filepath.FromSlash(baseDir), target)
	}

	file, err := fsutil.FindProjectFile(target, DefaultFileName)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fsutil.ErrNoProjectFile) {
			return nil, fmt.Errorf("%w: %w", config.ErrNotFound, err)
		}
		return nil, fmt.Errorf("failed to locate project %q: %w", ref, err)
	}
	logger.Debug("Loading project file.", "ref", ref, "file", file)

	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCLFile(file)
	if diags.HasErrors() {
		return nil, &config.FileError{Path: filepath.ToSlash(file), Err: fmt.Errorf("failed to parse HCL file %s: %w", file, diags)}
	}

	body, ok := hclFile.Body.(*hclsyntax.Body)
	if !ok {
		return nil, &config.FileError{Path: filepath.ToSlash(file), Err: fmt.Errorf("failed to decode HCL file %s: unexpected body type %T", file, hclFile.Body)}
	}

	proj, diags := l.decode(body, file)
	if diags.HasErrors() {
		return nil, &config.FileError{Path: filepath.ToSlash(file), Err: fmt.Errorf("failed to decode HCL file %s: %w", file, diags)}
	}

	logger.Debug("Project file loaded.", "project", proj.Name, "declarations", len(proj.Declarations))
	return proj, nil
}

// decode translates a parsed project file into the declaration model.
func (l *Loader) decode(body *hclsyntax.Body, file string) (*config.Project, hcl.Diagnostics) {
	dir := filepath.Dir(file)
	evalCtx := newEvalContext(l.env, filepath.ToSlash(dir))

	name, diags := l.decodeName(body, evalCtx)
	if diags.HasErrors() {
		return nil, diags
	}

	proj := &config.Project{
		Name: name,
		Path: filepath.ToSlash(file),
		Dir:  filepath.ToSlash(dir),
	}

	blockCtx := withProjectName(evalCtx, name)
	for _, block := range body.Blocks {
		decl, blockDiags := translateBlock(block, blockCtx)
		diags = append(diags, blockDiags...)
		if blockDiags.HasErrors() {
			continue
		}
		proj.Declarations = append(proj.Declarations, decl)
	}
	return proj, diags
}

func (l *Loader) decodeName(body *hclsyntax.Body, evalCtx *hcl.EvalContext) (string, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	for _, attr := range sortedAttributes(body.Attributes) {
		if attr.Name != "name" {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Unsupported argument",
				Detail:   fmt.Sprintf("An argument named %q is not expected here; only \"name\" may be set at the top level.", attr.Name),
				Subject:  attr.NameRange.Ptr(),
			})
		}
	}

	attr, ok := body.Attributes["name"]
	if !ok {
		return "", append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Missing required argument",
			Detail:   "The argument \"name\" is required.",
			Subject: &hcl.Range{
				Filename: body.SrcRange.Filename,
				Start:    body.SrcRange.Start,
				End:      body.SrcRange.Start,
			},
		})
	}

	name, valDiags := evalString(attr.Expr, evalCtx)
	return name, append(diags, valDiags...)
}

// sortedAttributes returns attrs in source order.
func sortedAttributes(attrs hclsyntax.Attributes) []*hclsyntax.Attribute {
	out := make([]*hclsyntax.Attribute, 0, len(attrs))
	for _, attr := range attrs {
		out = append(out, attr)
	}
	slices.SortFunc(out, func(a, b *hclsyntax.Attribute) int {
		return cmp.Compare(a.SrcRange.Start.Byte, b.SrcRange.Start.Byte)
	})
	return out
}
