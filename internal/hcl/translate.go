package hcl

import (
	"fmt"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/projweave/internal/config"
	"github.com/vk/projweave/internal/descriptor"
)

// translateBlock turns one top-level block into a declaration.
func translateBlock(block *hclsyntax.Block, evalCtx *hcl.EvalContext) (config.Declaration, hcl.Diagnostics) {
	if len(block.Labels) > 1 {
		return config.Declaration{}, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Too many labels",
			Detail:   fmt.Sprintf("A %q block takes at most one label.", block.Type),
			Subject:  block.LabelRanges[1].Ptr(),
		}}
	}

	decl := config.Declaration{
		Kind:   config.Kind(block.Type),
		Origin: origin(block.DefRange()),
	}

	var diags hcl.Diagnostics
	switch decl.Kind {
	case config.KindSource, config.KindLibrary, config.KindProject:
		var b pathBlock
		diags = gohcl.DecodeBody(block.Body, evalCtx, &b)
		if diags.HasErrors() {
			return decl, diags
		}
		decl.Value, diags = labelOrAttr(block, b.Path, "path")

	case config.KindParameter:
		var b parameterBlock
		diags = gohcl.DecodeBody(block.Body, evalCtx, &b)
		if diags.HasErrors() {
			return decl, diags
		}
		decl.Value, diags = labelOrAttr(block, b.Value, "value")

	case config.KindDefine:
		var b defineBlock
		diags = gohcl.DecodeBody(block.Body, evalCtx, &b)
		if diags.HasErrors() {
			return decl, diags
		}
		decl.Value, diags = labelOrAttr(block, b.Name, "name")
		if !diags.HasErrors() && b.Value != nil {
			decl.Value += "=" + *b.Value
		}

	case config.KindAsset:
		var b assetBlock
		diags = gohcl.DecodeBody(block.Body, evalCtx, &b)
		if diags.HasErrors() {
			return decl, diags
		}
		decl.Value, diags = labelOrAttr(block, b.Path, "path")
		opts, optDiags := assetOptions(&b, evalCtx)
		diags = append(diags, optDiags...)
		decl.Asset = opts

	default:
		diags = hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Unsupported block type",
			Detail:   fmt.Sprintf("Blocks of type %q are not expected here. Expected one of %v.", block.Type, config.Kinds),
			Subject:  block.TypeRange.Ptr(),
		}}
	}
	return decl, diags
}

// labelOrAttr returns the block's label or the decoded attribute value. Exactly
// one of the two must be present.
func labelOrAttr(block *hclsyntax.Block, attr *string, attrName string) (string, hcl.Diagnostics) {
	switch {
	case len(block.Labels) == 1 && attr != nil:
		return "", hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Conflicting values",
			Detail:   fmt.Sprintf("A %q block takes either a label or a %q argument, not both.", block.Type, attrName),
			Subject:  block.LabelRanges[0].Ptr(),
		}}
	case len(block.Labels) == 1:
		return block.Labels[0], nil
	case attr != nil:
		return *attr, nil
	default:
		rng := block.DefRange()
		return "", hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Missing value",
			Detail:   fmt.Sprintf("A %q block requires a label or a %q argument.", block.Type, attrName),
			Subject:  &rng,
		}}
	}
}

func assetOptions(b *assetBlock, evalCtx *hcl.EvalContext) (descriptor.AssetOptions, hcl.Diagnostics) {
	var opts descriptor.AssetOptions
	if b.NotInList != nil {
		opts.NotInList = *b.NotInList
	}
	if b.Name != nil {
		opts.Name = *b.Name
	}
	if b.Destination != nil {
		opts.Destination = *b.Destination
	}
	if b.Remain == nil {
		return opts, nil
	}

	attrs, diags := b.Remain.JustAttributes()
	if diags.HasErrors() {
		return opts, diags
	}
	for name, attr := range attrs {
		val, valDiags := evalString(attr.Expr, evalCtx)
		diags = append(diags, valDiags...)
		if valDiags.HasErrors() {
			continue
		}
		if opts.Extra == nil {
			opts.Extra = make(map[string]string, len(attrs))
		}
		opts.Extra[name] = val
	}
	return opts, diags
}

func origin(rng hcl.Range) string {
	return fmt.Sprintf("%s:%d,%d", filepath.ToSlash(rng.Filename), rng.Start.Line, rng.Start.Column)
}
