package hcl

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// functions are the functions available to project file expressions.
var functions = map[string]function.Function{
	"upper":      stdlib.UpperFunc,
	"lower":      stdlib.LowerFunc,
	"join":       stdlib.JoinFunc,
	"split":      stdlib.SplitFunc,
	"format":     stdlib.FormatFunc,
	"replace":    stdlib.ReplaceFunc,
	"trimprefix": stdlib.TrimPrefixFunc,
	"trimsuffix": stdlib.TrimSuffixFunc,
	"trimspace":  stdlib.TrimSpaceFunc,
}

// newEvalContext builds the evaluation context for one project file.
func newEvalContext(env map[string]string, projectDir string) *hcl.EvalContext {
	envVals := make(map[string]cty.Value, len(env))
	for k, v := range env {
		envVals[k] = cty.StringVal(v)
	}
	envObj := cty.EmptyObjectVal
	if len(envVals) > 0 {
		envObj = cty.ObjectVal(envVals)
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env":         envObj,
			"project_dir": cty.StringVal(projectDir),
		},
		Functions: functions,
	}
}

// withProjectName returns a child context that also exposes project_name.
func withProjectName(parent *hcl.EvalContext, name string) *hcl.EvalContext {
	child := parent.NewChild()
	child.Variables = map[string]cty.Value{
		"project_name": cty.StringVal(name),
	}
	return child
}

// evalString evaluates expr and converts the result to a known, non-null
// string.
func evalString(expr hcl.Expression, ctx *hcl.EvalContext) (string, hcl.Diagnostics) {
	val, diags := expr.Value(ctx)
	if diags.HasErrors() {
		return "", diags
	}
	s, err := ctyToString(val)
	if err != nil {
		rng := expr.Range()
		return "", diags.Append(&hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid value",
			Detail:   err.Error(),
			Subject:  &rng,
		})
	}
	return s, diags
}

// ctyToString converts a primitive cty value to its string form.
func ctyToString(val cty.Value) (string, error) {
	if val.IsNull() {
		return "", fmt.Errorf("value must not be null")
	}
	if !val.IsKnown() {
		return "", fmt.Errorf("value must be known")
	}
	converted, err := convert.Convert(val, cty.String)
	if err != nil {
		return "", fmt.Errorf("cannot convert %s to string: %w", val.Type().FriendlyName(), err)
	}
	return converted.AsString(), nil
}
