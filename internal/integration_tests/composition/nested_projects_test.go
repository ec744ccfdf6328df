package integration_tests

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/projweave/internal/descriptor"
	"github.com/vk/projweave/internal/testutil"
)

// Test for: a parent composing sub-projects gets their entries spliced in at
// the call site, in declaration order.
func TestComposition_NestedProjectsSplicedInOrder(t *testing.T) {
	files := map[string]string{
		"editor/project.hcl": `
name = "koui_editor"

source "Sources" {}
library { path = "${env.SDK}/armory" }
project "../koui" {}
parameter "Main" {}
define "rp_renderer=Forward" {}
asset {
  path      = "${env.SDK}/Assets/brdf.png"
  notinlist = true
}
`,
		"koui/project.hcl": `
name = "koui"

source "Sources" {}
library "Libraries/zui" {}
define "koui_debug" {}
asset "Assets/font.ttf" {
  destination = "fonts/font.ttf"
}
parameter "--macro include('koui')" {}
`,
	}

	result := testutil.RunIntegrationTest(t, files, "editor", map[string]string{"SDK": "/opt/sdk"})
	require.NoError(t, result.Err)
	m := result.Manifest

	assert.Equal(t, "koui_editor", m.Name)
	assert.Equal(t, []string{result.Path("editor/Sources"), result.Path("koui/Sources")}, m.Sources)
	assert.Equal(t, []string{"/opt/sdk/armory", result.Path("koui/Libraries/zui")}, m.Libraries)
	assert.Equal(t, []string{"--macro include('koui')", "Main"}, m.Parameters)

	wantDefines := []descriptor.Define{
		{Key: "koui_debug", Literal: "koui_debug"},
		{Key: "rp_renderer", Literal: "rp_renderer=Forward"},
	}
	if diff := cmp.Diff(wantDefines, m.Defines); diff != "" {
		t.Errorf("defines mismatch (-want +got):\n%s", diff)
	}

	wantAssets := []descriptor.Asset{
		{Path: result.Path("koui/Assets/font.ttf"), Options: descriptor.AssetOptions{Destination: "fonts/font.ttf"}},
		{Path: "/opt/sdk/Assets/brdf.png", Options: descriptor.AssetOptions{NotInList: true}},
	}
	if diff := cmp.Diff(wantAssets, m.Assets); diff != "" {
		t.Errorf("assets mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, []descriptor.Child{{Name: "koui", Path: result.Path("koui/project.hcl")}}, m.Children)
	assert.Equal(t, []string{result.Path("editor/project.hcl"), result.Path("koui/project.hcl")}, m.Files)
	assert.Empty(t, m.Diagnostics)
}

// Test for: a library reached through two sub-projects appears once, at the
// position of its first occurrence.
func TestComposition_DiamondDeduplicatesLibraries(t *testing.T) {
	files := map[string]string{
		"app/project.hcl": `
name = "app"
project "../left" {}
project "../right" {}
`,
		"left/project.hcl": `
name = "left"
project "../iron" {}
library "/libs/left" {}
`,
		"right/project.hcl": `
name = "right"
project "../iron" {}
library "/libs/right" {}
`,
		"iron/project.hcl": `
name = "iron"
library "/libs/iron" {}
`,
	}

	result := testutil.RunIntegrationTest(t, files, "app", nil)
	require.NoError(t, result.Err)
	assert.Equal(t, []string{"/libs/iron", "/libs/left", "/libs/right"}, result.Manifest.Libraries)
	assert.Len(t, result.Manifest.Children, 2)
}

// Test for: sibling sub-projects setting the same define resolve to the later
// one, with a warning in the manifest.
func TestComposition_SiblingDefinesLastWins(t *testing.T) {
	files := map[string]string{
		"app/project.hcl": `
name = "app"
project "../a" {}
project "../b" {}
`,
		"a/project.hcl": `
name = "a"
define "rp_renderer=Forward" {}
`,
		"b/project.hcl": `
name = "b"
define "rp_renderer" { value = "Deferred" }
`,
	}

	result := testutil.RunIntegrationTest(t, files, "app", nil)
	require.NoError(t, result.Err)

	literal, ok := result.Manifest.Define("rp_renderer")
	require.True(t, ok)
	assert.Equal(t, "rp_renderer=Deferred", literal)
	require.Len(t, result.Manifest.Diagnostics, 1)
	assert.Equal(t, descriptor.ConflictingDefine, result.Manifest.Diagnostics[0].Kind)
	assert.Contains(t, result.LogOutput, "warning[conflicting_define]")
}

// Test for: asset options declared later override earlier ones while the
// asset keeps its first position.
func TestComposition_AssetOverrideKeepsPosition(t *testing.T) {
	files := map[string]string{
		"app/project.hcl": `
name = "app"
asset "a.png" {}
asset "b.png" {}
asset "a.png" {
  notinlist = true
  name      = "logo"
}
`,
	}

	result := testutil.RunIntegrationTest(t, files, "app", nil)
	require.NoError(t, result.Err)

	require.Len(t, result.Manifest.Assets, 2)
	assert.Equal(t, result.Path("app/a.png"), result.Manifest.Assets[0].Path)
	assert.Equal(t, descriptor.AssetOptions{NotInList: true, Name: "logo"}, result.Manifest.Assets[0].Options)
	assert.False(t, result.Manifest.Assets[1].Options.NotInList)
}
