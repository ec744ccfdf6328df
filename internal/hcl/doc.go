// Package hcl provides the concrete HCL implementation of the config.Loader
// interface. It is responsible for locating project files, parsing them,
// evaluating their expressions and translating their blocks, in file order,
// into the format-agnostic declaration model.
//
// A project file looks like this:
//
//	name = "koui_editor"
//
//	source "Sources" {}
//	library { path = "${env.ARMORY_SDK}/armory" }
//	project "Subprojects/Koui" {}
//	parameter "Main" {}
//	parameter { value = "--macro keep('Main')" }
//	asset {
//	  path      = "${env.ARMORY_SDK}/armory/Assets/brdf.png"
//	  notinlist = true
//	}
//	define "rp_renderer=Forward" {}
//	define "rp_shadowmap_cascade" { value = 2048 }
//
// Every block takes either one label holding a literal, or a body attribute
// holding an expression. Expressions see the variables env, project_dir and
// project_name and a small set of string functions.
package hcl
