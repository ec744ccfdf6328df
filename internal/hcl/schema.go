package hcl

import "github.com/hashicorp/hcl/v2"

// pathBlock is the body of source, library and project blocks.
type pathBlock struct {
	Path *string `hcl:"path,optional"`
}

// parameterBlock is the body of a parameter block.
type parameterBlock struct {
	Value *string `hcl:"value,optional"`
}

// defineBlock is the body of a define block. Value may be any primitive; it
// is converted to a string.
type defineBlock struct {
	Name  *string `hcl:"name,optional"`
	Value *string `hcl:"value,optional"`
}

// assetBlock is the body of an asset block. Attributes beyond the known ones
// are collected from Remain and passed through as strings.
type assetBlock struct {
	Path        *string  `hcl:"path,optional"`
	NotInList   *bool    `hcl:"notinlist,optional"`
	Name        *string  `hcl:"name,optional"`
	Destination *string  `hcl:"destination,optional"`
	Remain      hcl.Body `hcl:",remain"`
}
