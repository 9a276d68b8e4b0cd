package data

import (
	_ "embed"
)

// Catalog is the default port catalog and voting duration list
//
//go:embed catalog.yaml
var Catalog []byte
