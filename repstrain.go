package repstrain

import _ "embed"

// DefaultCatalog is the built-in exercise catalog, used when no catalog
// path is configured.
//
//go:embed catalog.yaml
var DefaultCatalog []byte
