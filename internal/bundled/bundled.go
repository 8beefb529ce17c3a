// Package bundled carries the default project-setup schema and the example
// configuration instantiating it, embedded so the CLI can validate against
// them without any stored state.
package bundled

import _ "embed"

//go:embed project_schema.json
var ProjectSchema []byte

//go:embed project_config.default.json5
var DefaultProjectConfig []byte

const (
	SchemaFileName = "schema_project.json"
	ConfigFileName = "config_project.json5"
)
