package manifest

import (
	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// schemaSource is the CUE schema every wren.toml must satisfy. The
// definition is closed, so keys it does not name are rejected.
const schemaSource = `
#Manifest: {
	project: {
		name:         string & !=""
		version?:     string & =~"^\\d+\\.\\d+\\.\\d+"
		description?: string
	}
	source?: {
		dirs?:  [...string]
		entry?: string
	}
	image?: {
		output?: string
	}
}
`

var (
	schemaCtx *cue.Context
	schema    cue.Value
)

func init() {
	schemaCtx = cuecontext.New()
	compiled := schemaCtx.CompileString(schemaSource)
	if err := compiled.Err(); err != nil {
		panic(err)
	}
	schema = compiled.LookupPath(cue.ParsePath("#Manifest"))
	if err := schema.Err(); err != nil {
		panic(err)
	}
}

// validateManifest checks generically decoded TOML data against the
// schema. Concrete validation makes missing required fields an error,
// not just an incomplete value.
func validateManifest(raw map[string]interface{}) error {
	data := schemaCtx.Encode(raw)
	if err := data.Err(); err != nil {
		return err
	}
	return schema.Unify(data).Validate(cue.Concrete(true))
}
