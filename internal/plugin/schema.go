// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

package plugin

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"
	"github.com/samber/oops"
	jschema "github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

// SchemaID is the $id of the manifest schema, for use in plugin.yaml files.
const SchemaID = "https://crabrig.dev/schemas/plugin.schema.json"

// versionPattern accepts what semver.NewVersion accepts: an optional v,
// one to three numeric parts, prerelease and build metadata.
const versionPattern = `^v?[0-9]+(\.[0-9]+){0,2}(-[0-9A-Za-z.-]+)?(\+[0-9A-Za-z.-]+)?$`

// GenerateSchema reflects the Manifest struct into a JSON Schema and adds
// the rules struct tags cannot express.
func GenerateSchema() ([]byte, error) {
	r := jsonschema.Reflector{DoNotReference: true}
	schema := r.Reflect(&Manifest{})
	schema.ID = jsonschema.ID(SchemaID)
	schema.Title = "Crab Plugin Manifest"
	schema.Description = "Schema for plugin.yaml manifest files"

	if version, ok := schema.Properties.Get("version"); ok {
		version.Pattern = versionPattern
	}
	schema.AllOf = []*jsonschema.Schema{
		runtimeRequires(RuntimeLua, "lua-plugin"),
		runtimeRequires(RuntimeGo, "go-plugin"),
	}

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, oops.In("plugin").Hint("failed to marshal schema").Wrap(err)
	}
	return data, nil
}

// runtimeRequires makes field mandatory when runtime is rt.
func runtimeRequires(rt Runtime, field string) *jsonschema.Schema {
	props := jsonschema.NewProperties()
	props.Set("runtime", &jsonschema.Schema{Const: string(rt)})
	return &jsonschema.Schema{
		If:   &jsonschema.Schema{Properties: props, Required: []string{"runtime"}},
		Then: &jsonschema.Schema{Required: []string{field}},
	}
}

var compiledSchema = sync.OnceValues(func() (*jschema.Schema, error) {
	raw, err := GenerateSchema()
	if err != nil {
		return nil, err
	}
	doc, err := jschema.UnmarshalJSON(strings.NewReader(string(raw)))
	if err != nil {
		return nil, oops.In("plugin").Hint("failed to parse schema JSON").Wrap(err)
	}
	c := jschema.NewCompiler()
	if err := c.AddResource(SchemaID, doc); err != nil {
		return nil, oops.In("plugin").Hint("failed to add schema resource").Wrap(err)
	}
	return c.Compile(SchemaID)
})

// ValidateSchema validates plugin.yaml data against the manifest schema.
// Failures carry the INVALID_MANIFEST code.
func ValidateSchema(data []byte) error {
	errb := oops.In("plugin").Code("INVALID_MANIFEST")
	if len(data) == 0 {
		return errb.Errorf("manifest data is empty")
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return errb.Hint("invalid YAML").Wrap(err)
	}

	sch, err := compiledSchema()
	if err != nil {
		return oops.In("plugin").Hint("failed to compile schema").Wrap(err)
	}
	if err := sch.Validate(toJSONTypes(doc)); err != nil {
		return errb.Wrap(err)
	}
	return nil
}

// toJSONTypes normalises yaml.v3 output into the types the validator accepts.
func toJSONTypes(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, v := range val {
			out[k] = toJSONTypes(v)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, v := range val {
			out[i] = toJSONTypes(v)
		}
		return out
	case string, int, int64, float64, bool, nil:
		return val
	default:
		if b, err := json.Marshal(val); err == nil {
			var out any
			if err := json.Unmarshal(b, &out); err == nil {
				return out
			}
		}
		return val
	}
}

// FormatSchemaError renders a ValidateSchema error as one violation per
// line, without the validator's header.
func FormatSchemaError(err error) string {
	if err == nil {
		return ""
	}
	var verr *jschema.ValidationError
	if !errors.As(err, &verr) {
		return err.Error()
	}
	var lines []string
	for i, line := range strings.Split(verr.Error(), "\n") {
		line = strings.TrimLeft(line, " -")
		if line == "" || (i == 0 && strings.HasPrefix(line, "jsonschema")) {
			continue
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return verr.Error()
	}
	return strings.Join(lines, "\n")
}
