package gamedef

import (
	"reflect"

	"github.com/invopop/jsonschema"
)

// BuildSchema reflects the Definition type tree into a JSON Schema document,
// the same way the effect-catalog schema generator in the teacher pack
// builds its output: a non-referencing reflector so the document is
// self-contained, with root title/description filled in by hand.
func BuildSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
	}

	schema := reflector.ReflectFromType(reflect.TypeOf(Definition{}))
	schema.Version = jsonschema.Version
	schema.Title = "Game Definition"
	schema.Description = "Designer-authored content tree validated once at startup and treated as immutable for the life of a running engine."

	return schema
}
