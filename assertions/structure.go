package assertions

import (
	"embed"
	"fmt"
	"strings"

	"github.com/vc-test-suites/vc-conformance-tests/document"

	"github.com/xeipuuv/gojsonschema"
)

// Kind selects the schema used by CheckStructure.
type Kind string

const (
	KindCredential   Kind = "credential"
	KindPresentation Kind = "presentation"
)

//go:embed schemas/*.json
var schemaFiles embed.FS

var schemas = map[Kind]*gojsonschema.Schema{
	KindCredential:   mustLoadSchema("schemas/credential.json"),
	KindPresentation: mustLoadSchema("schemas/presentation.json"),
}

func mustLoadSchema(name string) *gojsonschema.Schema {
	data, err := schemaFiles.ReadFile(name)
	if err != nil {
		panic(err)
	}
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
	if err != nil {
		panic(fmt.Errorf("schema %s: %w", name, err))
	}
	return s
}

// CheckStructure validates the shape of a credential or presentation: the first @context entry,
// the type term, and the form of identifiers such as issuer and holder.
func CheckStructure(d document.Document, kind Kind) error {
	schema, ok := schemas[kind]
	if !ok {
		return fmt.Errorf("unknown document kind %q", kind)
	}
	result, err := schema.Validate(gojsonschema.NewGoLoader(map[string]interface{}(d)))
	if err != nil {
		return fmt.Errorf("cannot validate %s: %w", kind, err)
	}
	if result.Valid() {
		return nil
	}
	descriptions := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		descriptions = append(descriptions, e.String())
	}
	return fmt.Errorf("%s is not valid: %s", kind, strings.Join(descriptions, "; "))
}
