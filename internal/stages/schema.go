package stages

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/spigell/recruiter/internal/workflow"
)

//go:embed schemas/*.json
var schemaFiles embed.FS

var (
	schemasOnce sync.Once
	schemas     map[workflow.Stage]*gojsonschema.Schema
	schemasErr  error
)

func loadSchemas() {
	schemas = make(map[workflow.Stage]*gojsonschema.Schema)
	for _, stage := range workflow.Stages {
		data, err := schemaFiles.ReadFile("schemas/" + string(stage) + ".json")
		if err != nil {
			// Stages without a capability call have no schema.
			continue
		}
		schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
		if err != nil {
			schemasErr = fmt.Errorf("compile %s schema: %w", stage, err)
			return
		}
		schemas[stage] = schema
	}
}

// validateSchema checks doc against the embedded JSON schema of stage.
func validateSchema(stage workflow.Stage, doc string) error {
	schemasOnce.Do(loadSchemas)
	if schemasErr != nil {
		return schemasErr
	}

	schema, ok := schemas[stage]
	if !ok {
		return fmt.Errorf("no schema for stage %s", stage)
	}

	result, err := schema.Validate(gojsonschema.NewStringLoader(doc))
	if err != nil {
		return fmt.Errorf("load %s document: %w", stage, err)
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		msgs = append(msgs, field+": "+desc.Description())
	}

	return fmt.Errorf("%s output does not match schema: %s", stage, strings.Join(msgs, "; "))
}
