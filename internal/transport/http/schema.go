package httptransport

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

const maxBodyBytes = 64 << 10

var (
	joinSchema  = mustCompileSchema("join.schema.json")
	checkSchema = mustCompileSchema("check_participants.schema.json")

	errBodyInvalid = errors.New("invalid_json")
)

func mustCompileSchema(name string) *jsonschema.Schema {
	data, err := schemaFS.ReadFile("schemas/" + name)
	if err != nil {
		panic(err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, bytes.NewReader(data)); err != nil {
		panic(err)
	}
	return compiler.MustCompile(name)
}

// decodeValidated reads the body, checks it against schema and then decodes
// it into dst. Schema failures come back as *jsonschema.ValidationError.
func decodeValidated(r *http.Request, schema *jsonschema.Schema, dst any) error {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return errBodyInvalid
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return errBodyInvalid
	}
	if err := schema.Validate(doc); err != nil {
		metricSchemaRejections.Add(1)
		return err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return errBodyInvalid
	}
	return nil
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst); err != nil {
		return errBodyInvalid
	}
	return nil
}
