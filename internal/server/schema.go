package server

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

const schemaBaseURL = "https://taskboard.local/schemas/"

// validator checks a request document against a JSON Schema and turns the
// first violation into a client-facing message.
type validator struct {
	schema *jsonschema.Schema

	// order ranks instance paths when several fail at once.
	// A path also matches every location beneath it.
	order []string

	// messages maps an instance path such as "updates/priority" to its
	// error message. The "" key covers failures of the document itself.
	messages map[string]string
}

func newValidator(name string, order []string, messages map[string]string) (*validator, error) {
	data, err := schemaFS.ReadFile("schemas/" + name)
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	url := schemaBaseURL + name
	if err := compiler.AddResource(url, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("load schema %s: %w", name, err)
	}
	schema, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	return &validator{schema: schema, order: order, messages: messages}, nil
}

func mustValidator(name string, order []string, messages map[string]string) *validator {
	v, err := newValidator(name, order, messages)
	if err != nil {
		panic(err)
	}
	return v
}

// decodeDocument parses body as a single JSON value.
func decodeDocument(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("unexpected data after JSON value")
	}
	return doc, nil
}

// check validates doc and returns "" when it conforms.
func (v *validator) check(doc any) string {
	err := v.schema.Validate(doc)
	if err == nil {
		return ""
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return msgBadRequest
	}

	var failed []string
	collectLocations(ve, &failed)
	for _, loc := range failed {
		if loc == "" {
			return v.message("")
		}
	}
	for _, path := range v.order {
		for _, loc := range failed {
			if loc == path || strings.HasPrefix(loc, path+"/") {
				return v.message(path)
			}
		}
	}
	return msgBadRequest
}

func (v *validator) message(field string) string {
	if msg, ok := v.messages[field]; ok {
		return msg
	}
	return msgBadRequest
}

// collectLocations appends the instance location of every leaf violation,
// without the leading slash.
func collectLocations(err *jsonschema.ValidationError, out *[]string) {
	if len(err.Causes) == 0 {
		*out = append(*out, strings.TrimPrefix(err.InstanceLocation, "/"))
		return
	}
	for _, cause := range err.Causes {
		collectLocations(cause, out)
	}
}
