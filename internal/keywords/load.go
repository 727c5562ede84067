package keywords

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/aledsdavies/logconf/internal/lexer"
)

// tableSchema validates an externally supplied keyword-table document
// before it is compiled into a lexer.KeywordTable, so a malformed
// extension file fails fast with a pointer into the document rather than
// surfacing as a confusing lex-time symptom.
const tableSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["name", "token_id"],
    "properties": {
      "name": {"type": "string", "minLength": 1},
      "token_id": {"type": "integer"},
      "required_version": {
        "type": "object",
        "properties": {
          "major": {"type": "integer", "minimum": 0, "maximum": 255},
          "minor": {"type": "integer", "minimum": 0, "maximum": 255}
        }
      },
      "obsolete": {"type": "boolean"},
      "explain": {"type": "string"}
    },
    "additionalProperties": false
  }
}`

type rawEntry struct {
	Name            string `json:"name"`
	TokenID         int    `json:"token_id"`
	RequiredVersion *struct {
		Major uint8 `json:"major"`
		Minor uint8 `json:"minor"`
	} `json:"required_version"`
	Obsolete bool   `json:"obsolete"`
	Explain  string `json:"explain"`
}

func compileTableSchema() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("keyword-table.json", bytes.NewReader([]byte(tableSchema))); err != nil {
		return nil, fmt.Errorf("compile keyword table schema: %w", err)
	}
	return c.Compile("keyword-table.json")
}

// LoadJSON parses and validates an external keyword-table document,
// returning the compiled lexer.KeywordTable. The resolution algorithm in
// lexer.KeywordResolver.Resolve is unaffected by a table's origin; this
// only changes where a KeywordTable value comes from.
func LoadJSON(raw []byte) (lexer.KeywordTable, error) {
	schema, err := compileTableSchema()
	if err != nil {
		return nil, err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse keyword table: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("keyword table failed schema validation: %w", err)
	}

	var entries []rawEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decode keyword table: %w", err)
	}
	table := make(lexer.KeywordTable, 0, len(entries))
	for _, e := range entries {
		ke := &lexer.KeywordEntry{Name: e.Name, TokenID: e.TokenID, Explain: e.Explain}
		if e.RequiredVersion != nil {
			ke.RequiredVersion = uint16(e.RequiredVersion.Major)<<8 | uint16(e.RequiredVersion.Minor)
		}
		if e.Obsolete {
			ke.Status = lexer.StatusObsolete
		}
		table = append(table, ke)
	}
	return table, nil
}
