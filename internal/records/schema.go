package records

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

const itemSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["lore"],
  "properties": {
    "lore": {
      "type": "array",
      "items": {"type": ["string", "null"]}
    }
  }
}`

const mobSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["Health", "Damage"],
  "properties": {
    "Display": {"type": "string"},
    "Health": {"type": "integer"},
    "Damage": {"type": "integer"},
    "Equipment": {
      "type": "array",
      "items": {"type": "string"}
    }
  }
}`

const equipmentSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["Id"],
  "properties": {
    "Id": {"type": "integer"},
    "Enchantments": {
      "type": "array",
      "items": {"type": "string"}
    }
  }
}`

var (
	itemSchema      = jsonschema.MustCompileString("item.schema.json", itemSchemaJSON)
	mobSchema       = jsonschema.MustCompileString("mob.schema.json", mobSchemaJSON)
	equipmentSchema = jsonschema.MustCompileString("equipment.schema.json", equipmentSchemaJSON)
)

// validate checks a record node against s. The node is first brought into the
// JSON value model the validator works on.
func validate(s *jsonschema.Schema, n *yaml.Node) error {
	v, err := jsonValue(n)
	if err != nil {
		return err
	}
	return s.Validate(v)
}

func jsonValue(n *yaml.Node) (any, error) {
	var raw any
	if err := n.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("record is not JSON compatible: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode record json: %w", err)
	}
	return v, nil
}
