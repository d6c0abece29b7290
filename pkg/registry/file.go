package registry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// registrySchema is the embedded on-disk registry-file schema (SPEC_FULL
// "Registry file format & validation"): a JSON document is rejected with a
// precise JSON-pointer error before it is ever parsed into a
// ChannelRegistry, instead of failing with a generic unmarshal error deep
// inside application code.
const registrySchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["channels"],
  "properties": {
    "channels": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "required": ["min_signers", "allowed_signers"],
        "properties": {
          "min_signers": {"type": "integer", "minimum": 0},
          "allowed_signers": {"type": "array", "items": {"type": "string"}},
          "require_attestations": {"type": "boolean"},
          "enforce_timestamp_ordering": {"type": "boolean"},
          "supported_versions": {"type": "string"},
          "policy_expr": {"type": "string"},
          "policy_expr_fields": {"type": "array", "items": {"type": "string"}}
        }
      }
    }
  }
}`

type registryFileChannel struct {
	MinSigners               int      `json:"min_signers"`
	AllowedSigners           []string `json:"allowed_signers"`
	RequireAttestations      bool     `json:"require_attestations"`
	EnforceTimestampOrdering bool     `json:"enforce_timestamp_ordering"`
	SupportedVersions        string   `json:"supported_versions"`
	PolicyExpr               string   `json:"policy_expr"`
	PolicyExprFields         []string `json:"policy_expr_fields"`
}

type registryFile struct {
	Channels map[string]registryFileChannel `json:"channels"`
}

func compiledSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	const resourceURL = "mem://registry-schema.json"
	if err := compiler.AddResource(resourceURL, bytes.NewReader([]byte(registrySchema))); err != nil {
		return nil, fmt.Errorf("registry: add schema resource: %w", err)
	}
	return compiler.Compile(resourceURL)
}

// LoadFile reads, schema-validates, and parses a registry document from
// path into a new ChannelRegistry (the CLI's `--registry FILE` flag, §6).
func LoadFile(path string) (*ChannelRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("registry: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse validates and decodes a registry document already read into memory.
func Parse(data []byte) (*ChannelRegistry, error) {
	schema, err := compiledSchema()
	if err != nil {
		return nil, err
	}

	var generic interface{}
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, fmt.Errorf("registry: invalid JSON: %w", err)
	}
	if err := schema.Validate(generic); err != nil {
		return nil, fmt.Errorf("registry: schema validation failed: %w", err)
	}

	var doc registryFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("registry: decode: %w", err)
	}

	reg := New()
	for name, ch := range doc.Channels {
		reg.Upsert(name, ChannelPolicy{
			MinSigners:               ch.MinSigners,
			AllowedSigners:           ch.AllowedSigners,
			RequireAttestations:      ch.RequireAttestations,
			EnforceTimestampOrdering: ch.EnforceTimestampOrdering,
			SupportedVersions:        ch.SupportedVersions,
			PolicyExpr:               ch.PolicyExpr,
			PolicyExprFields:         ch.PolicyExprFields,
		})
	}
	return reg, nil
}
