package recursos

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/sgtes/maismedicos-go/internal/domain"
)

//go:embed contract.yaml
var contractYAML []byte

const schemaAcaoVagas = "AcaoVagas"

// ContractError reports an outbound payload the backend contract rejects.
type ContractError struct {
	Schema string
	Err    error
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("payload %s violates contract: %v", e.Schema, e.Err)
}

func (e *ContractError) Unwrap() error { return e.Err }

// Contract holds the OpenAPI description of the backend endpoints we write to.
type Contract struct {
	doc *openapi3.T
}

func LoadContract() (*Contract, error) {
	return parseContract(contractYAML)
}

func parseContract(data []byte) (*Contract, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("load contract: %w", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("validate contract: %w", err)
	}
	if ref := doc.Components.Schemas[schemaAcaoVagas]; ref == nil || ref.Value == nil {
		return nil, fmt.Errorf("contract: schema %s missing", schemaAcaoVagas)
	}
	return &Contract{doc: doc}, nil
}

func (c *Contract) ValidateAcaoVagas(p domain.AcaoVagasPayload) error {
	return c.validate(schemaAcaoVagas, p)
}

func (c *Contract) validate(schema string, v any) error {
	ref := c.doc.Components.Schemas[schema]
	if ref == nil || ref.Value == nil {
		return fmt.Errorf("contract: schema %s missing", schema)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", schema, err)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return fmt.Errorf("decode %s: %w", schema, err)
	}
	if err := ref.Value.VisitJSON(generic); err != nil {
		return &ContractError{Schema: schema, Err: err}
	}
	return nil
}
