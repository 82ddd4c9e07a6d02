package recursos

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sgtes/maismedicos-go/internal/domain"
)

// EnviarAcaoVagas validates the payload against the contract and posts it.
// The answer is returned as JSON; a text answer is wrapped as a JSON string.
func (c *Client) EnviarAcaoVagas(ctx context.Context, p domain.AcaoVagasPayload) (json.RawMessage, error) {
	if err := c.contract.ValidateAcaoVagas(p); err != nil {
		return nil, err
	}
	resp, body, err := c.postJSON(ctx, "/recursos/acoes-vagas", p)
	if err != nil {
		return nil, err
	}

	var data json.RawMessage
	jsonBody := isJSON(resp) && json.Valid(body)
	if jsonBody {
		data = json.RawMessage(body)
	} else {
		wrapped, err := json.Marshal(string(body))
		if err != nil {
			return nil, fmt.Errorf("wrap text answer: %w", err)
		}
		data = wrapped
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var msg string
		if jsonBody {
			msg = jsonMessage(body)
		} else {
			msg = strings.TrimSpace(string(body))
		}
		if msg == "" {
			msg = "Erro ao enviar solicitação"
		}
		return nil, &APIError{Status: resp.StatusCode, Message: msg}
	}
	return data, nil
}
