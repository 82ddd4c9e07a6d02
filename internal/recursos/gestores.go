package recursos

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/sgtes/maismedicos-go/internal/domain"
)

var ErrGestorSemID = errors.New("API não retornou gestorId")

type GestorResposta struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
	Gestor  *struct {
		ID    FlexInt `json:"id"`
		Nome  string  `json:"nome"`
		CPF   string  `json:"cpf"`
		Email string  `json:"email"`
	} `json:"gestor"`
}

// ValidarGestor creates or fetches the manager and returns its id.
func (c *Client) ValidarGestor(ctx context.Context, g domain.Gestor) (int64, error) {
	resp, body, err := c.postJSON(ctx, "/gestores/validar", g)
	if err != nil {
		return 0, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, &APIError{Status: resp.StatusCode, Message: gestorErrorMessage(body)}
	}
	var out GestorResposta
	if err := json.Unmarshal(body, &out); err != nil || out.Gestor == nil || out.Gestor.ID == 0 {
		return 0, ErrGestorSemID
	}
	return int64(out.Gestor.ID), nil
}

func gestorErrorMessage(body []byte) string {
	var obj struct {
		Error  any `json:"error"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &obj); err == nil {
		if s, ok := obj.Error.(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
		if len(obj.Errors) > 0 && strings.TrimSpace(obj.Errors[0].Message) != "" {
			return obj.Errors[0].Message
		}
	}
	return "Erro ao validar/criar gestor"
}
