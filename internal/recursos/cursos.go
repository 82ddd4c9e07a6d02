package recursos

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/sgtes/maismedicos-go/internal/domain"
)

// Cursos lists the courses of an establishment. The backend answers either
// with a bare array or with {"rows": [...]}.
func (c *Client) Cursos(ctx context.Context, estabelecimentoID string) ([]domain.Curso, error) {
	q := url.Values{}
	q.Set("estabelecimento_id", estabelecimentoID)
	var raw json.RawMessage
	if err := c.getJSON(ctx, "/estabelecimentos/cursos", q, &raw); err != nil {
		return nil, err
	}
	list, err := decodeCursos(raw)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Curso, 0, len(list))
	for _, cj := range list {
		out = append(out, cj.domain())
	}
	return out, nil
}

func decodeCursos(raw json.RawMessage) ([]cursoJSON, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, nil
	}
	if raw[0] == '[' {
		var list []cursoJSON
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, fmt.Errorf("decode cursos: %w", err)
		}
		return list, nil
	}
	var wrapped struct {
		Rows []cursoJSON `json:"rows"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("decode cursos: %w", err)
	}
	return wrapped.Rows, nil
}

// TodosCursos lists the full course catalogue used by the include flow.
func (c *Client) TodosCursos(ctx context.Context) ([]CursoCatalogo, error) {
	var raw json.RawMessage
	if err := c.getJSON(ctx, "/estabelecimentos/todos-cursos", nil, &raw); err != nil {
		return nil, err
	}
	var out []CursoCatalogo
	if err := json.Unmarshal(raw, &out); err != nil {
		// Anything but an array means an empty catalogue.
		return nil, nil
	}
	return out, nil
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
