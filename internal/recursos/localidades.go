package recursos

import (
	"context"
	"net/url"
	"strings"

	"github.com/sgtes/maismedicos-go/internal/domain"
)

func (c *Client) Estados(ctx context.Context) ([]Estado, error) {
	var out []Estado
	if err := c.getJSON(ctx, "/localidades/estados", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Municipios lists the municipalities of uf. A non-empty status restricts
// them to municipalities with establishments in that adhesion status.
func (c *Client) Municipios(ctx context.Context, uf, status string) ([]Municipio, error) {
	q := url.Values{}
	q.Set("uf", strings.TrimSpace(uf))
	if status = strings.TrimSpace(status); status != "" {
		q.Set("estabelecimento_status", status)
	}
	var out []Municipio
	if err := c.getJSON(ctx, "/localidades/municipios", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// EstabelecimentosQuery selects the establishments of one municipality.
type EstabelecimentosQuery struct {
	MunicipioID int64
	// StatusAdesao is sent as status_adesao when set.
	StatusAdesao string
	NivelGestao  domain.NivelGestao
}

func (q EstabelecimentosQuery) values() url.Values {
	v := url.Values{}
	v.Set("municipio_id", formatID(q.MunicipioID))
	if q.StatusAdesao != "" {
		v.Set("status_adesao", q.StatusAdesao)
	}
	if q.NivelGestao != "" {
		v.Set("nivel_gestao", strings.ToUpper(string(q.NivelGestao)))
	}
	return v
}

func (c *Client) Estabelecimentos(ctx context.Context, q EstabelecimentosQuery) ([]domain.Estabelecimento, error) {
	var raw []estabelecimentoJSON
	if err := c.getJSON(ctx, "/estabelecimentos", q.values(), &raw); err != nil {
		return nil, err
	}
	out := make([]domain.Estabelecimento, 0, len(raw))
	for _, e := range raw {
		out = append(out, e.domain())
	}
	return out, nil
}
