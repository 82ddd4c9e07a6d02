package recursos

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/sgtes/maismedicos-go/internal/domain"
)

// FlexInt decodes numbers that may arrive as JSON numbers or strings.
// Anything non-numeric decodes to zero.
type FlexInt int

func (f *FlexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = 0
		return nil
	}
	s := string(b)
	if b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			*f = 0
			return nil
		}
	}
	s = strings.TrimSpace(s)
	if s == "" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		*f = 0
		return nil
	}
	*f = FlexInt(int(v))
	return nil
}

// FlexString decodes identifiers that may arrive as JSON strings or numbers.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	*f = FlexString(string(b))
	return nil
}

type Estado struct {
	UF   string     `json:"uf"`
	Nome string     `json:"nome"`
	IBGE FlexString `json:"ibge"`
}

type Municipio struct {
	Nome        string     `json:"nome"`
	IBGE        FlexString `json:"ibge"`
	MunicipioID FlexInt    `json:"municipio_id"`
}

type estabelecimentoJSON struct {
	ID          FlexString `json:"id"`
	Nome        string     `json:"nome"`
	CNES        FlexString `json:"cnes"`
	NivelGestao string     `json:"nivel_gestao"`
	CNPJ        string     `json:"cnpj"`
	DiretorNome string     `json:"diretor_nome"`
}

func (e estabelecimentoJSON) domain() domain.Estabelecimento {
	return domain.Estabelecimento{
		ID:          string(e.ID),
		Nome:        e.Nome,
		CNES:        strings.TrimSpace(string(e.CNES)),
		NivelGestao: e.NivelGestao,
		CNPJ:        e.CNPJ,
		DiretorNome: e.DiretorNome,
	}
}

type cursoJSON struct {
	ID                            FlexString `json:"id"`
	Nome                          string     `json:"nome"`
	Vagas                         *FlexInt   `json:"vagas"`
	VagasDisponiveis              *FlexInt   `json:"vagas_disponiveis"`
	VagasUsadas                   *FlexInt   `json:"vagas_usadas"`
	VagasDisponiveisAumentar      *FlexInt   `json:"vagasDisponiveisAumentar"`
	VagasDisponiveisAumentarSnake *FlexInt   `json:"vagas_disponiveis_aumentar"`
	SaldoAumentarSnake            *FlexInt   `json:"saldo_aumentar"`
	SaldoAumentar                 *FlexInt   `json:"saldoAumentar"`
	VagasSolicitadas              *FlexInt   `json:"vagasSolicitadas"`
	VagasSolicitadasSnake         *FlexInt   `json:"vagas_solicitadas"`
}

func firstInt(vals ...*FlexInt) int {
	for _, v := range vals {
		if v != nil {
			return int(*v)
		}
	}
	return 0
}

// domain normalizes the balances. The increase balance is the first present
// of its known spellings.
func (c cursoJSON) domain() domain.Curso {
	return domain.Curso{
		ID:               string(c.ID),
		Nome:             c.Nome,
		Vagas:            firstInt(c.Vagas),
		VagasDisponiveis: firstInt(c.VagasDisponiveis),
		VagasUsadas:      firstInt(c.VagasUsadas),
		VagasDisponiveisAumentar: firstInt(
			c.VagasDisponiveisAumentar,
			c.VagasDisponiveis,
			c.VagasDisponiveisAumentarSnake,
			c.SaldoAumentarSnake,
			c.SaldoAumentar,
		),
		VagasSolicitadas: firstInt(c.VagasSolicitadas, c.VagasSolicitadasSnake),
	}
}

// CursoCatalogo is an entry of the full course catalogue.
type CursoCatalogo struct {
	Nome string `json:"nome"`
}
