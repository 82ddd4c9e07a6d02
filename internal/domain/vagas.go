package domain

import (
	"fmt"
	"strings"
)

const (
	// IncluirMaxPorCurso caps the quantity typed per course when including a new one.
	IncluirMaxPorCurso = 5
	// IncluirVagasDisponiveis is recorded on rows added by the include flow.
	IncluirVagasDisponiveis = 20
)

// Curso is a course offered at an establishment, with integer balances.
type Curso struct {
	ID                       string `json:"id"`
	Nome                     string `json:"nome"`
	Vagas                    int    `json:"vagas"`
	VagasSolicitadas         int    `json:"vagasSolicitadas"`
	VagasDisponiveis         int    `json:"vagas_disponiveis"`
	VagasUsadas              int    `json:"vagas_usadas"`
	VagasDisponiveisAumentar int    `json:"vagasDisponiveisAumentar"`
}

type Estabelecimento struct {
	ID          string `json:"id"`
	Nome        string `json:"nome"`
	CNES        string `json:"cnes"`
	NivelGestao string `json:"nivel_gestao,omitempty"`
	CNPJ        string `json:"cnpj,omitempty"`
	DiretorNome string `json:"diretor_nome,omitempty"`
}

type CursoAdicionado struct {
	ID               string   `json:"id"`
	Nome             string   `json:"nome"`
	Quantidade       int      `json:"quantidade"`
	VagasDisponiveis int      `json:"vagasDisponiveis"`
	Estabelecimento  string   `json:"estabelecimento"`
	CNES             string   `json:"cnes"`
	TipoAcao         TipoAcao `json:"tipoAcao"`
}

type CursoRemover struct {
	ID              string `json:"id"`
	Nome            string `json:"nome"`
	Quantidade      int    `json:"quantidade"`
	CNES            string `json:"cnes"`
	Estabelecimento string `json:"estabelecimento"`
	Teto            int    `json:"teto"`
	SaldoDiminuir   int    `json:"saldoDiminuir"`
	SaldoAumentar   int    `json:"saldoAumentar"`
}

// QuantidadeCurso is one line of the include form, keyed by course name.
type QuantidadeCurso struct {
	Nome       string
	Quantidade int
}

// Draft is the state of the slot allocation screen.
type Draft struct {
	TipoAcao        TipoAcao          `json:"tipoAcao,omitempty"`
	Localidade      Localidade        `json:"localidade"`
	Estabelecimento *Estabelecimento  `json:"estabelecimento,omitempty"`
	Curso           *Curso            `json:"curso,omitempty"`
	Motivo          Motivo            `json:"motivoDescredenciar,omitempty"`
	Adicionados     []CursoAdicionado `json:"cursosAdicionados,omitempty"`
	Remover         []CursoRemover    `json:"cursosRemover,omitempty"`
}

// SetTipoAcao switches the action and clears the locality with everything
// selected after it.
func (d *Draft) SetTipoAcao(t TipoAcao) {
	d.TipoAcao = t
	d.Localidade = Localidade{}
	d.resetDependentes()
}

func (d *Draft) SetUF(uf, nomeEstado string) {
	d.Localidade = Localidade{UF: strings.TrimSpace(uf), NomeEstado: strings.TrimSpace(nomeEstado)}
	d.resetDependentes()
}

func (d *Draft) SetMunicipio(nome, ibge string, id int64) {
	d.Localidade.Municipio = strings.TrimSpace(nome)
	d.Localidade.IBGEMunicipio = strings.TrimSpace(ibge)
	d.Localidade.MunicipioID = id
	d.resetDependentes()
}

func (d *Draft) resetDependentes() {
	d.Motivo = ""
	d.Estabelecimento = nil
	d.Curso = nil
	d.Adicionados = nil
	d.Remover = nil
}

// SelectEstabelecimento picks the establishment. The include flow keeps rows
// already added for other establishments; every other action starts over.
func (d *Draft) SelectEstabelecimento(est Estabelecimento) {
	e := est
	d.Estabelecimento = &e
	if d.TipoAcao == AcaoIncluir {
		return
	}
	d.Curso = nil
	d.Adicionados = nil
	d.Remover = nil
}

// SelectCurso picks a course. Capped actions refuse courses without balance.
func (d *Draft) SelectCurso(c Curso) error {
	if d.Estabelecimento == nil {
		return Problem("Selecione o estabelecimento (CNES).")
	}
	if d.TipoAcao.Capped() && d.MaxPermitido(c) <= 0 {
		d.Curso = nil
		return Problem("Esse aprimoramento não possui saldo disponível para essa ação.")
	}
	cc := c
	d.Curso = &cc
	return nil
}

func (d *Draft) SetMotivo(m Motivo) {
	d.Motivo = m
}

// JaAdicionado sums the quantities already added for the course at the
// selected establishment under the current action.
func (d *Draft) JaAdicionado(cursoID, cnes string) int {
	total := 0
	for _, a := range d.Adicionados {
		if a.ID == cursoID && a.CNES == cnes && a.TipoAcao == d.TipoAcao {
			total += a.Quantidade
		}
	}
	return total
}

// MaxPermitido is the remaining balance for the course at the selected establishment.
func (d *Draft) MaxPermitido(c Curso) int {
	cnes := ""
	if d.Estabelecimento != nil {
		cnes = d.Estabelecimento.CNES
	}
	ja := d.JaAdicionado(c.ID, cnes)
	switch {
	case d.TipoAcao == AcaoDiminuir:
		return max(c.VagasSolicitadas-ja, 0)
	case d.TipoAcao.UsesSaldoAumentar():
		return max(c.VagasDisponiveisAumentar-ja, 0)
	default:
		return max(c.Vagas-ja, 0)
	}
}

// AdicionarCurso appends a course row for the selected establishment. The
// quantity is bounded by MaxPermitido whatever the action.
func (d *Draft) AdicionarCurso(c Curso, quantidade int) error {
	if d.Estabelecimento == nil {
		return Problem("Selecione o estabelecimento (CNES).")
	}
	if quantidade <= 0 {
		return Problem("Informe a quantidade de vagas.")
	}
	est := d.Estabelecimento
	for _, a := range d.Adicionados {
		if a.ID == c.ID && a.CNES == est.CNES {
			return Problem("Curso já adicionado nesse estabelecimento! Remova ou altere a quantidade na lista.")
		}
	}

	vagasMax := d.MaxPermitido(c)
	if d.TipoAcao == AcaoDiminuir {
		if vagasMax <= 0 {
			return Problem("Esse curso não possui vagas solicitadas disponíveis para diminuir.")
		}
		if quantidade > vagasMax {
			return Problem(fmt.Sprintf("Você só pode diminuir até %d vaga(s) nesse curso.", vagasMax))
		}
	}
	if vagasMax <= 0 {
		return Problem("Esse aprimoramento não possui saldo disponível para essa ação.")
	}
	if quantidade > vagasMax {
		return Problem(fmt.Sprintf("Você só pode adicionar até %d vaga(s) nesse curso.", vagasMax))
	}

	d.Adicionados = append(d.Adicionados, CursoAdicionado{
		ID:               c.ID,
		Nome:             c.Nome,
		Quantidade:       quantidade,
		VagasDisponiveis: vagasMax,
		Estabelecimento:  est.Nome,
		CNES:             est.CNES,
		TipoAcao:         d.TipoAcao,
	})
	d.Curso = nil
	return nil
}

// AdicionarIncluir adds every course with a positive quantity from the
// include form. Quantities are clamped to [0, IncluirMaxPorCurso] and rows
// already present for the same course, establishment and action are skipped.
// It returns how many rows were added.
func (d *Draft) AdicionarIncluir(quantidades []QuantidadeCurso) (int, error) {
	if d.Estabelecimento == nil {
		return 0, Problem("Selecione o estabelecimento (CNES).")
	}
	est := d.Estabelecimento
	added := 0
	for _, q := range quantidades {
		qtd := min(max(q.Quantidade, 0), IncluirMaxPorCurso)
		nome := strings.TrimSpace(q.Nome)
		if qtd == 0 || nome == "" {
			continue
		}
		dup := false
		for _, a := range d.Adicionados {
			if a.Nome == nome && a.CNES == est.CNES && a.TipoAcao == d.TipoAcao {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		d.Adicionados = append(d.Adicionados, CursoAdicionado{
			ID:               nome,
			Nome:             nome,
			Quantidade:       qtd,
			VagasDisponiveis: IncluirVagasDisponiveis,
			Estabelecimento:  est.Nome,
			CNES:             est.CNES,
			TipoAcao:         d.TipoAcao,
		})
		added++
	}
	return added, nil
}

func (d *Draft) RemoverCurso(id, cnes string) {
	out := d.Adicionados[:0]
	for _, a := range d.Adicionados {
		if a.ID == id && a.CNES == cnes {
			continue
		}
		out = append(out, a)
	}
	d.Adicionados = out
	if len(d.Adicionados) == 0 {
		d.Adicionados = nil
	}
}

// CarregarRemover fills the course change origin with every course of the
// selected establishment that still has requested slots.
func (d *Draft) CarregarRemover(cursos []Curso) {
	if d.TipoAcao != AcaoMudanca || d.Estabelecimento == nil {
		d.Remover = nil
		return
	}
	est := d.Estabelecimento
	var out []CursoRemover
	for _, c := range cursos {
		if c.VagasSolicitadas <= 0 {
			continue
		}
		out = append(out, CursoRemover{
			ID:              c.ID,
			Nome:            c.Nome,
			Quantidade:      c.VagasSolicitadas,
			CNES:            est.CNES,
			Estabelecimento: est.Nome,
			Teto:            c.Vagas,
			SaldoDiminuir:   c.VagasSolicitadas,
			SaldoAumentar:   c.VagasDisponiveisAumentar,
		})
	}
	d.Remover = out
}

func (d *Draft) LocalidadeOK() bool {
	return d.TipoAcao != "" && d.Localidade.Completa()
}

// PodeFinalizar mirrors the enabled state of the submit button.
func (d *Draft) PodeFinalizar() bool {
	if !d.LocalidadeOK() {
		return false
	}
	switch d.TipoAcao {
	case AcaoDescredenciar:
		return d.Estabelecimento != nil && d.Curso != nil && d.Motivo != ""
	case AcaoMudanca:
		return true
	default:
		return len(d.Adicionados) > 0
	}
}

func (d *Draft) TotalAdicionar() int {
	total := 0
	for _, a := range d.Adicionados {
		total += a.Quantidade
	}
	return total
}

func (d *Draft) TotalRemover() int {
	total := 0
	for _, r := range d.Remover {
		total += r.Quantidade
	}
	return total
}
