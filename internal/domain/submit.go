package domain

import (
	"fmt"
	"strings"
)

// SubmitContext carries the gestor data the final submission depends on.
type SubmitContext struct {
	GestorID   int64
	GestorNome string
	GestorCPF  string
}

// Validate runs the final checks in the order the user is told about them.
func (d *Draft) Validate(sc SubmitContext) error {
	if sc.GestorID == 0 {
		return ErrGestorNaoIdentificado
	}
	if strings.TrimSpace(sc.GestorNome) == "" || strings.TrimSpace(sc.GestorCPF) == "" {
		return ErrGestorIncompleto
	}
	if d.TipoAcao == "" {
		return Problem("Selecione o tipo de ação.")
	}
	if !d.Localidade.Completa() {
		return Problem("Selecione UF e Município.")
	}

	switch d.TipoAcao {
	case AcaoDescredenciar:
		if d.Estabelecimento == nil || d.Estabelecimento.CNES == "" {
			return Problem("Selecione o estabelecimento (CNES).")
		}
		if d.Curso == nil {
			return Problem("Selecione o aprimoramento.")
		}
		if d.Motivo == "" {
			return Problem("Selecione o motivo.")
		}
	case AcaoMudanca:
		totalRemover := d.TotalRemover()
		totalAdicionar := d.TotalAdicionar()
		if totalRemover == 0 {
			return Problem("Não há vagas solicitadas para mover. Selecione um curso solicitado para remover primeiro.")
		}
		if totalAdicionar == 0 {
			return Problem("Adicione ao menos 1 vaga em um novo curso (destino).")
		}
		if totalRemover != totalAdicionar {
			return Problem(fmt.Sprintf("Mudança de curso precisa manter o total de vagas: remover=%d e adicionar=%d.", totalRemover, totalAdicionar))
		}
	default:
		if len(d.Adicionados) == 0 {
			return Problem("Selecione ao menos um curso com quantidade maior que zero.")
		}
	}
	return nil
}

const (
	OperacaoRemover   = "REMOVER"
	OperacaoAdicionar = "ADICIONAR"
)

type CursoPayload struct {
	ID              string `json:"id"`
	Nome            string `json:"nome"`
	Quantidade      int    `json:"quantidade"`
	CNES            string `json:"cnes"`
	Estabelecimento string `json:"estabelecimento"`
	Operacao        string `json:"operacao,omitempty"`
}

// AcaoVagasPayload is the body of the slot request sent to the backend.
type AcaoVagasPayload struct {
	GestorID             int64          `json:"gestorId"`
	TipoAcao             TipoAcao       `json:"tipoAcao"`
	MotivoDescredenciar  Motivo         `json:"motivoDescredenciar,omitempty"`
	UFSelecionada        string         `json:"ufSelecionada"`
	MunicipioID          int64          `json:"municipio_id"`
	MunicipioSelecionado string         `json:"municipioSelecionado"`
	CNES                 string         `json:"cnes,omitempty"`
	CursoID              string         `json:"curso_id,omitempty"`
	CursosRemover        []CursoPayload `json:"cursosRemover,omitempty"`
	CursosAdicionar      []CursoPayload `json:"cursosAdicionar,omitempty"`
	Cursos               []CursoPayload `json:"cursos,omitempty"`
}

// Payload builds the request body for the current action. Call Validate first.
func (d *Draft) Payload(gestorID int64) AcaoVagasPayload {
	p := AcaoVagasPayload{
		GestorID:             gestorID,
		TipoAcao:             d.TipoAcao,
		UFSelecionada:        d.Localidade.UF,
		MunicipioID:          d.Localidade.MunicipioID,
		MunicipioSelecionado: d.Localidade.Municipio,
	}

	switch d.TipoAcao {
	case AcaoDescredenciar:
		p.MotivoDescredenciar = d.Motivo
		if d.Estabelecimento != nil {
			p.CNES = d.Estabelecimento.CNES
		}
		if d.Curso != nil {
			p.CursoID = d.Curso.ID
		}
	case AcaoMudanca:
		for _, r := range d.Remover {
			p.CursosRemover = append(p.CursosRemover, removerPayload(r, ""))
		}
		for _, a := range d.Adicionados {
			p.CursosAdicionar = append(p.CursosAdicionar, adicionadoPayload(a, ""))
		}
		for _, r := range d.Remover {
			p.Cursos = append(p.Cursos, removerPayload(r, OperacaoRemover))
		}
		for _, a := range d.Adicionados {
			p.Cursos = append(p.Cursos, adicionadoPayload(a, OperacaoAdicionar))
		}
	default:
		p.Cursos = make([]CursoPayload, 0, len(d.Adicionados))
		for _, a := range d.Adicionados {
			p.Cursos = append(p.Cursos, adicionadoPayload(a, ""))
		}
	}
	return p
}

func removerPayload(r CursoRemover, op string) CursoPayload {
	return CursoPayload{ID: r.ID, Nome: r.Nome, Quantidade: r.Quantidade, CNES: r.CNES, Estabelecimento: r.Estabelecimento, Operacao: op}
}

func adicionadoPayload(a CursoAdicionado, op string) CursoPayload {
	return CursoPayload{ID: a.ID, Nome: a.Nome, Quantidade: a.Quantidade, CNES: a.CNES, Estabelecimento: a.Estabelecimento, Operacao: op}
}

// ItemAcao is one row of the generated annexes.
type ItemAcao struct {
	NomeCurso           string `json:"nomecurso"`
	Vagas               int    `json:"vagas"`
	CNES                string `json:"cnes"`
	NomeEstabelecimento string `json:"nomeestabelecimento"`
}

// Itens lists the rows printed on the annexes for the current action.
func (d *Draft) Itens() []ItemAcao {
	switch d.TipoAcao {
	case AcaoDescredenciar:
		motivo := string(d.Motivo)
		if motivo == "" {
			motivo = "MOTIVO NÃO INFORMADO"
		}
		nome := fmt.Sprintf("DESISTÊNCIA (%s)", motivo)
		if d.Curso != nil && d.Curso.Nome != "" {
			nome = fmt.Sprintf("DESISTÊNCIA - %s (%s)", d.Curso.Nome, motivo)
		}
		item := ItemAcao{NomeCurso: nome}
		if d.Estabelecimento != nil {
			item.CNES = d.Estabelecimento.CNES
			item.NomeEstabelecimento = d.Estabelecimento.Nome
		}
		return []ItemAcao{item}
	case AcaoMudanca:
		out := make([]ItemAcao, 0, len(d.Remover))
		for _, r := range d.Remover {
			out = append(out, ItemAcao{NomeCurso: r.Nome, Vagas: r.Quantidade, CNES: r.CNES, NomeEstabelecimento: r.Estabelecimento})
		}
		return out
	default:
		out := make([]ItemAcao, 0, len(d.Adicionados))
		for _, a := range d.Adicionados {
			out = append(out, ItemAcao{NomeCurso: a.Nome, Vagas: a.Quantidade, CNES: a.CNES, NomeEstabelecimento: a.Estabelecimento})
		}
		return out
	}
}

// CNESPrincipal is the CNES attached to the signed documents upload.
func (d *Draft) CNESPrincipal() string {
	if d.TipoAcao == AcaoDescredenciar {
		if d.Estabelecimento == nil {
			return ""
		}
		return strings.TrimSpace(d.Estabelecimento.CNES)
	}
	for _, v := range []string{firstAdicionadoCNES(d.Adicionados), firstRemoverCNES(d.Remover), estCNES(d.Estabelecimento)} {
		if v != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func firstAdicionadoCNES(list []CursoAdicionado) string {
	if len(list) == 0 {
		return ""
	}
	return list[0].CNES
}

func firstRemoverCNES(list []CursoRemover) string {
	if len(list) == 0 {
		return ""
	}
	return list[0].CNES
}

func estCNES(e *Estabelecimento) string {
	if e == nil {
		return ""
	}
	return e.CNES
}
