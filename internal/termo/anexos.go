package termo

import (
	"strconv"
	"strings"
	"time"

	"github.com/sgtes/maismedicos-go/internal/domain"
)

const (
	FilenameAnexoI  = "Termo_de_Adesao_Anexo_I.pdf"
	FilenameAnexoII = "Termo_Estabelecimentos_Anexo_II.pdf"

	anoPadrao = "2026"
)

type Aprimoramento struct {
	Nome  string `json:"nomecurso"`
	CNES  string `json:"cnes"`
	Vagas int    `json:"vagas"`
}

type AnexoI struct {
	TipoAcao       string          `json:"tipoacao"`
	TotalVagas     int             `json:"totalvagas"`
	NomeEnte       string          `json:"nomeente"`
	CNPJ           string          `json:"cnpj"`
	Sede           string          `json:"sede"`
	Representacao  string          `json:"representacao"`
	GestorNome     string          `json:"gestornome"`
	GestorCPF      string          `json:"gestorcpf"`
	Dia            string          `json:"dia"`
	Mes            string          `json:"mes"`
	Ano            string          `json:"ano"`
	Aprimoramentos []Aprimoramento `json:"aprimoramentos"`
}

type LinhaEstabelecimento struct {
	NomeEstabelecimento string `json:"nomeestabelecimento"`
	CNES                string `json:"cnes"`
	NomeCurso           string `json:"nomecurso"`
	Vagas               int    `json:"vagas"`
}

type Assinatura struct {
	NomeEstabelecimento string `json:"nomeestabelecimento"`
	CNES                string `json:"cnes"`
	NomeDiretor         string `json:"nomediretor"`
}

type AnexoII struct {
	NomeEnte         string                 `json:"nomeente"`
	TipoAcao         string                 `json:"tipoacao"`
	Estabelecimentos []LinhaEstabelecimento `json:"estabelecimentos"`
	Assinaturas      []Assinatura           `json:"assinaturalist"`
	Dia              string                 `json:"dia"`
	Mes              string                 `json:"mes"`
	Ano              string                 `json:"ano"`
	GestorNome       string                 `json:"gestornome"`
	GestorCPF        string                 `json:"gestorcpf"`
}

func (a AnexoI) ano() string  { return orDefault(a.Ano, anoPadrao) }
func (a AnexoII) ano() string { return orDefault(a.Ano, anoPadrao) }

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

// Ente identifies the federative entity signing the annexes. Empty fields
// fall back to values derived from the session.
type Ente struct {
	NomeEnte      string `json:"nomeente"`
	CNPJ          string `json:"cnpj"`
	Sede          string `json:"sede"`
	Representacao string `json:"representacao"`
}

// Entrada gathers what finalizing the slot screen knows about the request.
type Entrada struct {
	Draft            *domain.Draft
	Gestor           domain.Gestor
	Ente             Ente
	Estabelecimentos []domain.Estabelecimento
	Agora            time.Time
}

// Montar builds both annexes from a finished request.
func Montar(in Entrada) (AnexoI, AnexoII) {
	itens := in.Draft.Itens()
	tipo := string(in.Draft.TipoAcao)

	nomeEnte := orDefault(in.Ente.NomeEnte, in.Draft.Localidade.Municipio)
	representacao := in.Ente.Representacao
	if strings.TrimSpace(representacao) == "" {
		representacao = in.Gestor.Nome + " (CPF: " + in.Gestor.CPF + ")"
	}
	agora := in.Agora
	if agora.IsZero() {
		agora = time.Now()
	}
	dia := strconv.Itoa(agora.Day())
	mes := MesPorExtenso(agora.Month())

	total := 0
	aprimoramentos := make([]Aprimoramento, 0, len(itens))
	linhas := make([]LinhaEstabelecimento, 0, len(itens))
	for _, it := range itens {
		total += it.Vagas
		aprimoramentos = append(aprimoramentos, Aprimoramento{Nome: it.NomeCurso, CNES: it.CNES, Vagas: it.Vagas})
		linhas = append(linhas, LinhaEstabelecimento{
			NomeEstabelecimento: it.NomeEstabelecimento,
			CNES:                it.CNES,
			NomeCurso:           it.NomeCurso,
			Vagas:               it.Vagas,
		})
	}

	i := AnexoI{
		TipoAcao:       tipo,
		TotalVagas:     total,
		NomeEnte:       nomeEnte,
		CNPJ:           in.Ente.CNPJ,
		Sede:           in.Ente.Sede,
		Representacao:  representacao,
		GestorNome:     in.Gestor.Nome,
		GestorCPF:      in.Gestor.CPF,
		Dia:            dia,
		Mes:            mes,
		Ano:            strconv.Itoa(agora.Year()),
		Aprimoramentos: aprimoramentos,
	}
	ii := AnexoII{
		NomeEnte:         nomeEnte,
		TipoAcao:         tipo,
		Estabelecimentos: linhas,
		Assinaturas:      assinaturas(itens, in.Estabelecimentos),
		Dia:              dia,
		Mes:              mes,
		Ano:              strconv.Itoa(agora.Year()),
		GestorNome:       in.Gestor.Nome,
		GestorCPF:        in.Gestor.CPF,
	}
	return i, ii
}

// assinaturas has one row per distinct CNES, in first-seen order, with the
// director registered for that establishment. When the list repeats a CNES
// the last entry wins.
func assinaturas(itens []domain.ItemAcao, ests []domain.Estabelecimento) []Assinatura {
	diretores := make(map[string]string, len(ests))
	for _, e := range ests {
		if cnes := strings.TrimSpace(e.CNES); cnes != "" {
			diretores[cnes] = e.DiretorNome
		}
	}
	seen := map[string]bool{}
	var out []Assinatura
	for _, it := range itens {
		cnes := strings.TrimSpace(it.CNES)
		if cnes == "" || seen[cnes] {
			continue
		}
		seen[cnes] = true
		out = append(out, Assinatura{NomeEstabelecimento: it.NomeEstabelecimento, CNES: cnes, NomeDiretor: diretores[cnes]})
	}
	return out
}
