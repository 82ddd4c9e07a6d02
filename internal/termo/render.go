package termo

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/sgtes/maismedicos-go/internal/domain"
)

// Renderer draws the annexes with the current clause catalogue.
type Renderer struct {
	catalog *CatalogStore
	brasao  []byte
	logger  *slog.Logger
}

func NewRenderer(catalog *CatalogStore, brasao []byte, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{catalog: catalog, brasao: brasao, logger: logger}
}

// LoadBrasao reads the optional coat of arms. A missing path yields no image.
func LoadBrasao(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read brasao: %w", err)
	}
	return b, nil
}

func (r *Renderer) ente(nome, cnpj, sede, representacao string) EnteData {
	return EnteData{NomeEnte: nome, CNPJ: cnpj, Sede: sede, Representacao: representacao}
}

func (r *Renderer) AnexoI(w io.Writer, a AnexoI) error {
	cat := r.catalog.Current()
	data := r.ente(a.NomeEnte, a.CNPJ, a.Sede, a.Representacao)
	abertura, err := cat.AnexoIAbertura(data)
	if err != nil {
		return err
	}
	preambulo, err := cat.AnexoIPreambulo(data)
	if err != nil {
		return err
	}
	label := LabelTipoAcao(a.TipoAcao)
	total := strconv.Itoa(a.TotalVagas)

	p := newPage()
	p.cabecalho("ANEXO I", r.brasao, r.logger)

	p.bold()
	p.paragraph(cat.AnexoITitulo)
	p.y += 8

	p.normal()
	p.ensure(8)
	p.text(margin, "Tipo de ação: "+label)
	p.y += 7
	p.ensure(9)
	p.text(margin, "Total de vagas solicitadas: "+total)
	p.y += 8
	p.ensure(7)
	p.text(margin, "Quadro de vagas solicitadas por Aprimoramento e estabelecimento:")
	p.y += 6

	rows := make([][]string, 0, len(a.Aprimoramentos))
	for _, ap := range a.Aprimoramentos {
		rows = append(rows, []string{ap.Nome, ap.CNES, strconv.Itoa(ap.Vagas)})
	}
	p.table(table{
		span: "Tipo de ação: " + label + "   |   Total: " + total,
		columns: []column{
			{title: "Aprimoramento", share: 0.6},
			{title: "CNES", share: 0.2, center: true},
			{title: "Nº de vagas solicitadas", share: 0.2, center: true},
		},
		rows: rows,
		size: 11,
	})
	p.y += 10

	p.bold()
	p.paragraph(abertura)
	p.y += 6
	p.normal()
	p.paragraph(preambulo)
	p.y += 6
	p.clausulas(cat.AnexoIClausulas)

	p.ensure(58)
	p.normal()
	p.text(margin, fmt.Sprintf("Brasília/DF, %s de %s de %s.", a.Dia, a.Mes, a.ano()))
	p.y += 28

	right := p.width/2 + 10
	p.text(right, "______________________________________")
	base := p.y
	p.bold()
	p.y = base + 7
	p.text(right, "GESTOR LOCAL")
	p.normal()
	if a.GestorNome != "" {
		p.y = base + 13
		p.text(right, a.GestorNome)
	}
	if cpf := domain.FormatCPF11(a.GestorCPF); cpf != "" {
		p.y = base + 18
		p.text(right, "CPF: "+cpf)
	}
	return p.output(w)
}

func (r *Renderer) AnexoII(w io.Writer, a AnexoII) error {
	cat := r.catalog.Current()
	abertura, err := cat.AnexoIIAbertura(r.ente(a.NomeEnte, "", "", ""))
	if err != nil {
		return err
	}
	label := LabelTipoAcao(a.TipoAcao)

	p := newPage()
	p.cabecalho("ANEXO II", r.brasao, r.logger)

	p.bold()
	p.paragraph(abertura)
	p.y += 8
	p.normal()
	p.paragraph("Tipo de ação: " + label)
	p.y += 4

	p.ensure(25)
	rows := make([][]string, 0, len(a.Estabelecimentos))
	for _, e := range a.Estabelecimentos {
		rows = append(rows, []string{e.NomeEstabelecimento, e.CNES, e.NomeCurso, strconv.Itoa(e.Vagas)})
	}
	p.table(table{
		span: "Tipo de ação: " + label,
		columns: []column{
			{title: "ESTABELECIMENTO", share: 0.34},
			{title: "CNES", share: 0.14, center: true},
			{title: "CURSO DE APRIMORAMENTO", share: 0.38},
			{title: "QUANTIDADE DE VAGAS", share: 0.14, center: true},
		},
		rows: rows,
		size: 10.5,
	})
	p.y += 10
	p.clausulas(cat.AnexoIIClausulas)

	p.ensure(45)
	p.y += 2
	sig := make([][]string, 0, len(a.Assinaturas))
	for _, s := range a.Assinaturas {
		sig = append(sig, []string{s.NomeEstabelecimento, s.CNES, s.NomeDiretor, ""})
	}
	p.table(table{
		columns: []column{
			{title: "ESTABELECIMENTO", share: 0.35},
			{title: "CNES", share: 0.15, center: true},
			{title: "DIRETOR DO ESTABELECIMENTO", share: 0.30},
			{title: "ASSINATURA", share: 0.20},
		},
		rows:   sig,
		size:   10.5,
		minRow: 10,
	})
	p.y += 14

	p.ensure(40)
	p.normal()
	p.paragraph(fmt.Sprintf("Brasília/DF, %s de %s de %s.", a.Dia, a.Mes, a.ano()))
	p.y += 10
	p.ensure(18)
	p.text(margin, "_____________________________________")
	p.y += 7
	p.bold()
	p.text(margin, "GESTOR LOCAL")
	return p.output(w)
}

func (p *page) clausulas(list []Clausula) {
	for _, c := range list {
		p.bold()
		p.paragraph(c.Titulo)
		p.y += 2
		p.normal()
		p.paragraph(c.Texto)
		p.y += 6
	}
}

func (p *page) output(w io.Writer) error {
	if err := p.pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
