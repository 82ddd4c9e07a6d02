package termo

import (
	"bytes"
	"log/slog"
	"strings"

	"github.com/go-pdf/fpdf"
)

const (
	margin      = 20.0
	brasaoSize  = 28.0
	brasaoGap   = 6.0
	fontFamily  = "Helvetica"
	fontSize    = 12.0
	lineHeight  = 5.2
	cellPadding = 2.0
	gridWidth   = 0.2
	ptToMM      = 25.4 / 72
)

// page tracks the write cursor over an A4 document. y is the baseline of the
// next text line, in millimetres from the top edge.
type page struct {
	pdf      *fpdf.Fpdf
	tr       func(string) string
	y        float64
	width    float64
	height   float64
	contentW float64
}

func newPage() *page {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, margin)
	pdf.SetCreator("maismedicos-go", true)
	pdf.AddPage()
	w, h := pdf.GetPageSize()
	p := &page{
		pdf:      pdf,
		tr:       pdf.UnicodeTranslatorFromDescriptor(""),
		y:        margin,
		width:    w,
		height:   h,
		contentW: w - 2*margin,
	}
	p.normal()
	return p
}

func (p *page) normal() { p.pdf.SetFont(fontFamily, "", fontSize) }
func (p *page) bold()   { p.pdf.SetFont(fontFamily, "B", fontSize) }

func (p *page) bottom() float64 { return p.height - margin }

// ensure starts a new page when needed millimetres do not fit below y.
func (p *page) ensure(needed float64) {
	if p.y+needed > p.bottom() {
		p.pdf.AddPage()
		p.y = margin
	}
}

func (p *page) text(x float64, s string) {
	p.pdf.Text(x, p.y, p.tr(s))
}

func (p *page) centered(s string) {
	t := p.tr(s)
	p.pdf.Text((p.width-p.pdf.GetStringWidth(t))/2, p.y, t)
}

// paragraph wraps s to the content width and writes it line by line,
// breaking pages between lines.
func (p *page) paragraph(s string) {
	for _, line := range p.wrap(s, p.contentW) {
		p.ensure(lineHeight)
		p.pdf.Text(margin, p.y, line)
		p.y += lineHeight
	}
}

// wrap returns translated lines no wider than w. Blank source lines are kept.
func (p *page) wrap(s string, w float64) []string {
	var out []string
	for _, src := range strings.Split(s, "\n") {
		src = strings.TrimRight(src, " \t\r")
		if src == "" {
			out = append(out, "")
			continue
		}
		for _, l := range p.pdf.SplitLines([]byte(p.tr(src)), w) {
			out = append(out, string(l))
		}
	}
	return out
}

// brasao draws the coat of arms centred at the top of the first page. A
// JPEG that fails to decode is logged and the header is drawn without it.
func (p *page) brasao(img []byte, logger *slog.Logger) {
	if len(img) == 0 {
		return
	}
	opt := fpdf.ImageOptions{ImageType: "JPG"}
	info := p.pdf.RegisterImageOptionsReader("brasao", opt, bytes.NewReader(img))
	if !p.pdf.Ok() || info == nil {
		logger.Warn("brasao not embedded", "error", p.pdf.Error())
		p.pdf.ClearError()
		return
	}
	p.pdf.ImageOptions("brasao", p.width/2-brasaoSize/2, p.y, brasaoSize, brasaoSize, false, opt, 0, "")
	p.y += brasaoSize + brasaoGap
}

// cabecalho writes the ministry header and the annex title.
func (p *page) cabecalho(anexo string, img []byte, logger *slog.Logger) {
	p.brasao(img, logger)
	p.bold()
	p.ensure(8)
	p.centered("MINISTÉRIO DA SAÚDE")
	p.y += 7
	p.ensure(12)
	p.centered("SECRETARIA DE GESTÃO DO TRABALHO E DA EDUCAÇÃO NA SAÚDE")
	p.y += 10
	p.ensure(12)
	p.text(margin, anexo)
	p.y += 10
}

type column struct {
	title  string
	share  float64
	center bool
}

// table is a grid whose heading rows repeat on every page it spans. y is
// the top edge of the table while it is drawn.
type table struct {
	span    string
	columns []column
	rows    [][]string
	size    float64
	minRow  float64
}

func (p *page) table(t table) {
	p.pdf.SetLineWidth(gridWidth)
	p.pdf.SetDrawColor(0, 0, 0)
	p.pdf.SetTextColor(0, 0, 0)

	head := func() {
		p.pdf.SetFont(fontFamily, "B", t.size)
		if t.span != "" {
			p.row([]column{{share: 1, center: true}}, []string{t.span}, t)
		}
		p.row(t.columns, headTitles(t.columns), t)
		p.pdf.SetFont(fontFamily, "", t.size)
	}

	p.pdf.SetFont(fontFamily, "B", t.size)
	needed := p.rowHeight(t.columns, headTitles(t.columns), t)
	if t.span != "" {
		needed += p.rowHeight([]column{{share: 1}}, []string{t.span}, t)
	}
	if len(t.rows) > 0 {
		p.pdf.SetFont(fontFamily, "", t.size)
		needed += p.rowHeight(t.columns, t.rows[0], t)
	}
	if p.y+needed > p.bottom() {
		p.pdf.AddPage()
		p.y = margin
	}
	head()

	for _, r := range t.rows {
		if p.y+p.rowHeight(t.columns, r, t) > p.bottom() {
			p.pdf.AddPage()
			p.y = margin
			head()
		}
		p.row(t.columns, r, t)
	}
	p.normal()
}

func headTitles(cols []column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.title
	}
	return out
}

func (p *page) tableLine(t table) float64 { return t.size * ptToMM * 1.15 }

func (p *page) rowHeight(cols []column, cells []string, t table) float64 {
	lines := 1
	for i, c := range cols {
		if i >= len(cells) {
			break
		}
		if n := len(p.wrap(cells[i], c.share*p.contentW-2*cellPadding)); n > lines {
			lines = n
		}
	}
	h := float64(lines)*p.tableLine(t) + 2*cellPadding
	if h < t.minRow {
		h = t.minRow
	}
	return h
}

// row draws one grid row at y with vertically centred cell text.
func (p *page) row(cols []column, cells []string, t table) {
	h := p.rowHeight(cols, cells, t)
	lh := p.tableLine(t)
	ascent := t.size * ptToMM * 0.8
	x := margin
	for i, c := range cols {
		w := c.share * p.contentW
		p.pdf.Rect(x, p.y, w, h, "D")
		var cell string
		if i < len(cells) {
			cell = cells[i]
		}
		lines := p.wrap(cell, w-2*cellPadding)
		by := p.y + (h-float64(len(lines))*lh)/2 + ascent
		for _, l := range lines {
			tx := x + cellPadding
			if c.center {
				tx = x + (w-p.pdf.GetStringWidth(l))/2
			}
			p.pdf.Text(tx, by, l)
			by += lh
		}
		x += w
	}
	p.y += h
}
