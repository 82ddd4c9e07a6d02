package uploads

import (
	"sort"
	"strings"
	"time"
)

// File is an uploaded PDF as listed by the backend.
type File struct {
	Filename  string    `json:"filename"`
	CNES      string    `json:"cnes"`
	SizeKB    float64   `json:"sizeKB"`
	CreatedAt time.Time `json:"createdAt"`
	URL       string    `json:"url"`
}

type Status string

const (
	StatusTodos        Status = "TODOS"
	StatusAssinados    Status = "ASSINADOS"
	StatusNaoAssinados Status = "NAO_ASSINADOS"
)

func ParseStatus(v string) Status {
	switch s := Status(strings.ToUpper(strings.TrimSpace(v))); s {
	case StatusAssinados, StatusNaoAssinados:
		return s
	}
	return StatusTodos
}

func (s Status) Label() string {
	switch s {
	case StatusAssinados:
		return "Assinados"
	case StatusNaoAssinados:
		return "Não assinados"
	}
	return ""
}

// NormalizeCNES keeps the digits and left-pads them to seven.
func NormalizeCNES(v string) string {
	var b strings.Builder
	for _, r := range v {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	d := b.String()
	if d == "" {
		return ""
	}
	if len(d) < 7 {
		d = strings.Repeat("0", 7-len(d)) + d
	}
	return d
}

// IsValidCNES reports whether v normalizes to exactly seven digits.
func IsValidCNES(v string) bool {
	return len(NormalizeCNES(v)) == 7
}

// FriendlyName is the part of the stored filename before the CNES tag, with
// underscores turned into spaces.
func FriendlyName(filename string) string {
	base, _, _ := strings.Cut(filename, "__CNES-")
	if base == "" {
		base = filename
	}
	return strings.TrimSpace(strings.ReplaceAll(base, "_", " "))
}

// Criteria narrows the admin listing.
type Criteria struct {
	// CNES typed by the operator; ignored unless it normalizes to seven digits.
	CNES string
	// EstabelecimentosMunicipio are the CNES of the selected municipality.
	EstabelecimentosMunicipio []string
	// EstabelecimentosUF are the CNES of every municipality of the selected UF,
	// used when no municipality narrows the list.
	EstabelecimentosUF []string
	Status             Status
	Query              string
}

// Filter applies the criteria and returns the files newest first.
func Filter(files []File, assinados map[string]bool, c Criteria) []File {
	out := make([]File, 0, len(files))
	cnes := NormalizeCNES(c.CNES)
	exact := IsValidCNES(cnes)

	var allowed map[string]struct{}
	if !exact {
		allowed = cnesSet(c.EstabelecimentosMunicipio)
		if len(allowed) == 0 {
			allowed = cnesSet(c.EstabelecimentosUF)
		}
	}
	q := strings.ToLower(strings.TrimSpace(c.Query))

	for _, f := range files {
		fc := NormalizeCNES(f.CNES)
		if exact && fc != cnes {
			continue
		}
		if len(allowed) > 0 {
			if _, ok := allowed[fc]; !ok {
				continue
			}
		}
		switch c.Status {
		case StatusAssinados:
			if !assinados[f.Filename] {
				continue
			}
		case StatusNaoAssinados:
			if assinados[f.Filename] {
				continue
			}
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(f.Filename), q) &&
			!strings.Contains(strings.ToLower(FriendlyName(f.Filename)), q) &&
			!strings.Contains(fc, q) {
			continue
		}
		out = append(out, f)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func cnesSet(list []string) map[string]struct{} {
	set := make(map[string]struct{}, len(list))
	for _, v := range list {
		if n := NormalizeCNES(v); n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}

// Summary holds the counters of the admin listing. Totals cover every file;
// CNESNaoAssinados covers the filtered list only.
type Summary struct {
	Total            int
	Assinados        int
	NaoAssinados     int
	CNESUnicos       []string
	CNESNaoAssinados []string
}

func Summarize(all, filtered []File, assinados map[string]bool) Summary {
	s := Summary{Total: len(all)}
	unicos := map[string]struct{}{}
	for _, f := range all {
		if assinados[f.Filename] {
			s.Assinados++
		}
		if n := NormalizeCNES(f.CNES); n != "" {
			unicos[n] = struct{}{}
		}
	}
	s.NaoAssinados = max(s.Total-s.Assinados, 0)
	s.CNESUnicos = sortedKeys(unicos)

	pendentes := map[string]struct{}{}
	for _, f := range filtered {
		if assinados[f.Filename] {
			continue
		}
		if n := NormalizeCNES(f.CNES); n != "" {
			pendentes[n] = struct{}{}
		}
	}
	s.CNESNaoAssinados = sortedKeys(pendentes)
	return s
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
