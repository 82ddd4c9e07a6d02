package domain

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lower-cases and trims s and strips combining accents.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return strings.ToLower(strings.TrimSpace(s))
	}
	return out
}

var niveisDuplos = map[string]struct{}{
	"dupla": {}, "dobro": {}, "ambos": {}, "misto": {}, "duplo": {},
}

// EstabelecimentoPassaNoFiltro reports whether an establishment belongs to
// the chosen management level. Unknown levels and dual management always pass.
func EstabelecimentoPassaNoFiltro(est Estabelecimento, nivel NivelGestao) bool {
	if nivel == "" {
		return true
	}
	ng := Fold(est.NivelGestao)
	if ng == "" {
		return true
	}
	if _, ok := niveisDuplos[ng]; ok {
		return true
	}
	if strings.Contains(ng, "municipal") && strings.Contains(ng, "estadual") {
		return true
	}
	switch nivel {
	case NivelMunicipal:
		return ng == "municipal"
	case NivelEstadual:
		return ng == "estadual"
	}
	return true
}

// FiltrarEstabelecimentos keeps the establishments of the chosen level.
func FiltrarEstabelecimentos(list []Estabelecimento, nivel NivelGestao) []Estabelecimento {
	out := make([]Estabelecimento, 0, len(list))
	for _, e := range list {
		if EstabelecimentoPassaNoFiltro(e, nivel) {
			out = append(out, e)
		}
	}
	return out
}
