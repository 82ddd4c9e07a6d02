package domain

import (
	"sort"
	"strings"
)

var (
	ErrGestorNaoIdentificado error = Problem("Gestor não identificado. Volte e preencha os dados do responsável.")
	ErrGestorIncompleto      error = Problem("Dados do responsável incompletos (nome/CPF). Volte e preencha os dados do responsável.")
)

// Problem is a rule violation whose text is shown to the user as is.
type Problem string

func (p Problem) Error() string { return string(p) }

// FieldErrors maps form field names to user-facing messages.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fe[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (fe FieldErrors) orNil() error {
	if len(fe) == 0 {
		return nil
	}
	return fe
}
