package domain

import (
	"net/mail"
	"strings"
)

type Gestor struct {
	Nome  string `json:"nome"`
	CPF   string `json:"cpf"`
	Email string `json:"email"`
}

// NewGestor trims the input and keeps only the digits of the CPF.
func NewGestor(nome, cpf, email string) Gestor {
	return Gestor{
		Nome:  strings.TrimSpace(nome),
		CPF:   OnlyDigits(cpf),
		Email: strings.TrimSpace(email),
	}
}

func (g Gestor) Validate() error {
	fe := FieldErrors{}
	if g.Nome == "" {
		fe["nome"] = "Nome é obrigatório"
	}
	switch cpf := OnlyDigits(g.CPF); {
	case cpf == "":
		fe["cpf"] = "CPF é obrigatório"
	case len(cpf) != 11:
		fe["cpf"] = "CPF inválido"
	}
	if g.Email == "" {
		fe["email"] = "E-mail é obrigatório"
	} else if !validEmail(g.Email) {
		fe["email"] = "E-mail inválido"
	}
	return fe.orNil()
}

func validEmail(v string) bool {
	addr, err := mail.ParseAddress(v)
	if err != nil || addr.Address != v {
		return false
	}
	at := strings.LastIndex(v, "@")
	return at > 0 && strings.Contains(v[at+1:], ".")
}

func OnlyDigits(v string) string {
	var b strings.Builder
	for _, r := range v {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatCPF masks up to 11 digits progressively as 000.000.000-00.
func FormatCPF(v string) string {
	d := OnlyDigits(v)
	if len(d) > 11 {
		d = d[:11]
	}
	switch {
	case len(d) <= 3:
		return d
	case len(d) <= 6:
		return d[:3] + "." + d[3:]
	case len(d) <= 9:
		return d[:3] + "." + d[3:6] + "." + d[6:]
	default:
		return d[:3] + "." + d[3:6] + "." + d[6:9] + "-" + d[9:]
	}
}

// FormatCPF11 formats a complete CPF and returns anything else trimmed but untouched.
func FormatCPF11(v string) string {
	d := OnlyDigits(v)
	if len(d) != 11 {
		return strings.TrimSpace(v)
	}
	return FormatCPF(d)
}
