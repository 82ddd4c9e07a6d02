package domain

type TipoAcao string

const (
	AcaoDescredenciar TipoAcao = "DESCREDENCIAR_VAGA"
	AcaoAumentar      TipoAcao = "AUMENTAR_VAGAS"
	AcaoDiminuir      TipoAcao = "DIMINUIR_VAGAS"
	AcaoIncluir       TipoAcao = "INCLUIR_APRIMORAMENTO"
	AcaoAdesao        TipoAcao = "ADESAO_EDITAL"
	AcaoMudanca       TipoAcao = "MUDANCA_CURSO"
)

// AcoesMenu lists the actions offered on the slot screen, in menu order.
// MUDANCA_CURSO is appended only when course change is enabled.
func AcoesMenu(mudancaHabilitada bool) []TipoAcao {
	acoes := []TipoAcao{AcaoDescredenciar, AcaoAumentar, AcaoDiminuir, AcaoIncluir, AcaoAdesao}
	if mudancaHabilitada {
		acoes = append(acoes[:3:3], append([]TipoAcao{AcaoMudanca}, acoes[3:]...)...)
	}
	return acoes
}

func ParseTipoAcao(v string) (TipoAcao, bool) {
	switch t := TipoAcao(v); t {
	case AcaoDescredenciar, AcaoAumentar, AcaoDiminuir, AcaoIncluir, AcaoAdesao, AcaoMudanca:
		return t, true
	}
	return "", false
}

func (t TipoAcao) Label() string {
	switch t {
	case AcaoDescredenciar:
		return "Desistir da Adesão"
	case AcaoAumentar:
		return "Aumentar Número de Vagas"
	case AcaoDiminuir:
		return "Diminuir Número de Vagas"
	case AcaoIncluir:
		return "Incluir Outro Aprimoramento"
	case AcaoAdesao:
		return "Adesão Por Perda de Prazo"
	case AcaoMudanca:
		return "Mudança de Curso de Aprimoramento"
	}
	return string(t)
}

// Capped reports whether the action is bounded by a per-course balance.
func (t TipoAcao) Capped() bool {
	return t == AcaoDiminuir || t == AcaoAumentar || t == AcaoAdesao
}

func (t TipoAcao) UsesSaldoAumentar() bool {
	return t == AcaoAumentar || t == AcaoAdesao
}

// StandardFlow reports whether courses are added one at a time from the
// establishment's own course list.
func (t TipoAcao) StandardFlow() bool {
	return t == AcaoAumentar || t == AcaoDiminuir || t == AcaoMudanca || t == AcaoAdesao
}

// MunicipioStatus is the establishment status used to list municipalities.
func (t TipoAcao) MunicipioStatus() string {
	if t == AcaoIncluir {
		return "NAO_ADERIDO"
	}
	return "ADERIDO"
}

// FiltraStatusAdesao reports whether establishments are restricted to ADERIDO.
func (t TipoAcao) FiltraStatusAdesao() bool {
	return t != AcaoIncluir
}

type Motivo string

const (
	MotivoDesinteresse           Motivo = "desinteresse"
	MotivoFaltaDemanda           Motivo = "falta_demanda"
	MotivoCapacidadeInsuficiente Motivo = "capacidade_insuficiente"
)

var Motivos = []Motivo{MotivoDesinteresse, MotivoFaltaDemanda, MotivoCapacidadeInsuficiente}

func ParseMotivo(v string) (Motivo, bool) {
	for _, m := range Motivos {
		if string(m) == v {
			return m, true
		}
	}
	return "", false
}

func (m Motivo) Label() string {
	switch m {
	case MotivoDesinteresse:
		return "Desinteresse no Aprimoramento Ofertado"
	case MotivoFaltaDemanda:
		return "Falta de Demanda para o Aprimoramento"
	case MotivoCapacidadeInsuficiente:
		return "Falta de capacidade instalada"
	}
	return string(m)
}
