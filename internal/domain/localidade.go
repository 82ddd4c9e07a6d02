package domain

import "strings"

type NivelGestao string

const (
	NivelMunicipal NivelGestao = "municipal"
	NivelEstadual  NivelGestao = "estadual"
)

func ParseNivelGestao(v string) (NivelGestao, bool) {
	switch NivelGestao(strings.ToLower(strings.TrimSpace(v))) {
	case NivelMunicipal:
		return NivelMunicipal, true
	case NivelEstadual:
		return NivelEstadual, true
	}
	return "", false
}

func (n NivelGestao) Label() string {
	switch n {
	case NivelMunicipal:
		return "Gestão Municipal"
	case NivelEstadual:
		return "Gestão Estadual"
	}
	return ""
}

type DadosMunicipio struct {
	UF            string `json:"uf"`
	NomeEstado    string `json:"nomeEstado"`
	Municipio     string `json:"municipio"`
	IBGEMunicipio string `json:"ibgeMunicipio"`
	MunicipioID   int64  `json:"municipio_id,omitempty"`
}

func (d DadosMunicipio) Validate() error {
	fe := FieldErrors{}
	if strings.TrimSpace(d.UF) == "" {
		fe["uf"] = "UF é obrigatória"
	}
	if strings.TrimSpace(d.NomeEstado) == "" {
		fe["nomeEstado"] = "Nome do Estado é obrigatório"
	}
	if strings.TrimSpace(d.Municipio) == "" {
		fe["municipio"] = "Município é obrigatório"
	}
	if strings.TrimSpace(d.IBGEMunicipio) == "" {
		fe["ibgeMunicipio"] = "Código IBGE do município é obrigatório"
	}
	return fe.orNil()
}

// Localidade turns the municipality form into the locality of the slot screen.
func (d DadosMunicipio) Localidade() Localidade {
	return Localidade{
		UF:            d.UF,
		NomeEstado:    d.NomeEstado,
		Municipio:     d.Municipio,
		IBGEMunicipio: d.IBGEMunicipio,
		MunicipioID:   d.MunicipioID,
	}
}

type DadosEstado struct {
	UF         string `json:"uf"`
	IBGE       string `json:"ibge"`
	NomeEstado string `json:"nomeEstado"`
	Municipio  string `json:"municipio"`
}

func (d DadosEstado) Validate() error {
	fe := FieldErrors{}
	if strings.TrimSpace(d.UF) == "" {
		fe["uf"] = "UF é obrigatória"
	}
	if strings.TrimSpace(d.IBGE) == "" {
		fe["ibge"] = "Código IBGE é obrigatório"
	}
	if strings.TrimSpace(d.NomeEstado) == "" {
		fe["nomeEstado"] = "Nome do estado é obrigatório"
	}
	if strings.TrimSpace(d.Municipio) == "" {
		fe["municipio"] = "Município é obrigatório"
	}
	return fe.orNil()
}

type Localidade struct {
	UF            string `json:"uf,omitempty"`
	NomeEstado    string `json:"nomeEstado,omitempty"`
	Municipio     string `json:"municipio,omitempty"`
	IBGEMunicipio string `json:"ibgeMunicipio,omitempty"`
	MunicipioID   int64  `json:"municipio_id,omitempty"`
}

func (l Localidade) Completa() bool {
	return l.UF != "" && l.Municipio != "" && l.MunicipioID != 0
}
