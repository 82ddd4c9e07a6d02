package termo

import (
	"strings"
	"time"
)

// LabelTipoAcao is the action name printed on the annexes.
func LabelTipoAcao(tipo string) string {
	v := strings.ToUpper(strings.TrimSpace(tipo))
	switch v {
	case "AUMENTAR VAGAS", "AUMENTAR_VAGAS":
		return "Aumentar vagas"
	case "DIMINUIR VAGAS", "DIMINUIR_VAGAS":
		return "Diminuir vagas"
	case "MUDANÇA DE CURSO", "MUDANCA DE CURSO", "MUDANCA CURSO", "MUDANCA_CURSO":
		return "Mudança de curso"
	}
	return v
}

var meses = [...]string{
	"janeiro", "fevereiro", "março", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

func MesPorExtenso(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return meses[m-1]
}
