package main

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/sgtes/maismedicos-go/internal/domain"
	"github.com/sgtes/maismedicos-go/internal/recursos"
)

type localidadeView struct {
	pageBase
	Action     string
	UF         string
	NomeEstado string
	IBGE       string
	Municipio  string
	Estados    []recursos.Estado
	Municipios []recursos.Municipio
	Errors     domain.FieldErrors
	Avisos     []string
}

// loadLocalidades fills the state and municipality choices of the view.
// Failures become notices on the page.
func (api *portalAPI) loadLocalidades(ctx context.Context, view *localidadeView) {
	estados, err := api.recursos.Estados(ctx)
	if err != nil {
		api.logger.Warn("estados unavailable", "error", err)
		view.Avisos = append(view.Avisos, "Erro ao carregar estados.")
	}
	view.Estados = estados
	if e, ok := findEstado(estados, view.UF); ok {
		view.NomeEstado = e.Nome
		view.IBGE = string(e.IBGE)
	}
	if view.UF == "" {
		return
	}
	municipios, err := api.recursos.Municipios(ctx, view.UF, "")
	if err != nil {
		api.logger.Warn("municipios unavailable", "uf", view.UF, "error", err)
		view.Avisos = append(view.Avisos, "Erro ao carregar municípios.")
	}
	view.Municipios = municipios
}

func findEstado(list []recursos.Estado, uf string) (recursos.Estado, bool) {
	for _, e := range list {
		if strings.EqualFold(e.UF, uf) {
			return e, true
		}
	}
	return recursos.Estado{}, false
}

func findMunicipioPorNome(list []recursos.Municipio, nome string) (recursos.Municipio, bool) {
	for _, m := range list {
		if m.Nome == nome {
			return m, true
		}
	}
	return recursos.Municipio{}, false
}

func findMunicipioPorID(list []recursos.Municipio, id int64) (recursos.Municipio, bool) {
	for _, m := range list {
		if int64(m.MunicipioID) == id {
			return m, true
		}
	}
	return recursos.Municipio{}, false
}

func normUF(v string) string {
	return strings.ToUpper(strings.TrimSpace(v))
}

func (api *portalAPI) handleDadosMunicipio(w http.ResponseWriter, r *http.Request) {
	sess, ok := api.session(w, r)
	if !ok {
		return
	}
	st := &sess.State
	view := localidadeView{
		pageBase: pageBase{Title: "Dados do Município", Flash: st.PopFlash(), Nivel: st.Nivel},
		Action:   "/dados-municipio",
	}
	if st.Municipio != nil {
		view.UF = st.Municipio.UF
		view.Municipio = st.Municipio.Municipio
	}
	if uf := normUF(r.URL.Query().Get("uf")); uf != "" && uf != view.UF {
		view.UF = uf
		view.Municipio = ""
	}
	api.loadLocalidades(r.Context(), &view)
	if !api.save(w, r, sess) {
		return
	}
	api.render(w, r, http.StatusOK, "localidade.html", view)
}

func (api *portalAPI) handleSalvarMunicipio(w http.ResponseWriter, r *http.Request) {
	sess, ok := api.session(w, r)
	if !ok {
		return
	}
	st := &sess.State
	view := localidadeView{
		pageBase:  pageBase{Title: "Dados do Município", Nivel: st.Nivel},
		Action:    "/dados-municipio",
		UF:        normUF(r.PostFormValue("uf")),
		Municipio: formValue(r, "municipio"),
	}
	api.loadLocalidades(r.Context(), &view)

	dados := domain.DadosMunicipio{UF: view.UF, NomeEstado: view.NomeEstado, Municipio: view.Municipio}
	if m, ok := findMunicipioPorNome(view.Municipios, view.Municipio); ok {
		dados.IBGEMunicipio = string(m.IBGE)
		dados.MunicipioID = int64(m.MunicipioID)
	}
	if err := dados.Validate(); err != nil {
		errors.As(err, &view.Errors)
		api.render(w, r, http.StatusUnprocessableEntity, "localidade.html", view)
		return
	}
	st.Municipio = &dados
	api.redirect(w, r, sess, "/form-vagas")
}

func (api *portalAPI) handleDadosEstadual(w http.ResponseWriter, r *http.Request) {
	sess, ok := api.session(w, r)
	if !ok {
		return
	}
	st := &sess.State
	view := localidadeView{
		pageBase: pageBase{Title: "Dados do Estado", Flash: st.PopFlash(), Nivel: st.Nivel},
		Action:   "/dados-estadual",
	}
	if st.Estado != nil {
		view.UF = st.Estado.UF
		view.Municipio = st.Estado.Municipio
	}
	if uf := normUF(r.URL.Query().Get("uf")); uf != "" && uf != view.UF {
		view.UF = uf
		view.Municipio = ""
	}
	api.loadLocalidades(r.Context(), &view)
	if !api.save(w, r, sess) {
		return
	}
	api.render(w, r, http.StatusOK, "localidade.html", view)
}

func (api *portalAPI) handleSalvarEstadual(w http.ResponseWriter, r *http.Request) {
	sess, ok := api.session(w, r)
	if !ok {
		return
	}
	st := &sess.State
	view := localidadeView{
		pageBase:  pageBase{Title: "Dados do Estado", Nivel: st.Nivel},
		Action:    "/dados-estadual",
		UF:        normUF(r.PostFormValue("uf")),
		Municipio: formValue(r, "municipio"),
	}
	api.loadLocalidades(r.Context(), &view)

	dados := domain.DadosEstado{UF: view.UF, IBGE: view.IBGE, NomeEstado: view.NomeEstado, Municipio: view.Municipio}
	if err := dados.Validate(); err != nil {
		errors.As(err, &view.Errors)
		api.render(w, r, http.StatusUnprocessableEntity, "localidade.html", view)
		return
	}
	st.Estado = &dados
	api.redirect(w, r, sess, "/form-vagas")
}
