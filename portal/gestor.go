package main

import (
	"errors"
	"net/http"

	"github.com/sgtes/maismedicos-go/internal/domain"
	"github.com/sgtes/maismedicos-go/internal/platform/auditlog"
	"github.com/sgtes/maismedicos-go/internal/recursos"
)

type nivelOpcao struct {
	Value    domain.NivelGestao
	Title    string
	Subtitle string
}

var niveis = []nivelOpcao{
	{Value: domain.NivelMunicipal, Title: "Municipal", Subtitle: "Seleção de um único município"},
	{Value: domain.NivelEstadual, Title: "Estadual", Subtitle: "Seleção de múltiplos municípios da UF"},
}

type homeView struct {
	pageBase
	Niveis []nivelOpcao
}

func (api *portalAPI) handleHome(w http.ResponseWriter, r *http.Request) {
	sess, ok := api.session(w, r)
	if !ok {
		return
	}
	view := homeView{
		pageBase: pageBase{Title: "Projeto Mais Médicos Especialistas", Flash: sess.State.PopFlash(), Nivel: sess.State.Nivel},
		Niveis:   niveis,
	}
	if !api.save(w, r, sess) {
		return
	}
	api.render(w, r, http.StatusOK, "home.html", view)
}

// handleNivel starts a new request at the chosen management level.
func (api *portalAPI) handleNivel(w http.ResponseWriter, r *http.Request) {
	sess, ok := api.session(w, r)
	if !ok {
		return
	}
	nivel, ok := domain.ParseNivelGestao(r.PostFormValue("nivel"))
	if !ok {
		api.fail(w, r, sess, "/", "Selecione o nível de gestão.")
		return
	}
	sess.State.Nivel = nivel
	sess.State.ResetAcao()
	api.redirect(w, r, sess, "/dados-gestor")
}

type gestorView struct {
	pageBase
	Nome     string
	CPF      string
	Email    string
	Errors   domain.FieldErrors
	APIError string
}

func (api *portalAPI) handleDadosGestor(w http.ResponseWriter, r *http.Request) {
	sess, ok := api.session(w, r)
	if !ok {
		return
	}
	st := &sess.State
	view := gestorView{pageBase: pageBase{Title: "Dados do Gestor", Flash: st.PopFlash(), Nivel: st.Nivel}}
	if st.Gestor != nil {
		view.Nome = st.Gestor.Nome
		view.CPF = domain.FormatCPF(st.Gestor.CPF)
		view.Email = st.Gestor.Email
	}
	if !api.save(w, r, sess) {
		return
	}
	api.render(w, r, http.StatusOK, "dados_gestor.html", view)
}

// handleSalvarGestor validates the manager, registers them with the backend
// and moves on to the slot screen once a level is known.
func (api *portalAPI) handleSalvarGestor(w http.ResponseWriter, r *http.Request) {
	sess, ok := api.session(w, r)
	if !ok {
		return
	}
	st := &sess.State
	g := domain.NewGestor(r.PostFormValue("nome"), r.PostFormValue("cpf"), r.PostFormValue("email"))
	view := gestorView{
		pageBase: pageBase{Title: "Dados do Gestor", Nivel: st.Nivel},
		Nome:     g.Nome,
		CPF:      domain.FormatCPF(g.CPF),
		Email:    g.Email,
	}

	if err := g.Validate(); err != nil {
		var fe domain.FieldErrors
		if errors.As(err, &fe) {
			view.Errors = fe
		}
		api.render(w, r, http.StatusUnprocessableEntity, "dados_gestor.html", view)
		return
	}

	gestorID, err := api.recursos.ValidarGestor(r.Context(), g)
	if err != nil {
		view.APIError = api.userMessage(r, err, "Erro ao validar/criar gestor")
		if errors.Is(err, recursos.ErrGestorSemID) {
			view.APIError = err.Error()
		}
		api.render(w, r, http.StatusBadGateway, "dados_gestor.html", view)
		return
	}

	st.GestorID = gestorID
	st.Gestor = &g
	api.audit.Record(r.Context(), r, auditlog.GestorValidado(sess.ID, gestorID, string(st.Nivel)))

	next := "/"
	if st.Nivel != "" {
		next = "/form-vagas"
	}
	api.redirect(w, r, sess, next)
}
