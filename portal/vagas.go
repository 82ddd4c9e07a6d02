package main

import (
	"context"
	"net/http"
	"strconv"

	"github.com/sgtes/maismedicos-go/internal/domain"
	"github.com/sgtes/maismedicos-go/internal/recursos"
	"github.com/sgtes/maismedicos-go/internal/termo"
	"github.com/sgtes/maismedicos-go/internal/wizard"
)

type opcao struct {
	Value    string
	Label    string
	Selected bool
}

type cursoOpcao struct {
	domain.Curso
	Max      int
	Disabled bool
	Selected bool
}

type vagasView struct {
	pageBase
	Acoes            []opcao
	Motivos          []opcao
	Draft            domain.Draft
	Estados          []recursos.Estado
	Municipios       []recursos.Municipio
	Estabelecimentos []domain.Estabelecimento
	Cursos           []cursoOpcao
	CursoSelecionado *cursoOpcao
	TodosCursos      []recursos.CursoCatalogo
	IncluirMax       int
	Ente             termo.Ente
	PodeFinalizar    bool
	TotalAdicionar   int
	TotalRemover     int
	Descredenciar    bool
	Incluir          bool
	Mudanca          bool
	Avisos           []string
}

func (api *portalAPI) handleFormVagas(w http.ResponseWriter, r *http.Request) {
	sess, ok := api.session(w, r)
	if !ok {
		return
	}
	st := &sess.State
	if st.Draft.TipoAcao == "" && st.Draft.Localidade == (domain.Localidade{}) && st.Municipio != nil {
		st.Draft.Localidade = st.Municipio.Localidade()
	}
	view := api.vagasView(r.Context(), st)
	view.Flash = st.PopFlash()
	if !api.save(w, r, sess) {
		return
	}
	api.render(w, r, http.StatusOK, "form_vagas.html", view)
}

// vagasView loads the choices each step of the slot screen needs. Lists
// that fail to load become notices instead of failing the page.
func (api *portalAPI) vagasView(ctx context.Context, st *wizard.State) vagasView {
	d := st.Draft
	view := vagasView{
		pageBase:       pageBase{Title: "Gestão de Vagas por Município", Nivel: st.Nivel},
		Draft:          d,
		IncluirMax:     domain.IncluirMaxPorCurso,
		Ente:           st.Ente,
		PodeFinalizar:  d.PodeFinalizar(),
		TotalAdicionar: d.TotalAdicionar(),
		TotalRemover:   d.TotalRemover(),
		Descredenciar:  d.TipoAcao == domain.AcaoDescredenciar,
		Incluir:        d.TipoAcao == domain.AcaoIncluir,
		Mudanca:        d.TipoAcao == domain.AcaoMudanca,
	}
	for _, a := range domain.AcoesMenu(api.cfg.MudancaCurso) {
		view.Acoes = append(view.Acoes, opcao{Value: string(a), Label: a.Label(), Selected: a == d.TipoAcao})
	}
	for _, m := range domain.Motivos {
		view.Motivos = append(view.Motivos, opcao{Value: string(m), Label: m.Label(), Selected: m == d.Motivo})
	}
	if d.TipoAcao == "" {
		return view
	}

	estados, err := api.recursos.Estados(ctx)
	if err != nil {
		api.logger.Warn("estados unavailable", "error", err)
		view.Avisos = append(view.Avisos, "Erro ao carregar estados.")
	}
	view.Estados = estados

	if d.Localidade.UF != "" {
		municipios, err := api.recursos.Municipios(ctx, d.Localidade.UF, d.TipoAcao.MunicipioStatus())
		if err != nil {
			api.logger.Warn("municipios unavailable", "uf", d.Localidade.UF, "error", err)
			view.Avisos = append(view.Avisos, "Erro ao carregar municípios.")
		}
		view.Municipios = municipios
	}

	if d.Localidade.MunicipioID != 0 {
		ests, err := api.estabelecimentos(ctx, st)
		if err != nil {
			api.logger.Warn("estabelecimentos unavailable", "municipio_id", d.Localidade.MunicipioID, "error", err)
			view.Avisos = append(view.Avisos, "Erro ao carregar estabelecimentos.")
		}
		view.Estabelecimentos = ests
	}

	if d.Estabelecimento == nil {
		return view
	}
	if view.Incluir {
		todos, err := api.recursos.TodosCursos(ctx)
		if err != nil {
			api.logger.Warn("catalogo de cursos unavailable", "error", err)
			view.Avisos = append(view.Avisos, "Erro ao carregar cursos.")
		}
		view.TodosCursos = todos
		return view
	}

	cursos, err := api.recursos.Cursos(ctx, d.Estabelecimento.ID)
	if err != nil {
		api.logger.Warn("cursos unavailable", "estabelecimento_id", d.Estabelecimento.ID, "error", err)
		view.Avisos = append(view.Avisos, "Erro ao carregar aprimoramentos.")
	}
	for _, c := range cursos {
		limite := d.MaxPermitido(c)
		opt := cursoOpcao{
			Curso:    c,
			Max:      limite,
			Disabled: d.TipoAcao.Capped() && limite <= 0,
			Selected: d.Curso != nil && d.Curso.ID == c.ID,
		}
		view.Cursos = append(view.Cursos, opt)
		if opt.Selected {
			sel := opt
			view.CursoSelecionado = &sel
		}
	}
	return view
}

// estabelecimentos lists the establishments of the selected municipality at
// the session's management level.
func (api *portalAPI) estabelecimentos(ctx context.Context, st *wizard.State) ([]domain.Estabelecimento, error) {
	q := recursos.EstabelecimentosQuery{
		MunicipioID: st.Draft.Localidade.MunicipioID,
		NivelGestao: st.Nivel,
	}
	if st.Draft.TipoAcao.FiltraStatusAdesao() {
		q.StatusAdesao = "ADERIDO"
	}
	list, err := api.recursos.Estabelecimentos(ctx, q)
	if err != nil {
		return nil, err
	}
	return domain.FiltrarEstabelecimentos(list, st.Nivel), nil
}

// cursoDoEstabelecimento fetches the selected establishment's course by id
// with fresh balances.
func (api *portalAPI) cursoDoEstabelecimento(ctx context.Context, d *domain.Draft, id string) (domain.Curso, error) {
	if d.Estabelecimento == nil {
		return domain.Curso{}, domain.Problem("Selecione o estabelecimento (CNES).")
	}
	cursos, err := api.recursos.Cursos(ctx, d.Estabelecimento.ID)
	if err != nil {
		return domain.Curso{}, err
	}
	for _, c := range cursos {
		if c.ID == id {
			return c, nil
		}
	}
	return domain.Curso{}, domain.Problem("Selecione o aprimoramento.")
}

// vagasAction wraps one step of the slot screen. A failed step leaves its
// message as a flash; every step ends back on the slot screen.
func (api *portalAPI) vagasAction(step func(r *http.Request, st *wizard.State) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := api.session(w, r)
		if !ok {
			return
		}
		if err := r.ParseForm(); err != nil {
			api.writeError(w, r, http.StatusBadRequest, "invalid_form")
			return
		}
		if err := step(r, &sess.State); err != nil {
			sess.State.SetFlash(wizard.FlashError, api.userMessage(r, err, "Não foi possível carregar os dados. Tente novamente."))
		}
		api.redirect(w, r, sess, "/form-vagas")
	}
}

func (api *portalAPI) setAcao(r *http.Request, st *wizard.State) error {
	t, ok := domain.ParseTipoAcao(formValue(r, "tipoAcao"))
	if !ok || (t == domain.AcaoMudanca && !api.cfg.MudancaCurso) {
		return domain.Problem("Selecione o tipo de ação.")
	}
	st.Draft.SetTipoAcao(t)
	st.Municipio = nil
	return nil
}

func (api *portalAPI) setUF(r *http.Request, st *wizard.State) error {
	if st.Draft.TipoAcao == "" {
		return domain.Problem("Selecione o tipo de ação.")
	}
	estados, err := api.recursos.Estados(r.Context())
	if err != nil {
		return err
	}
	e, ok := findEstado(estados, normUF(r.PostFormValue("uf")))
	if !ok {
		return domain.Problem("Selecione UF e Município.")
	}
	st.Draft.SetUF(e.UF, e.Nome)
	return nil
}

func (api *portalAPI) setMunicipio(r *http.Request, st *wizard.State) error {
	loc := st.Draft.Localidade
	if st.Draft.TipoAcao == "" || loc.UF == "" {
		return domain.Problem("Selecione UF e Município.")
	}
	id, err := strconv.ParseInt(formValue(r, "municipio_id"), 10, 64)
	if err != nil {
		return domain.Problem("Selecione UF e Município.")
	}
	municipios, err := api.recursos.Municipios(r.Context(), loc.UF, st.Draft.TipoAcao.MunicipioStatus())
	if err != nil {
		return err
	}
	m, ok := findMunicipioPorID(municipios, id)
	if !ok {
		return domain.Problem("Selecione UF e Município.")
	}
	st.Draft.SetMunicipio(m.Nome, string(m.IBGE), int64(m.MunicipioID))
	st.Municipio = &domain.DadosMunicipio{
		UF:            loc.UF,
		NomeEstado:    loc.NomeEstado,
		Municipio:     st.Draft.Localidade.Municipio,
		IBGEMunicipio: st.Draft.Localidade.IBGEMunicipio,
		MunicipioID:   st.Draft.Localidade.MunicipioID,
	}
	return nil
}

func (api *portalAPI) setEstabelecimento(r *http.Request, st *wizard.State) error {
	if !st.Draft.LocalidadeOK() {
		return domain.Problem("Selecione UF e Município.")
	}
	cnes := formValue(r, "cnes")
	ests, err := api.estabelecimentos(r.Context(), st)
	if err != nil {
		return err
	}
	for _, e := range ests {
		if e.CNES != cnes || cnes == "" {
			continue
		}
		st.Draft.SelectEstabelecimento(e)
		if st.Draft.TipoAcao == domain.AcaoMudanca {
			cursos, err := api.recursos.Cursos(r.Context(), e.ID)
			if err != nil {
				return err
			}
			st.Draft.CarregarRemover(cursos)
		}
		return nil
	}
	return domain.Problem("Selecione o estabelecimento (CNES).")
}

func (api *portalAPI) setCurso(r *http.Request, st *wizard.State) error {
	c, err := api.cursoDoEstabelecimento(r.Context(), &st.Draft, formValue(r, "curso_id"))
	if err != nil {
		return err
	}
	return st.Draft.SelectCurso(c)
}

func (api *portalAPI) adicionarCurso(r *http.Request, st *wizard.State) error {
	if !st.Draft.TipoAcao.StandardFlow() {
		return domain.Problem("Selecione o tipo de ação.")
	}
	c, err := api.cursoDoEstabelecimento(r.Context(), &st.Draft, formValue(r, "curso_id"))
	if err != nil {
		return err
	}
	quantidade, err := strconv.Atoi(formValue(r, "quantidade"))
	if err != nil {
		quantidade = 0
	}
	return st.Draft.AdicionarCurso(c, quantidade)
}

func (api *portalAPI) removerCurso(r *http.Request, st *wizard.State) error {
	st.Draft.RemoverCurso(formValue(r, "id"), formValue(r, "cnes"))
	return nil
}

// adicionarIncluir reads the include form: parallel "curso" and "quantidade"
// fields, one pair per catalogue course.
func (api *portalAPI) adicionarIncluir(r *http.Request, st *wizard.State) error {
	if st.Draft.TipoAcao != domain.AcaoIncluir {
		return domain.Problem("Selecione o tipo de ação.")
	}
	nomes := r.PostForm["curso"]
	qtds := r.PostForm["quantidade"]
	quantidades := make([]domain.QuantidadeCurso, 0, len(nomes))
	for i, nome := range nomes {
		q := 0
		if i < len(qtds) {
			if v, err := strconv.Atoi(qtds[i]); err == nil {
				q = v
			}
		}
		quantidades = append(quantidades, domain.QuantidadeCurso{Nome: nome, Quantidade: q})
	}
	_, err := st.Draft.AdicionarIncluir(quantidades)
	return err
}

func (api *portalAPI) setDescredenciar(r *http.Request, st *wizard.State) error {
	if st.Draft.TipoAcao != domain.AcaoDescredenciar {
		return domain.Problem("Selecione o tipo de ação.")
	}
	c, err := api.cursoDoEstabelecimento(r.Context(), &st.Draft, formValue(r, "curso_id"))
	if err != nil {
		return err
	}
	if err := st.Draft.SelectCurso(c); err != nil {
		return err
	}
	motivo, ok := domain.ParseMotivo(formValue(r, "motivo"))
	if !ok {
		return domain.Problem("Selecione o motivo.")
	}
	st.Draft.SetMotivo(motivo)
	return nil
}
