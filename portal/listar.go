package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sgtes/maismedicos-go/internal/domain"
	"github.com/sgtes/maismedicos-go/internal/platform/auditlog"
	"github.com/sgtes/maismedicos-go/internal/platform/auth"
	"github.com/sgtes/maismedicos-go/internal/recursos"
	"github.com/sgtes/maismedicos-go/internal/uploads"
	"github.com/sgtes/maismedicos-go/internal/wizard"
)

const (
	msgListarPDFs    = "Erro ao listar PDFs."
	msgSalvarStatus  = "Não foi possível salvar o status no servidor."
	msgStatusSalvo   = "Status atualizado."
	listarPDFPath    = "/listar-pdf"
	queryErro        = "erro"
	queryOK          = "ok"
	erroSalvarStatus = "status"
)

type listarFiltro struct {
	UF          string
	MunicipioID int64
	CNES        string
	Status      uploads.Status
	Query       string
}

func filtroFromQuery(q url.Values) listarFiltro {
	id, _ := strconv.ParseInt(strings.TrimSpace(q.Get("municipio_id")), 10, 64)
	return listarFiltro{
		UF:          normUF(q.Get("uf")),
		MunicipioID: id,
		CNES:        strings.TrimSpace(q.Get("cnes")),
		Status:      uploads.ParseStatus(q.Get("status")),
		Query:       strings.TrimSpace(q.Get("q")),
	}
}

// encode keeps the filters across the mark-as-signed round trip.
func (f listarFiltro) encode() url.Values {
	v := url.Values{}
	if f.UF != "" {
		v.Set("uf", f.UF)
	}
	if f.MunicipioID != 0 {
		v.Set("municipio_id", formatID(f.MunicipioID))
	}
	if f.CNES != "" {
		v.Set("cnes", f.CNES)
	}
	if f.Status != uploads.StatusTodos {
		v.Set("status", string(f.Status))
	}
	if f.Query != "" {
		v.Set("q", f.Query)
	}
	return v
}

type arquivoView struct {
	uploads.File
	Assinado bool
}

type listarView struct {
	pageBase
	Filtro           listarFiltro
	Operador         string
	PodeMarcar       bool
	Estados          []recursos.Estado
	Municipios       []recursos.Municipio
	Estabelecimentos []domain.Estabelecimento
	Arquivos         []arquivoView
	Resumo           uploads.Summary
	Status           []opcao
	Querystring      string
	Erro             string
	Avisos           []string
}

func (api *portalAPI) handleListarPDF(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filtro := filtroFromQuery(r.URL.Query())
	view := listarView{
		pageBase:    pageBase{Title: "PDFs enviados"},
		Filtro:      filtro,
		Querystring: filtro.encode().Encode(),
	}
	if identity, ok := auth.IdentityFromContext(ctx); ok {
		view.Operador = identity.Operador()
		view.PodeMarcar = identity.Can(auth.PermMarcarAssinado)
	}
	switch r.URL.Query().Get(queryErro) {
	case erroSalvarStatus:
		view.Erro = msgSalvarStatus
	}
	if r.URL.Query().Get(queryOK) != "" {
		view.Flash = &wizard.Flash{Kind: wizard.FlashSuccess, Message: msgStatusSalvo}
	}
	for _, s := range []uploads.Status{uploads.StatusTodos, uploads.StatusAssinados, uploads.StatusNaoAssinados} {
		label := s.Label()
		if label == "" {
			label = "Todos"
		}
		view.Status = append(view.Status, opcao{Value: string(s), Label: label, Selected: s == filtro.Status})
	}

	estados, err := api.recursos.Estados(ctx)
	if err != nil {
		api.logger.Warn("estados unavailable", "error", err)
		view.Avisos = append(view.Avisos, "Erro ao carregar estados.")
	}
	view.Estados = estados

	criteria := uploads.Criteria{CNES: filtro.CNES, Status: filtro.Status, Query: filtro.Query}
	if filtro.UF != "" {
		municipios, err := api.recursos.Municipios(ctx, filtro.UF, "")
		if err != nil {
			api.logger.Warn("municipios unavailable", "uf", filtro.UF, "error", err)
			view.Avisos = append(view.Avisos, "Erro ao carregar municípios.")
		}
		view.Municipios = municipios
		if !uploads.IsValidCNES(filtro.CNES) {
			criteria.EstabelecimentosMunicipio, criteria.EstabelecimentosUF = api.cnesPermitidos(ctx, filtro, municipios, &view)
		}
	}

	files, err := api.recursos.ListarUploads(ctx)
	if err != nil {
		api.logger.Warn("uploads listing failed", "request_id", r.Header.Get("X-Request-Id"), "error", err)
		view.Erro = api.userMessage(r, err, msgListarPDFs)
		api.render(w, r, http.StatusBadGateway, "listar_pdf.html", view)
		return
	}
	assinados, err := api.recursos.Assinados(ctx)
	if err != nil {
		api.logger.Warn("signed map unavailable", "request_id", r.Header.Get("X-Request-Id"), "error", err)
		assinados = map[string]bool{}
	}

	filtered := uploads.Filter(files, assinados, criteria)
	view.Resumo = uploads.Summarize(files, filtered, assinados)
	for _, f := range filtered {
		view.Arquivos = append(view.Arquivos, arquivoView{File: f, Assinado: assinados[f.Filename]})
	}
	api.render(w, r, http.StatusOK, "listar_pdf.html", view)
}

// cnesPermitidos collects the CNES the listing is narrowed to: those of the
// selected municipality, or of every municipality of the UF when none is
// selected.
func (api *portalAPI) cnesPermitidos(ctx context.Context, filtro listarFiltro, municipios []recursos.Municipio, view *listarView) (doMunicipio, daUF []string) {
	if filtro.MunicipioID != 0 {
		ests, err := api.recursos.Estabelecimentos(ctx, recursos.EstabelecimentosQuery{MunicipioID: filtro.MunicipioID})
		if err != nil {
			api.logger.Warn("estabelecimentos unavailable", "municipio_id", filtro.MunicipioID, "error", err)
			view.Avisos = append(view.Avisos, "Erro ao carregar estabelecimentos.")
		}
		view.Estabelecimentos = ests
		for _, e := range ests {
			doMunicipio = append(doMunicipio, e.CNES)
		}
		return doMunicipio, nil
	}
	ids := make([]int64, 0, len(municipios))
	for _, m := range municipios {
		if m.MunicipioID != 0 {
			ids = append(ids, int64(m.MunicipioID))
		}
	}
	for _, ests := range api.recursos.EstabelecimentosPorMunicipio(ctx, ids) {
		for _, e := range ests {
			daUF = append(daUF, e.CNES)
		}
	}
	return nil, daUF
}

// handleMarcarAssinado stores the signed flag of one upload and returns to
// the listing with the same filters.
func (api *portalAPI) handleMarcarAssinado(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		api.writeError(w, r, http.StatusBadRequest, "invalid_form")
		return
	}
	filtro := filtroFromQuery(r.PostForm)
	filename := formValue(r, "filename")
	if filename == "" {
		api.writeError(w, r, http.StatusBadRequest, "filename_required")
		return
	}
	assinado := r.PostFormValue("assinado") == "true"

	back := filtro.encode()
	if err := api.recursos.MarcarAssinado(r.Context(), filename, assinado); err != nil {
		api.logger.Warn("mark signed failed", "request_id", r.Header.Get("X-Request-Id"), "filename", filename, "error", err)
		back.Set(queryErro, erroSalvarStatus)
		http.Redirect(w, r, listarPDFPath+"?"+back.Encode(), http.StatusSeeOther)
		return
	}

	var operador string
	if identity, ok := auth.IdentityFromContext(r.Context()); ok {
		operador = identity.Operador()
	}
	api.audit.Record(r.Context(), r, auditlog.AssinaturaAlterada(operador, filename, uploads.NormalizeCNES(formValue(r, "arquivo_cnes")), assinado))
	back.Set(queryOK, "1")
	http.Redirect(w, r, listarPDFPath+"?"+back.Encode(), http.StatusSeeOther)
}

// handleAbrirPDF proxies a stored upload so operators never talk to the
// backend directly.
func (api *portalAPI) handleAbrirPDF(w http.ResponseWriter, r *http.Request) {
	filename := r.PathValue("filename")
	if strings.TrimSpace(filename) == "" {
		api.writeError(w, r, http.StatusNotFound, "not_found")
		return
	}
	up, err := api.recursos.AbrirUpload(r.Context(), filename)
	if err != nil {
		status, code := http.StatusBadGateway, "upstream_unavailable"
		var apiErr *recursos.APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			status, code = http.StatusNotFound, "not_found"
		}
		api.logger.Warn("upload download failed", "request_id", r.Header.Get("X-Request-Id"), "filename", filename, "error", err)
		api.writeError(w, r, status, code)
		return
	}
	defer up.Body.Close()

	w.Header().Set("Content-Type", up.ContentType)
	w.Header().Set("Content-Disposition", "inline; filename="+strconv.Quote(filename))
	if up.ContentLength > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(up.ContentLength, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, up.Body); err != nil {
		api.logger.Warn("upload stream interrupted", "request_id", r.Header.Get("X-Request-Id"), "filename", filename, "error", err)
	}
}
