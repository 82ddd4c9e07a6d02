package main

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sgtes/maismedicos-go/internal/documentos"
	"github.com/sgtes/maismedicos-go/internal/domain"
	"github.com/sgtes/maismedicos-go/internal/platform/auditlog"
	"github.com/sgtes/maismedicos-go/internal/platform/httpserver"
	"github.com/sgtes/maismedicos-go/internal/recursos"
	"github.com/sgtes/maismedicos-go/internal/termo"
	"github.com/sgtes/maismedicos-go/internal/wizard"
)

type portalAPI struct {
	logger   *slog.Logger
	cfg      portalConfig
	recursos *recursos.Cached
	sessions *wizard.Manager
	renderer *termo.Renderer
	archive  *documentos.Archive
	audit    auditlog.Recorder
	views    *views
	now      func() time.Time
}

func newPortalAPI(logger *slog.Logger, cfg portalConfig, rec *recursos.Cached, sessions *wizard.Manager, renderer *termo.Renderer, archive *documentos.Archive, audit auditlog.Recorder, v *views) *portalAPI {
	return &portalAPI{
		logger:   logger,
		cfg:      cfg,
		recursos: rec,
		sessions: sessions,
		renderer: renderer,
		archive:  archive,
		audit:    audit,
		views:    v,
		now:      time.Now,
	}
}

// register mounts the wizard pages on mux. admin wraps the handlers that
// require an authenticated operator.
func (api *portalAPI) register(mux *http.ServeMux, admin func(http.Handler) http.Handler) {
	mux.HandleFunc("GET /{$}", api.handleHome)
	mux.HandleFunc("POST /nivel", api.handleNivel)

	mux.HandleFunc("GET /dados-gestor", api.handleDadosGestor)
	mux.HandleFunc("POST /dados-gestor", api.handleSalvarGestor)
	mux.HandleFunc("GET /dados-municipio", api.handleDadosMunicipio)
	mux.HandleFunc("POST /dados-municipio", api.handleSalvarMunicipio)
	mux.HandleFunc("GET /dados-estadual", api.handleDadosEstadual)
	mux.HandleFunc("POST /dados-estadual", api.handleSalvarEstadual)

	mux.HandleFunc("GET /form-vagas", api.handleFormVagas)
	mux.HandleFunc("POST /form-vagas/acao", api.vagasAction(api.setAcao))
	mux.HandleFunc("POST /form-vagas/uf", api.vagasAction(api.setUF))
	mux.HandleFunc("POST /form-vagas/municipio", api.vagasAction(api.setMunicipio))
	mux.HandleFunc("POST /form-vagas/estabelecimento", api.vagasAction(api.setEstabelecimento))
	mux.HandleFunc("POST /form-vagas/curso", api.vagasAction(api.setCurso))
	mux.HandleFunc("POST /form-vagas/cursos", api.vagasAction(api.adicionarCurso))
	mux.HandleFunc("POST /form-vagas/cursos/remover", api.vagasAction(api.removerCurso))
	mux.HandleFunc("POST /form-vagas/incluir", api.vagasAction(api.adicionarIncluir))
	mux.HandleFunc("POST /form-vagas/descredenciar", api.vagasAction(api.setDescredenciar))
	mux.HandleFunc("POST /form-vagas/finalizar", api.handleFinalizar)

	mux.HandleFunc("GET /documentos", api.handleDocumentos)
	mux.HandleFunc("POST /documentos/gerar", api.handleGerarDocumentos)
	mux.HandleFunc("GET /documentos/{kind}", api.handleBaixarDocumento)
	mux.HandleFunc("POST /nova-solicitacao", api.handleNovaSolicitacao)

	mux.HandleFunc("GET /upload", api.handleUpload)
	mux.HandleFunc("POST /upload", api.handleEnviarUpload)
	mux.HandleFunc("GET /upload/reenvio", api.handleReenvio)
	mux.HandleFunc("POST /upload/reenvio", api.handleEnviarReenvio)

	mux.Handle("GET /listar-pdf", admin(http.HandlerFunc(api.handleListarPDF)))
	mux.Handle("POST /listar-pdf/assinado", admin(http.HandlerFunc(api.handleMarcarAssinado)))
	mux.Handle("GET /listar-pdf/arquivo/{filename}", admin(http.HandlerFunc(api.handleAbrirPDF)))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
	})
}

// pageBase carries what the layout renders on every page.
type pageBase struct {
	Title string
	Flash *wizard.Flash
	Nivel domain.NivelGestao
}

// session loads the wizard session. On failure it answers the request and
// reports false.
func (api *portalAPI) session(w http.ResponseWriter, r *http.Request) (*wizard.Session, bool) {
	sess, err := api.sessions.Load(r)
	if err != nil {
		api.logger.Error("session load failed", "request_id", r.Header.Get("X-Request-Id"), "error", err)
		api.renderError(w, r, http.StatusServiceUnavailable, "Sessão indisponível. Tente novamente em instantes.")
		return nil, false
	}
	return sess, true
}

func (api *portalAPI) save(w http.ResponseWriter, r *http.Request, sess *wizard.Session) bool {
	if err := api.sessions.Save(r.Context(), w, sess); err != nil {
		api.logger.Error("session save failed", "request_id", r.Header.Get("X-Request-Id"), "session_id", sess.ID, "error", err)
		api.renderError(w, r, http.StatusServiceUnavailable, "Sessão indisponível. Tente novamente em instantes.")
		return false
	}
	return true
}

// redirect saves the session and sends the browser to target (post-redirect-get).
func (api *portalAPI) redirect(w http.ResponseWriter, r *http.Request, sess *wizard.Session, target string) {
	if !api.save(w, r, sess) {
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (api *portalAPI) fail(w http.ResponseWriter, r *http.Request, sess *wizard.Session, target, message string) {
	sess.State.SetFlash(wizard.FlashError, message)
	api.redirect(w, r, sess, target)
}

// userMessage turns err into the text shown on the page. Rule violations
// carry their own text; anything else is logged and replaced by fallback.
func (api *portalAPI) userMessage(r *http.Request, err error, fallback string) string {
	var problem domain.Problem
	if errors.As(err, &problem) {
		return problem.Error()
	}
	var fe domain.FieldErrors
	if errors.As(err, &fe) {
		return fe.Error()
	}
	api.logger.Warn("request failed", "request_id", r.Header.Get("X-Request-Id"), "path", r.URL.Path, "error", err)
	return recursos.UserMessage(err, fallback)
}

func (api *portalAPI) writeError(w http.ResponseWriter, r *http.Request, status int, code string) {
	httpserver.WriteJSON(w, status, map[string]any{
		"error":      code,
		"request_id": r.Header.Get("X-Request-Id"),
	})
}

func formValue(r *http.Request, key string) string {
	return strings.TrimSpace(r.PostFormValue(key))
}
