package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/sgtes/maismedicos-go/internal/documentos"
	"github.com/sgtes/maismedicos-go/internal/domain"
	"github.com/sgtes/maismedicos-go/internal/platform/auditlog"
	"github.com/sgtes/maismedicos-go/internal/platform/objectstore"
	"github.com/sgtes/maismedicos-go/internal/termo"
	"github.com/sgtes/maismedicos-go/internal/wizard"
)

const (
	msgEnvioFalhou       = "Erro ao enviar solicitação para o servidor."
	msgTermosGerados     = "Solicitação enviada com sucesso! Baixe os termos, assine e envie os PDFs."
	msgTermosFalharam    = "Solicitação enviada, mas não foi possível gerar os termos. Tente gerar novamente."
	msgSemSolicitacao    = "Nenhuma solicitação enviada. Preencha o formulário de vagas."
	msgTermosRefeitos    = "Termos gerados novamente."
	msgTermoIndisponivel = "Documento indisponível. Gere os termos novamente."
)

// handleFinalizar validates the slot request, sends it, then renders and
// archives both annexes.
func (api *portalAPI) handleFinalizar(w http.ResponseWriter, r *http.Request) {
	sess, ok := api.session(w, r)
	if !ok {
		return
	}
	st := &sess.State
	st.Ente = termo.Ente{
		NomeEnte:      formValue(r, "nomeente"),
		CNPJ:          formValue(r, "cnpj"),
		Sede:          formValue(r, "sede"),
		Representacao: formValue(r, "representacao"),
	}

	sc := domain.SubmitContext{GestorID: st.GestorID}
	if st.Gestor != nil {
		sc.GestorNome = st.Gestor.Nome
		sc.GestorCPF = st.Gestor.CPF
	}
	if err := st.Draft.Validate(sc); err != nil {
		target := "/form-vagas"
		if errors.Is(err, domain.ErrGestorNaoIdentificado) || errors.Is(err, domain.ErrGestorIncompleto) {
			target = "/dados-gestor"
		}
		api.fail(w, r, sess, target, api.userMessage(r, err, msgEnvioFalhou))
		return
	}

	payload := st.Draft.Payload(st.GestorID)
	resposta, err := api.recursos.EnviarAcaoVagas(r.Context(), payload)
	if err != nil {
		api.fail(w, r, sess, "/form-vagas", api.userMessage(r, err, msgEnvioFalhou))
		return
	}
	st.AcaoVagaResposta = resposta
	st.CNESPrincipal = st.Draft.CNESPrincipal()

	api.audit.Record(r.Context(), r, auditlog.AcaoVagasEnviada(sess.ID, st.GestorID, string(payload.TipoAcao), st.CNESPrincipal, st.Draft.TotalAdicionar(), map[string]any{
		"uf":           payload.UFSelecionada,
		"municipio_id": payload.MunicipioID,
	}))

	if err := api.gerarDocumentos(r.Context(), sess); err != nil {
		api.logger.Error("annex generation failed", "request_id", r.Header.Get("X-Request-Id"), "session_id", sess.ID, "error", err)
		st.SetFlash(wizard.FlashError, msgTermosFalharam)
	} else {
		st.SetFlash(wizard.FlashSuccess, msgTermosGerados)
	}
	api.redirect(w, r, sess, "/documentos")
}

// gerarDocumentos renders Anexo I and Anexo II for the session's request and
// archives them. The establishment list only supplies directors' names, so
// failing to load it is not fatal.
func (api *portalAPI) gerarDocumentos(ctx context.Context, sess *wizard.Session) error {
	st := &sess.State
	var gestor domain.Gestor
	if st.Gestor != nil {
		gestor = *st.Gestor
	}
	ests, err := api.estabelecimentos(ctx, st)
	if err != nil {
		api.logger.Warn("estabelecimentos unavailable for annexes", "session_id", sess.ID, "error", err)
	}
	anexoI, anexoII := termo.Montar(termo.Entrada{
		Draft:            &st.Draft,
		Gestor:           gestor,
		Ente:             st.Ente,
		Estabelecimentos: ests,
		Agora:            api.now(),
	})

	steps := []struct {
		kind   string
		render func(io.Writer) error
	}{
		{documentos.KindAnexoI, func(w io.Writer) error { return api.renderer.AnexoI(w, anexoI) }},
		{documentos.KindAnexoII, func(w io.Writer) error { return api.renderer.AnexoII(w, anexoII) }},
	}
	docs := make([]wizard.Documento, 0, len(steps))
	for _, step := range steps {
		filename, err := documentos.Filename(step.kind)
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := step.render(&buf); err != nil {
			return fmt.Errorf("render %s: %w", step.kind, err)
		}
		key, err := api.archive.Put(ctx, sess.ID, filename, buf.Bytes())
		if err != nil {
			return err
		}
		docs = append(docs, wizard.Documento{Kind: step.kind, Filename: filename, Key: key})
	}
	st.Documentos = docs

	arquivos := make([]string, 0, len(docs))
	for _, d := range docs {
		arquivos = append(arquivos, d.Key)
	}
	api.audit.Record(ctx, nil, auditlog.TermosGerados(sess.ID, st.GestorID, string(st.Draft.TipoAcao), st.CNESPrincipal, arquivos))
	return nil
}

type documentosView struct {
	pageBase
	Documentos  []wizard.Documento
	TemResposta bool
	CNES        string
	TipoAcao    domain.TipoAcao
	TotalVagas  int
}

func (api *portalAPI) handleDocumentos(w http.ResponseWriter, r *http.Request) {
	sess, ok := api.session(w, r)
	if !ok {
		return
	}
	st := &sess.State
	view := documentosView{
		pageBase:    pageBase{Title: "Termos da Solicitação", Flash: st.PopFlash(), Nivel: st.Nivel},
		Documentos:  st.Documentos,
		TemResposta: len(st.AcaoVagaResposta) > 0,
		CNES:        st.CNESPrincipal,
		TipoAcao:    st.Draft.TipoAcao,
		TotalVagas:  st.Draft.TotalAdicionar(),
	}
	if !api.save(w, r, sess) {
		return
	}
	api.render(w, r, http.StatusOK, "documentos.html", view)
}

func (api *portalAPI) handleGerarDocumentos(w http.ResponseWriter, r *http.Request) {
	sess, ok := api.session(w, r)
	if !ok {
		return
	}
	st := &sess.State
	if len(st.AcaoVagaResposta) == 0 {
		api.fail(w, r, sess, "/form-vagas", msgSemSolicitacao)
		return
	}
	if err := api.gerarDocumentos(r.Context(), sess); err != nil {
		api.logger.Error("annex generation failed", "request_id", r.Header.Get("X-Request-Id"), "session_id", sess.ID, "error", err)
		api.fail(w, r, sess, "/documentos", msgTermosFalharam)
		return
	}
	st.SetFlash(wizard.FlashSuccess, msgTermosRefeitos)
	api.redirect(w, r, sess, "/documentos")
}

// handleBaixarDocumento streams an archived annex of the current session.
func (api *portalAPI) handleBaixarDocumento(w http.ResponseWriter, r *http.Request) {
	sess, ok := api.session(w, r)
	if !ok {
		return
	}
	kind := r.PathValue("kind")
	if _, err := documentos.Filename(kind); err != nil {
		api.writeError(w, r, http.StatusNotFound, "not_found")
		return
	}
	doc, ok := sess.State.Documento(kind)
	if !ok {
		api.fail(w, r, sess, "/documentos", msgTermoIndisponivel)
		return
	}
	body, info, err := api.archive.Open(r.Context(), sess.ID, doc.Key)
	if errors.Is(err, objectstore.ErrNotFound) {
		api.fail(w, r, sess, "/documentos", msgTermoIndisponivel)
		return
	}
	if err != nil {
		api.logger.Error("annex download failed", "request_id", r.Header.Get("X-Request-Id"), "key", doc.Key, "error", err)
		api.writeError(w, r, http.StatusBadGateway, "storage_unavailable")
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	if info.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		api.logger.Warn("annex stream interrupted", "request_id", r.Header.Get("X-Request-Id"), "key", doc.Key, "error", err)
	}
}

// handleNovaSolicitacao discards the wizard session and its archived annexes
// so the next request starts from the first step.
func (api *portalAPI) handleNovaSolicitacao(w http.ResponseWriter, r *http.Request) {
	sess, ok := api.session(w, r)
	if !ok {
		return
	}
	if n, err := api.archive.Purge(r.Context(), sess.ID); err != nil {
		api.logger.Warn("annex purge failed", "request_id", r.Header.Get("X-Request-Id"), "session_id", sess.ID, "error", err)
	} else if n > 0 {
		api.logger.Info("annexes purged", "session_id", sess.ID, "count", n)
	}
	if err := api.sessions.Destroy(r.Context(), w, sess); err != nil {
		api.logger.Error("session destroy failed", "request_id", r.Header.Get("X-Request-Id"), "session_id", sess.ID, "error", err)
		api.renderError(w, r, http.StatusServiceUnavailable, "Sessão indisponível. Tente novamente em instantes.")
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
