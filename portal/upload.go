package main

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/sgtes/maismedicos-go/internal/platform/auditlog"
	"github.com/sgtes/maismedicos-go/internal/recursos"
	"github.com/sgtes/maismedicos-go/internal/uploads"
	"github.com/sgtes/maismedicos-go/internal/wizard"
)

const (
	msgSelecionePDF      = "Selecione pelo menos 1 PDF para enviar."
	msgApenasPDF         = "Envie apenas arquivos PDF."
	msgCNESNaoEncontrado = "CNES não encontrado. Volte e selecione o estabelecimento."
	msgPreenchaCNES      = "Preencha o CNES para anexar o metadado ao PDF."
	msgEnviados          = "Arquivos enviados com sucesso!"
	msgEnvioArquivos     = "Erro ao enviar arquivos."
	msgArquivoGrande     = "Arquivo maior que o limite permitido."
	maxMultipartMemory   = 8 << 20
)

type uploadSlot struct {
	DocType uploads.DocType
	Label   string
	Enviado string
}

type uploadView struct {
	pageBase
	Action   string
	Reenvio  bool
	CNES     string
	Slots    []uploadSlot
	Uploaded []uploads.Uploaded
}

func (api *portalAPI) uploadView(st *wizard.State, reenvio bool) uploadView {
	view := uploadView{
		pageBase: pageBase{Title: "Envio dos Termos Assinados", Nivel: st.Nivel},
		Action:   "/upload",
		Reenvio:  reenvio,
		CNES:     uploads.ResolveCNES(st.CNESPrincipal, st.AcaoVagaResposta),
		Uploaded: st.Uploaded,
	}
	if reenvio {
		view.Title = "Reenvio de PDFs"
		view.Action = "/upload/reenvio"
	}
	for _, dt := range uploads.DocTypes {
		slot := uploadSlot{DocType: dt, Label: dt.Label()}
		for _, u := range st.Uploaded {
			if u.DocType == dt {
				slot.Enviado = u.Filename
			}
		}
		view.Slots = append(view.Slots, slot)
	}
	return view
}

func (api *portalAPI) handleUpload(w http.ResponseWriter, r *http.Request) {
	api.showUpload(w, r, false)
}

func (api *portalAPI) handleReenvio(w http.ResponseWriter, r *http.Request) {
	api.showUpload(w, r, true)
}

func (api *portalAPI) showUpload(w http.ResponseWriter, r *http.Request, reenvio bool) {
	sess, ok := api.session(w, r)
	if !ok {
		return
	}
	view := api.uploadView(&sess.State, reenvio)
	view.Flash = sess.State.PopFlash()
	if !api.save(w, r, sess) {
		return
	}
	api.render(w, r, http.StatusOK, "upload.html", view)
}

// handleEnviarUpload relays the signed PDFs with the CNES of the request.
func (api *portalAPI) handleEnviarUpload(w http.ResponseWriter, r *http.Request) {
	api.enviar(w, r, false)
}

// handleEnviarReenvio relays PDFs with a CNES typed by the user, tagging them
// as a metadata resend.
func (api *portalAPI) handleEnviarReenvio(w http.ResponseWriter, r *http.Request) {
	api.enviar(w, r, true)
}

type arquivoRecebido struct {
	docType uploads.DocType
	file    multipart.File
	header  *multipart.FileHeader
}

func (api *portalAPI) enviar(w http.ResponseWriter, r *http.Request, reenvio bool) {
	sess, ok := api.session(w, r)
	if !ok {
		return
	}
	st := &sess.State
	target := "/upload"
	if reenvio {
		target = "/upload/reenvio"
	}

	r.Body = http.MaxBytesReader(w, r.Body, api.cfg.UploadMaxBytes)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			api.fail(w, r, sess, target, msgArquivoGrande)
			return
		}
		if !errors.Is(err, http.ErrNotMultipart) {
			api.fail(w, r, sess, target, msgEnvioArquivos)
			return
		}
	}
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}

	var recebidos []arquivoRecebido
	for _, dt := range uploads.DocTypes {
		file, header, err := r.FormFile(string(dt))
		if err != nil {
			continue
		}
		defer file.Close()
		recebidos = append(recebidos, arquivoRecebido{docType: dt, file: file, header: header})
	}
	if len(recebidos) == 0 {
		api.fail(w, r, sess, target, msgSelecionePDF)
		return
	}
	for _, a := range recebidos {
		if !uploads.IsPDF(a.header.Filename, a.header.Header.Get("Content-Type")) {
			api.fail(w, r, sess, target, msgApenasPDF)
			return
		}
	}

	mode := ""
	var cnes string
	if reenvio {
		cnes = formValue(r, "cnes")
		if !uploads.IsValidUploadCNES(cnes) {
			api.fail(w, r, sess, target, msgPreenchaCNES)
			return
		}
		mode = uploads.ModeReenviarMetadado
	} else {
		cnes = uploads.ResolveCNES(st.CNESPrincipal, st.AcaoVagaResposta)
		if !uploads.IsValidUploadCNES(cnes) {
			api.fail(w, r, sess, target, msgCNESNaoEncontrado)
			return
		}
	}

	for _, a := range recebidos {
		filename, err := api.recursos.EnviarDocumento(r.Context(), recursos.Documento{
			DocType:          a.docType,
			Filename:         a.header.Filename,
			Body:             a.file,
			CNES:             cnes,
			GestorID:         st.GestorID,
			AcaoVagaResposta: st.AcaoVagaResposta,
			Mode:             mode,
		})
		if err != nil {
			api.fail(w, r, sess, target, api.userMessage(r, err, msgEnvioArquivos))
			return
		}
		if filename == "" {
			filename = a.header.Filename
		}
		st.MarkUploaded(uploads.Uploaded{DocType: a.docType, Filename: filename})
		api.audit.Record(r.Context(), r, auditlog.DocumentoEnviado(sess.ID, st.GestorID, string(a.docType), filename, cnes, mode))
	}
	if reenvio {
		st.CNESPrincipal = cnes
	}
	st.SetFlash(wizard.FlashSuccess, msgEnviados)
	api.redirect(w, r, sess, target)
}
