package wizard

import (
	"encoding/json"

	"github.com/sgtes/maismedicos-go/internal/domain"
	"github.com/sgtes/maismedicos-go/internal/termo"
	"github.com/sgtes/maismedicos-go/internal/uploads"
)

const (
	FlashSuccess = "success"
	FlashError   = "error"
)

type Flash struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Documento points at a generated annex in the archive.
type Documento struct {
	Kind     string `json:"kind"`
	Filename string `json:"filename"`
	Key      string `json:"key"`
}

// State is everything the wizard remembers between pages.
type State struct {
	Nivel            domain.NivelGestao     `json:"nivelGestao,omitempty"`
	GestorID         int64                  `json:"gestorId,omitempty"`
	Gestor           *domain.Gestor         `json:"dadosGestor,omitempty"`
	Municipio        *domain.DadosMunicipio `json:"dadosMunicipio,omitempty"`
	Estado           *domain.DadosEstado    `json:"dadosEstado,omitempty"`
	Draft            domain.Draft           `json:"formVagas"`
	Ente             termo.Ente             `json:"ente"`
	AcaoVagaResposta json.RawMessage        `json:"acaoVagaResposta,omitempty"`
	CNESPrincipal    string                 `json:"cnesPrincipal,omitempty"`
	Documentos       []Documento            `json:"documentos,omitempty"`
	Uploaded         []uploads.Uploaded     `json:"uploadedFiles,omitempty"`
	Flash            *Flash                 `json:"flash,omitempty"`
}

func (s *State) GestorIdentificado() bool { return s.GestorID > 0 }

func (s *State) SetFlash(kind, message string) {
	s.Flash = &Flash{Kind: kind, Message: message}
}

// PopFlash returns the pending message once and clears it.
func (s *State) PopFlash() *Flash {
	f := s.Flash
	s.Flash = nil
	return f
}

func (s *State) Documento(kind string) (Documento, bool) {
	for _, d := range s.Documentos {
		if d.Kind == kind {
			return d, true
		}
	}
	return Documento{}, false
}

// MarkUploaded records a sent document, replacing an earlier one of the same type.
func (s *State) MarkUploaded(u uploads.Uploaded) {
	for i, prev := range s.Uploaded {
		if prev.DocType == u.DocType {
			s.Uploaded[i] = u
			return
		}
	}
	s.Uploaded = append(s.Uploaded, u)
}

// ResetAcao forgets the outcome of a finished request so a new one can start.
func (s *State) ResetAcao() {
	s.Draft = domain.Draft{}
	s.AcaoVagaResposta = nil
	s.CNESPrincipal = ""
	s.Documentos = nil
	s.Uploaded = nil
}
