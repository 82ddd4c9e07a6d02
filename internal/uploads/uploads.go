package uploads

import (
	"encoding/json"
	"path"
	"strconv"
	"strings"
)

type DocType string

const (
	DocTermo   DocType = "termo"
	DocRecurso DocType = "recurso"
)

var DocTypes = []DocType{DocTermo, DocRecurso}

func (d DocType) Label() string {
	switch d {
	case DocTermo:
		return "Termo de Adesão (PDF)"
	case DocRecurso:
		return "Termo de Estabelecimento (PDF)"
	}
	return string(d)
}

// ModeReenviarMetadado tags uploads that only reattach a CNES to a document.
const ModeReenviarMetadado = "reenviar_metadado"

// IsPDF accepts a file when either its content type or its extension says PDF.
func IsPDF(filename, contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if ct == "application/pdf" {
		return true
	}
	return strings.EqualFold(path.Ext(strings.TrimSpace(filename)), ".pdf")
}

// Uploaded records one document accepted by the backend.
type Uploaded struct {
	DocType  DocType `json:"key"`
	Filename string  `json:"filename"`
}

// ResolveCNES picks the CNES attached to uploads. The value stored with the
// wizard wins; otherwise it is dug out of the backend response of the slot
// request. The value is trimmed and never normalized.
func ResolveCNES(direct string, resposta json.RawMessage) string {
	if v := strings.TrimSpace(direct); v != "" {
		return v
	}
	if len(resposta) == 0 {
		return ""
	}
	var obj map[string]any
	if err := json.Unmarshal(resposta, &obj); err != nil {
		return ""
	}

	if v := cnesOf(obj); v != "" {
		return v
	}

	candidates := []any{
		obj["cursosAdicionar"],
		obj["cursos_adicionar"],
		obj["cursos"],
		obj["cursosRemover"],
		obj["cursos_remover"],
		dig(obj, "payload", "cursos"),
		dig(obj, "payload", "cursosAdicionar"),
		dig(obj, "payload", "cursosRemover"),
		dig(obj, "data", "cursos"),
	}
	for _, c := range candidates {
		arr, ok := c.([]any)
		if !ok {
			continue
		}
		for _, item := range arr {
			if row, ok := item.(map[string]any); ok {
				if v := cnesOf(row); v != "" {
					return v
				}
			}
		}
	}

	for _, key := range []string{"data", "result", "res"} {
		if nested, ok := obj[key].(map[string]any); ok {
			if v := cnesOf(nested); v != "" {
				return v
			}
		}
	}
	return ""
}

// IsValidUploadCNES only requires a non-blank value.
func IsValidUploadCNES(v string) bool {
	return strings.TrimSpace(v) != ""
}

func dig(obj map[string]any, keys ...string) any {
	var cur any = obj
	for _, k := range keys {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[k]
	}
	return cur
}

func cnesOf(obj map[string]any) string {
	return strings.TrimSpace(scalarString(obj["cnes"]))
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return ""
}
