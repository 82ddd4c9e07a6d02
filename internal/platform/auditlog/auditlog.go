package auditlog

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// Action names one kind of portal event.
type Action string

const (
	ActionGestorValidado     Action = "gestor.validado"
	ActionAcaoVagasEnviada   Action = "acao_vagas.enviada"
	ActionTermosGerados      Action = "termos.gerados"
	ActionDocumentoEnviado   Action = "documento.enviado"
	ActionAssinaturaAlterada Action = "documento.assinatura_alterada"
	ActionAuthNegado         Action = "auth.negado"
)

const anonymous = "anonymous"

// Event is one row of audit_events. Wizard events carry the session and,
// once identified, the gestor; admin events carry the operator as Actor.
type Event struct {
	OccurredAt time.Time
	Action     Action
	Actor      string
	SessionID  string
	GestorID   int64
	CNES       string
	TipoAcao   string
	Documento  string
	RequestID  string
	IP         net.IP
	UserAgent  string
	Detail     map[string]any
}

type QueryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func gestorActor(gestorID int64) string {
	if gestorID <= 0 {
		return anonymous
	}
	return "gestor:" + strconv.FormatInt(gestorID, 10)
}

func GestorValidado(sessionID string, gestorID int64, nivel string) Event {
	return Event{
		Action:    ActionGestorValidado,
		Actor:     gestorActor(gestorID),
		SessionID: sessionID,
		GestorID:  gestorID,
		Detail:    map[string]any{"nivel_gestao": nivel},
	}
}

// AcaoVagasEnviada records a slot request accepted by the backend. cnes is
// the principal CNES the signed uploads will be tagged with.
func AcaoVagasEnviada(sessionID string, gestorID int64, tipoAcao, cnes string, vagas int, detail map[string]any) Event {
	d := map[string]any{"vagas": vagas}
	for k, v := range detail {
		d[k] = v
	}
	return Event{
		Action:    ActionAcaoVagasEnviada,
		Actor:     gestorActor(gestorID),
		SessionID: sessionID,
		GestorID:  gestorID,
		CNES:      cnes,
		TipoAcao:  tipoAcao,
		Detail:    d,
	}
}

func TermosGerados(sessionID string, gestorID int64, tipoAcao, cnes string, arquivos []string) Event {
	return Event{
		Action:    ActionTermosGerados,
		Actor:     gestorActor(gestorID),
		SessionID: sessionID,
		GestorID:  gestorID,
		CNES:      cnes,
		TipoAcao:  tipoAcao,
		Detail:    map[string]any{"arquivos": arquivos},
	}
}

// DocumentoEnviado records one signed PDF relayed to the backend. mode is
// empty for the regular upload and reenviar_metadado for resends.
func DocumentoEnviado(sessionID string, gestorID int64, docType, filename, cnes, mode string) Event {
	return Event{
		Action:    ActionDocumentoEnviado,
		Actor:     gestorActor(gestorID),
		SessionID: sessionID,
		GestorID:  gestorID,
		CNES:      cnes,
		Documento: filename,
		Detail:    map[string]any{"doc_type": docType, "mode": mode},
	}
}

// AssinaturaAlterada records an operator toggling the signed flag of an upload.
func AssinaturaAlterada(operador, filename, cnes string, assinado bool) Event {
	if strings.TrimSpace(operador) == "" {
		operador = anonymous
	}
	return Event{
		Action:    ActionAssinaturaAlterada,
		Actor:     operador,
		CNES:      cnes,
		Documento: filename,
		Detail:    map[string]any{"assinado": assinado},
	}
}

// Validate checks the fields each action is queried by.
func (e Event) Validate() error {
	if e.OccurredAt.IsZero() {
		return errors.New("OccurredAt is required")
	}
	if strings.TrimSpace(e.Actor) == "" {
		return errors.New("Actor is required")
	}
	switch e.Action {
	case ActionGestorValidado:
		if e.GestorID <= 0 {
			return errors.New("GestorID is required")
		}
	case ActionAcaoVagasEnviada, ActionTermosGerados:
		if strings.TrimSpace(e.TipoAcao) == "" {
			return errors.New("TipoAcao is required")
		}
	case ActionDocumentoEnviado:
		if strings.TrimSpace(e.CNES) == "" || strings.TrimSpace(e.Documento) == "" {
			return errors.New("CNES and Documento are required")
		}
	case ActionAssinaturaAlterada:
		if strings.TrimSpace(e.Documento) == "" {
			return errors.New("Documento is required")
		}
		return nil
	case ActionAuthNegado:
		return nil
	default:
		return fmt.Errorf("unknown action %q", e.Action)
	}
	if strings.TrimSpace(e.SessionID) == "" {
		return errors.New("SessionID is required")
	}
	return nil
}

const insertEventQuery = `INSERT INTO audit_events (
	occurred_at, action, actor, session_id, gestor_id, cnes, tipo_acao, documento,
	request_id, ip, user_agent, detail, integrity_sha256
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
RETURNING event_id`

func Insert(ctx context.Context, q QueryRower, event Event) (int64, error) {
	if q == nil {
		return 0, errors.New("queryer is required")
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	if err := event.Validate(); err != nil {
		return 0, fmt.Errorf("audit %s: %w", event.Action, err)
	}

	detail := event.Detail
	if detail == nil {
		detail = map[string]any{}
	}
	detailJSON, err := json.Marshal(detail)
	if err != nil {
		return 0, fmt.Errorf("marshal detail: %w", err)
	}
	integrity, err := ComputeIntegritySHA256(event, detailJSON)
	if err != nil {
		return 0, err
	}

	var gestorID sql.NullInt64
	if event.GestorID > 0 {
		gestorID = sql.NullInt64{Int64: event.GestorID, Valid: true}
	}
	var id int64
	err = q.QueryRowContext(ctx, insertEventQuery,
		event.OccurredAt.UTC(),
		string(event.Action),
		strings.TrimSpace(event.Actor),
		nullString(event.SessionID),
		gestorID,
		nullString(event.CNES),
		nullString(event.TipoAcao),
		nullString(event.Documento),
		nullString(event.RequestID),
		nullString(ipString(event.IP)),
		nullString(event.UserAgent),
		detailJSON,
		integrity,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert audit event: %w", err)
	}
	return id, nil
}

func nullString(v string) sql.NullString {
	v = strings.TrimSpace(v)
	return sql.NullString{String: v, Valid: v != ""}
}

func ipString(ip net.IP) string {
	if ip == nil {
		return ""
	}
	return ip.String()
}

// ComputeIntegritySHA256 hashes the stored columns so tampering with a row is
// detectable.
func ComputeIntegritySHA256(event Event, detailJSON []byte) (string, error) {
	in := struct {
		OccurredAt time.Time       `json:"occurred_at"`
		Action     string          `json:"action"`
		Actor      string          `json:"actor"`
		SessionID  string          `json:"session_id,omitempty"`
		GestorID   int64           `json:"gestor_id,omitempty"`
		CNES       string          `json:"cnes,omitempty"`
		TipoAcao   string          `json:"tipo_acao,omitempty"`
		Documento  string          `json:"documento,omitempty"`
		RequestID  string          `json:"request_id,omitempty"`
		IP         string          `json:"ip,omitempty"`
		UserAgent  string          `json:"user_agent,omitempty"`
		Detail     json.RawMessage `json:"detail"`
	}{
		OccurredAt: event.OccurredAt.UTC(),
		Action:     string(event.Action),
		Actor:      strings.TrimSpace(event.Actor),
		SessionID:  strings.TrimSpace(event.SessionID),
		GestorID:   event.GestorID,
		CNES:       strings.TrimSpace(event.CNES),
		TipoAcao:   strings.TrimSpace(event.TipoAcao),
		Documento:  strings.TrimSpace(event.Documento),
		RequestID:  strings.TrimSpace(event.RequestID),
		IP:         ipString(event.IP),
		UserAgent:  strings.TrimSpace(event.UserAgent),
		Detail:     detailJSON,
	}
	blob, err := json.Marshal(in)
	if err != nil {
		return "", fmt.Errorf("marshal integrity: %w", err)
	}
	sum := sha256.Sum256(blob)
	return hex.EncodeToString(sum[:]), nil
}
