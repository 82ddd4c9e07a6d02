package auditlog

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
)

// Recorder writes portal events to audit_events. A Recorder without a queryer
// only logs, so the portal keeps working when audit storage is not configured.
type Recorder struct {
	Logger *slog.Logger
	DB     QueryRower
}

func (r Recorder) Record(ctx context.Context, req *http.Request, event Event) {
	if req != nil {
		if event.RequestID == "" {
			event.RequestID = req.Header.Get("X-Request-Id")
		}
		if event.UserAgent == "" {
			event.UserAgent = req.UserAgent()
		}
		if event.IP == nil {
			event.IP = RemoteIP(req)
		}
	}
	if r.DB == nil {
		if r.Logger != nil {
			r.Logger.Info("audit event",
				"action", string(event.Action),
				"actor", event.Actor,
				"session_id", event.SessionID,
				"cnes", event.CNES,
				"tipo_acao", event.TipoAcao,
				"documento", event.Documento,
				"request_id", event.RequestID,
			)
		}
		return
	}
	if _, err := Insert(ctx, r.DB, event); err != nil && r.Logger != nil {
		r.Logger.Warn("audit insert failed", "action", string(event.Action), "request_id", event.RequestID, "error", err)
	}
}

// RemoteIP returns the client address, honouring the first X-Forwarded-For hop.
func RemoteIP(r *http.Request) net.IP {
	if xff := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); xff != "" {
		first := strings.TrimSpace(strings.Split(xff, ",")[0])
		if ip := net.ParseIP(first); ip != nil {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return net.ParseIP(strings.TrimSpace(r.RemoteAddr))
	}
	return net.ParseIP(host)
}
