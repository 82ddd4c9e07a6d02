package auditlog

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/sgtes/maismedicos-go/internal/platform/auth"
)

// AuthNegado turns a refused admin request into an audit event.
func AuthNegado(event auth.DenyEvent) Event {
	actor := strings.TrimSpace(event.Subject)
	if actor == "" {
		actor = anonymous
	}
	var ip net.IP
	if host, _, err := net.SplitHostPort(event.RemoteAddr); err == nil {
		ip = net.ParseIP(host)
	}
	return Event{
		OccurredAt: event.Time,
		Action:     ActionAuthNegado,
		Actor:      actor,
		RequestID:  event.RequestID,
		IP:         ip,
		UserAgent:  event.UserAgent,
		Detail: map[string]any{
			"rota":   event.Method + " " + event.Path,
			"status": event.Status,
			"motivo": event.Reason,
			"erro":   event.Error,
			"email":  event.Email,
			"roles":  event.Roles,
		},
	}
}

// AuthDenyFunc adapts the recorder to the admin middleware. Only recorders
// with a database are useful there; inserts are bounded by timeout.
func (r Recorder) AuthDenyFunc(timeout time.Duration) auth.AuditFunc {
	if r.DB == nil {
		return nil
	}
	return func(ctx context.Context, event auth.DenyEvent) error {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		_, err := Insert(ctx, r.DB, AuthNegado(event))
		return err
	}
}
