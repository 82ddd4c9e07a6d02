package recursos

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/sgtes/maismedicos-go/internal/uploads"
)

// Documento is one signed PDF sent to the backend.
type Documento struct {
	DocType  uploads.DocType
	Filename string
	Body     io.Reader
	CNES     string
	GestorID int64
	// AcaoVagaResposta is the backend answer to the slot request, forwarded as is.
	AcaoVagaResposta json.RawMessage
	Mode             string
}

// EnviarDocumento posts one PDF as multipart form data and returns the name
// the backend stored it under.
func (c *Client) EnviarDocumento(ctx context.Context, d Documento) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, d.Filename))
	h.Set("Content-Type", "application/pdf")
	part, err := mw.CreatePart(h)
	if err != nil {
		return "", fmt.Errorf("create file part: %w", err)
	}
	if _, err := io.Copy(part, d.Body); err != nil {
		return "", fmt.Errorf("copy file part: %w", err)
	}

	fields := [][2]string{
		{"cnes", d.CNES},
		{"docType", string(d.DocType)},
	}
	if d.GestorID != 0 {
		fields = append(fields, [2]string{"gestorId", formatID(d.GestorID)})
	}
	if len(d.AcaoVagaResposta) > 0 {
		fields = append(fields, [2]string{"acaoVagaResposta", string(d.AcaoVagaResposta)})
	}
	if d.Mode != "" {
		fields = append(fields, [2]string{"mode", d.Mode})
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return "", fmt.Errorf("write field %s: %w", f[0], err)
		}
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/uploads", nil), &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, body, err := c.do(req)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = "Falha ao enviar " + string(d.DocType)
		}
		return "", &APIError{Status: resp.StatusCode, Message: msg}
	}
	var out struct {
		Filename string `json:"filename"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode upload answer: %w", err)
	}
	return out.Filename, nil
}

type uploadFileJSON struct {
	Filename  string     `json:"filename"`
	CNES      FlexString `json:"cnes"`
	SizeKB    float64    `json:"sizeKB"`
	CreatedAt string     `json:"createdAt"`
	URL       string     `json:"url"`
}

// ListarUploads lists every uploaded PDF.
func (c *Client) ListarUploads(ctx context.Context) ([]uploads.File, error) {
	var out struct {
		OK      *bool            `json:"ok"`
		Message string           `json:"message"`
		Files   []uploadFileJSON `json:"files"`
	}
	if err := c.getJSON(ctx, "/uploads", nil, &out); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Message == "" {
			apiErr.Message = "Erro ao listar PDFs."
		}
		return nil, err
	}
	if out.OK != nil && !*out.OK {
		msg := out.Message
		if msg == "" {
			msg = "Erro ao listar PDFs."
		}
		return nil, &APIError{Status: http.StatusOK, Message: msg}
	}

	files := make([]uploads.File, 0, len(out.Files))
	for _, f := range out.Files {
		files = append(files, uploads.File{
			Filename:  f.Filename,
			CNES:      strings.TrimSpace(string(f.CNES)),
			SizeKB:    f.SizeKB,
			CreatedAt: parseTime(f.CreatedAt),
			URL:       f.URL,
		})
	}
	return files, nil
}

func parseTime(v string) time.Time {
	v = strings.TrimSpace(v)
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Assinados returns the signed flag per stored filename. A failed answer is
// an empty map.
func (c *Client) Assinados(ctx context.Context) (map[string]bool, error) {
	var out struct {
		OK  bool            `json:"ok"`
		Map map[string]bool `json:"map"`
	}
	if err := c.getJSON(ctx, "/uploads/assinados", nil, &out); err != nil {
		return nil, err
	}
	if !out.OK || out.Map == nil {
		return map[string]bool{}, nil
	}
	return out.Map, nil
}

func (c *Client) MarcarAssinado(ctx context.Context, filename string, assinado bool) error {
	in := struct {
		Filename string `json:"filename"`
		Assinado bool   `json:"assinado"`
	}{Filename: filename, Assinado: assinado}
	resp, body, err := c.postJSON(ctx, "/uploads/assinados", in)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Message: jsonMessage(body)}
	}
	return nil
}

// Upload is an open download of a stored PDF. The caller closes Body.
type Upload struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
}

// AbrirUpload streams a stored PDF back from the backend.
func (c *Client) AbrirUpload(ctx context.Context, filename string) (*Upload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/uploads/"+url.PathEscape(filename), nil), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET /uploads: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return nil, &APIError{Status: resp.StatusCode, Message: jsonMessage(body)}
	}
	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = "application/pdf"
	}
	return &Upload{Body: resp.Body, ContentType: ct, ContentLength: resp.ContentLength}, nil
}
