package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/sgtes/maismedicos-go/internal/platform/env"
	"github.com/sgtes/maismedicos-go/internal/wizard"
)

func run(t *testing.T, stdin io.Reader, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	if stdin != nil {
		cmd.SetIn(stdin)
	}
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestTermoAnexoIWritesPDF(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "anexo.json")
	data := `{"tipoacao":"aumentar","totalvagas":3,"nomeente":"Prefeitura de Campinas","cnpj":"12.345.678/0001-90",
		"gestornome":"Maria","gestorcpf":"529.982.247-25","dia":"01","mes":"março","ano":"2026",
		"aprimoramentos":[{"nomecurso":"Cardiologia","cnes":"1234567","vagas":3}]}`
	if err := os.WriteFile(input, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	output := filepath.Join(dir, "anexo-i.pdf")

	if _, err := run(t, nil, "termo", "anexo-i", "--input", input, "--output", output); err != nil {
		t.Fatalf("anexo-i: %v", err)
	}
	b, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.HasPrefix(b, []byte("%PDF")) {
		t.Fatalf("output is not a PDF: %q", b[:min(len(b), 16)])
	}
}

func TestTermoAnexoIIToStdout(t *testing.T) {
	data := `{"nomeente":"Prefeitura de Campinas","tipoacao":"aumentar",
		"estabelecimentos":[{"nomeestabelecimento":"Hospital Central","cnes":"1234567"}],
		"dia":"01","mes":"março","ano":"2026"}`
	out, err := run(t, strings.NewReader(data), "termo", "anexo-ii", "-i", "-", "-o", "-")
	if err != nil {
		t.Fatalf("anexo-ii: %v", err)
	}
	if !strings.HasPrefix(out, "%PDF") {
		t.Fatalf("stdout is not a PDF")
	}
}

func TestTermoRejectsInvalidJSON(t *testing.T) {
	_, err := run(t, strings.NewReader("{"), "termo", "anexo-i", "-i", "-", "-o", "-")
	if err == nil || !strings.Contains(err.Error(), "decode") {
		t.Fatalf("err=%v, want decode error", err)
	}
}

func TestTermoRequiresFlags(t *testing.T) {
	if _, err := run(t, nil, "termo", "anexo-i"); err == nil {
		t.Fatalf("expected missing flag error")
	}
}

func uploadsBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /uploads", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"ok":true,"files":[
			{"filename":"1234567_termo.pdf","cnes":"1234567","sizeKB":12.5},
			{"filename":"7654321_recurso.pdf","cnes":7654321,"sizeKB":3},
			{"filename":"0000001_outro.pdf","cnes":"1","sizeKB":1}
		]}`)
	})
	mux.HandleFunc("GET /uploads/assinados", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"ok":true,"map":{"1234567_termo.pdf":true}}`)
	})
	mux.HandleFunc("GET /localidades/municipios", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("uf") != "SP" {
			_, _ = io.WriteString(w, `[]`)
			return
		}
		_, _ = io.WriteString(w, `[{"nome":"Campinas","ibge":"3509502","municipio_id":77},{"nome":"Santos","ibge":"3548500","municipio_id":78}]`)
	})
	mux.HandleFunc("GET /estabelecimentos", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("municipio_id") {
		case "77":
			_, _ = io.WriteString(w, `[{"id":10,"nome":"Hospital Central","cnes":"1234567"}]`)
		case "78":
			_, _ = io.WriteString(w, `[{"id":11,"nome":"Santa Casa","cnes":"7654321"}]`)
		default:
			_, _ = io.WriteString(w, `[]`)
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	t.Setenv("MME_API_URL", srv.URL)
	return srv
}

func TestUploadsPendentes(t *testing.T) {
	uploadsBackend(t)

	out, err := run(t, nil, "uploads", "pendentes")
	if err != nil {
		t.Fatalf("pendentes: %v", err)
	}
	if out != "0000001\n7654321\n" {
		t.Fatalf("out=%q, want the two unsigned CNES", out)
	}
}

func TestUploadsPendentesPorUF(t *testing.T) {
	uploadsBackend(t)

	out, err := run(t, nil, "uploads", "pendentes", "--uf", " sp ", "--json")
	if err != nil {
		t.Fatalf("pendentes: %v", err)
	}
	var got struct {
		UF      string   `json:"uf"`
		Total   int      `json:"total"`
		Pending int      `json:"pending"`
		CNES    []string `json:"cnes"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if got.UF != "SP" || got.Total != 3 || got.Pending != 1 || len(got.CNES) != 1 || got.CNES[0] != "7654321" {
		t.Fatalf("summary=%+v", got)
	}
}

func TestUploadsPendentesUFSemEstabelecimentos(t *testing.T) {
	uploadsBackend(t)

	out, err := run(t, nil, "uploads", "pendentes", "--uf", "RJ")
	if err != nil || out != "" {
		t.Fatalf("out=%q err=%v, want empty output", out, err)
	}
}

func TestUploadsPendentesUFSemEstabelecimentosJSON(t *testing.T) {
	uploadsBackend(t)

	out, err := run(t, nil, "uploads", "pendentes", "--uf", "RJ", "--json")
	if err != nil {
		t.Fatalf("pendentes: %v", err)
	}
	var got struct {
		UF      string   `json:"uf"`
		Total   int      `json:"total"`
		Pending int      `json:"pending"`
		CNES    []string `json:"cnes"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if got.UF != "RJ" || got.Total != 3 || got.Pending != 0 || got.CNES == nil || len(got.CNES) != 0 {
		t.Fatalf("summary=%+v, want empty cnes list", got)
	}
	if !strings.Contains(out, `"cnes": []`) {
		t.Fatalf("out=%q, want cnes as empty array", out)
	}
}

func TestUploadsPendentesBackendDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)
	t.Setenv("MME_API_URL", srv.URL)

	if _, err := run(t, nil, "uploads", "pendentes"); err == nil || !strings.Contains(err.Error(), "listar uploads") {
		t.Fatalf("err=%v, want listar uploads error", err)
	}
}

func TestPurgeReportsCount(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	store := wizard.NewMemoryStore()
	_ = store.Save(ctx, "old", wizard.State{}, now.Add(-time.Minute))
	_ = store.Save(ctx, "live", wizard.State{}, now.Add(time.Hour))

	cmd := &cobra.Command{}
	cmd.SetContext(ctx)
	var out bytes.Buffer
	cmd.SetOut(&out)

	n, err := purge(cmd, store, now)
	if err != nil || n != 1 {
		t.Fatalf("purged=%d err=%v, want 1", n, err)
	}
	if !strings.HasPrefix(out.String(), "1 ") {
		t.Fatalf("out=%q", out.String())
	}
}

func TestConfigFlagLoadsFile(t *testing.T) {
	dir := t.TempDir()
	srv := uploadsBackend(t)
	t.Setenv("MME_API_URL", "")
	_ = os.Unsetenv("MME_API_URL")
	t.Cleanup(env.ResetFile)
	cfg := filepath.Join(dir, "mme.toml")
	if err := os.WriteFile(cfg, []byte("MME_API_URL = \""+srv.URL+"\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := run(t, nil, "--config", cfg, "uploads", "pendentes")
	if err != nil {
		t.Fatalf("pendentes: %v", err)
	}
	if !strings.Contains(out, "7654321") {
		t.Fatalf("out=%q", out)
	}
}
