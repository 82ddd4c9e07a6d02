package recursos

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sgtes/maismedicos-go/internal/domain"
	"github.com/sgtes/maismedicos-go/internal/platform/cache"
	"github.com/sgtes/maismedicos-go/internal/uploads"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(Config{BaseURL: srv.URL, Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}
	return c
}

func TestConfigValidate(t *testing.T) {
	cases := []Config{
		{BaseURL: "", Timeout: time.Second},
		{BaseURL: "ftp://api", Timeout: time.Second},
		{BaseURL: "http://", Timeout: time.Second},
		{BaseURL: "http://api:3000", Timeout: 0},
	}
	for _, cfg := range cases {
		if err := cfg.Validate(); err == nil {
			t.Fatalf("Validate(%+v) expected error", cfg)
		}
	}
	if err := (Config{BaseURL: "http://localhost:3000", Timeout: time.Second}).Validate(); err != nil {
		t.Fatalf("Validate() err=%v", err)
	}
}

func TestFlexInt(t *testing.T) {
	cases := map[string]int{
		`7`:     7,
		`"12"`:  12,
		`" 3 "`: 3,
		`"abc"`: 0,
		`""`:    0,
		`null`:  0,
		`4.9`:   4,
		`"2.0"`: 2,
		`true`:  0,
		`"1e2"`: 100,
		`"-5"`:  -5,
		`"NaN"`: 0,
	}
	for in, want := range cases {
		var f FlexInt
		if err := json.Unmarshal([]byte(in), &f); err != nil {
			t.Fatalf("Unmarshal(%s) err=%v", in, err)
		}
		if int(f) != want {
			t.Fatalf("FlexInt(%s)=%d, want %d", in, f, want)
		}
	}
}

func TestCursos_NormalizesBalances(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/estabelecimentos/cursos" || r.URL.Query().Get("estabelecimento_id") != "10" {
			t.Errorf("unexpected request %s", r.URL)
		}
		_, _ = io.WriteString(w, `{"rows":[
			{"id":1,"nome":"Cardiologia","vagas":"8","vagas_disponiveis":"5","vagas_solicitadas":"3"},
			{"id":"2","nome":"Pediatria","vagas":4,"vagasDisponiveisAumentar":null,"saldo_aumentar":"2","vagasSolicitadas":1},
			{"id":"3","nome":"Neuro","vagas":"x"}
		]}`)
	}))

	cursos, err := c.Cursos(context.Background(), "10")
	if err != nil {
		t.Fatalf("Cursos() err=%v", err)
	}
	if len(cursos) != 3 {
		t.Fatalf("len=%d, want 3", len(cursos))
	}
	first := cursos[0]
	if first.ID != "1" || first.Vagas != 8 || first.VagasDisponiveisAumentar != 5 || first.VagasSolicitadas != 3 {
		t.Fatalf("first=%+v", first)
	}
	if cursos[1].VagasDisponiveisAumentar != 2 || cursos[1].VagasSolicitadas != 1 {
		t.Fatalf("second=%+v", cursos[1])
	}
	if cursos[2].Vagas != 0 || cursos[2].VagasDisponiveisAumentar != 0 {
		t.Fatalf("third=%+v", cursos[2])
	}
}

func TestCursos_BareArray(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"id":"9","nome":"Ortopedia","vagas":2}]`)
	}))
	cursos, err := c.Cursos(context.Background(), "1")
	if err != nil || len(cursos) != 1 || cursos[0].Nome != "Ortopedia" {
		t.Fatalf("Cursos()=%+v err=%v", cursos, err)
	}
}

func TestEstabelecimentos_Query(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("municipio_id") != "77" || q.Get("status_adesao") != "ADERIDO" || q.Get("nivel_gestao") != "ESTADUAL" {
			t.Errorf("query=%v", q)
		}
		_, _ = io.WriteString(w, `[{"id":10,"nome":"Hospital A","cnes":1234567,"nivel_gestao":"ESTADUAL","diretor_nome":"Dra. Maria"}]`)
	}))
	list, err := c.Estabelecimentos(context.Background(), EstabelecimentosQuery{MunicipioID: 77, StatusAdesao: "ADERIDO", NivelGestao: domain.NivelEstadual})
	if err != nil {
		t.Fatalf("Estabelecimentos() err=%v", err)
	}
	if len(list) != 1 || list[0].ID != "10" || list[0].CNES != "1234567" || list[0].DiretorNome != "Dra. Maria" {
		t.Fatalf("list=%+v", list)
	}
}

func TestMunicipios_Status(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("uf") != "PE" || q.Get("estabelecimento_status") != "NAO_ADERIDO" {
			t.Errorf("query=%v", q)
		}
		_, _ = io.WriteString(w, `[{"nome":"Recife","ibge":"2611606","municipio_id":"77"}]`)
	}))
	list, err := c.Municipios(context.Background(), "PE", "NAO_ADERIDO")
	if err != nil || len(list) != 1 || list[0].MunicipioID != 77 || list[0].IBGE != "2611606" {
		t.Fatalf("Municipios()=%+v err=%v", list, err)
	}
}

func TestValidarGestor(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		wantID  int64
		wantErr string
	}{
		{name: "ok", status: 200, body: `{"ok":true,"gestor":{"id":"42","nome":"Ana"}}`, wantID: 42},
		{name: "missing id", status: 200, body: `{"ok":true}`, wantErr: "API não retornou gestorId"},
		{name: "error field", status: 400, body: `{"error":"CPF já cadastrado"}`, wantErr: "CPF já cadastrado"},
		{name: "errors list", status: 422, body: `{"errors":[{"message":"E-mail inválido"}]}`, wantErr: "E-mail inválido"},
		{name: "fallback", status: 500, body: `oops`, wantErr: "Erro ao validar/criar gestor"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var g domain.Gestor
				if err := json.NewDecoder(r.Body).Decode(&g); err != nil || g.CPF != "12345678901" {
					t.Errorf("body=%+v err=%v", g, err)
				}
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			}))
			id, err := c.ValidarGestor(context.Background(), domain.NewGestor("Ana", "123.456.789-01", "ana@saude.gov.br"))
			if tc.wantErr == "" {
				if err != nil || id != tc.wantID {
					t.Fatalf("ValidarGestor()=%d,%v, want %d", id, err, tc.wantID)
				}
				return
			}
			if got := UserMessage(err, err.Error()); got != tc.wantErr {
				t.Fatalf("message=%q, want %q", got, tc.wantErr)
			}
		})
	}
}

func validPayload() domain.AcaoVagasPayload {
	return domain.AcaoVagasPayload{
		GestorID:             42,
		TipoAcao:             domain.AcaoAumentar,
		UFSelecionada:        "PE",
		MunicipioID:          77,
		MunicipioSelecionado: "Recife",
		Cursos: []domain.CursoPayload{
			{ID: "c1", Nome: "Cardiologia", Quantidade: 2, CNES: "1234567", Estabelecimento: "Hospital A"},
		},
	}
}

func TestEnviarAcaoVagas_ContractRejectsBeforeSending(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	p := validPayload()
	p.MunicipioID = 0
	_, err := c.EnviarAcaoVagas(context.Background(), p)
	var ce *ContractError
	if !errors.As(err, &ce) {
		t.Fatalf("err=%v, want ContractError", err)
	}
	if calls.Load() != 0 {
		t.Fatalf("calls=%d, want 0", calls.Load())
	}
	if got := UserMessage(err, "x"); got != "Solicitação inválida. Revise os dados e tente novamente." {
		t.Fatalf("UserMessage()=%q", got)
	}
}

func TestEnviarAcaoVagas_Answers(t *testing.T) {
	cases := []struct {
		name     string
		status   int
		ct       string
		body     string
		wantData string
		wantErr  string
	}{
		{name: "json", status: 201, ct: "application/json", body: `{"id":5,"cnes":"1234567"}`, wantData: `{"id":5,"cnes":"1234567"}`},
		{name: "text", status: 200, ct: "text/plain", body: `registrado`, wantData: `"registrado"`},
		{name: "text error", status: 400, ct: "text/plain", body: `saldo insuficiente`, wantErr: "saldo insuficiente"},
		{name: "json error", status: 409, ct: "application/json; charset=utf-8", body: `{"message":"duplicado"}`, wantErr: "duplicado"},
		{name: "empty error", status: 500, ct: "application/json", body: `{}`, wantErr: "Erro ao enviar solicitação"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/recursos/acoes-vagas" {
					t.Errorf("path=%s", r.URL.Path)
				}
				w.Header().Set("Content-Type", tc.ct)
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			}))
			data, err := c.EnviarAcaoVagas(context.Background(), validPayload())
			if tc.wantErr != "" {
				if got := UserMessage(err, ""); got != tc.wantErr {
					t.Fatalf("message=%q, want %q", got, tc.wantErr)
				}
				return
			}
			if err != nil || string(data) != tc.wantData {
				t.Fatalf("data=%s err=%v, want %s", data, err, tc.wantData)
			}
		})
	}
}

func TestContract_Shapes(t *testing.T) {
	contract, err := LoadContract()
	if err != nil {
		t.Fatalf("LoadContract() err=%v", err)
	}

	withdraw := domain.AcaoVagasPayload{
		GestorID: 1, TipoAcao: domain.AcaoDescredenciar, MotivoDescredenciar: domain.MotivoDesinteresse,
		UFSelecionada: "PE", MunicipioID: 7, MunicipioSelecionado: "Recife", CNES: "1234567", CursoID: "c1",
	}
	if err := contract.ValidateAcaoVagas(withdraw); err != nil {
		t.Fatalf("withdrawal err=%v", err)
	}

	bad := validPayload()
	bad.Cursos[0].Quantidade = 0
	if err := contract.ValidateAcaoVagas(bad); err == nil {
		t.Fatalf("zero quantity should violate the contract")
	}

	bad = validPayload()
	bad.TipoAcao = "OUTRA"
	if err := contract.ValidateAcaoVagas(bad); err == nil {
		t.Fatalf("unknown action should violate the contract")
	}
}

func TestEnviarDocumento(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm() err=%v", err)
		}
		if r.FormValue("cnes") != "1234567" || r.FormValue("docType") != "termo" || r.FormValue("gestorId") != "42" || r.FormValue("mode") != uploads.ModeReenviarMetadado {
			t.Errorf("form=%v", r.MultipartForm.Value)
		}
		if r.FormValue("acaoVagaResposta") != `{"ok":true}` {
			t.Errorf("acaoVagaResposta=%q", r.FormValue("acaoVagaResposta"))
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile() err=%v", err)
		} else {
			b, _ := io.ReadAll(f)
			if hdr.Filename != "termo.pdf" || string(b) != "%PDF-1.4" {
				t.Errorf("file=%s %q", hdr.Filename, b)
			}
		}
		_, _ = io.WriteString(w, `{"filename":"termo__CNES-1234567.pdf"}`)
	}))
	name, err := c.EnviarDocumento(context.Background(), Documento{
		DocType:          uploads.DocTermo,
		Filename:         "termo.pdf",
		Body:             strings.NewReader("%PDF-1.4"),
		CNES:             "1234567",
		GestorID:         42,
		AcaoVagaResposta: json.RawMessage(`{"ok":true}`),
		Mode:             uploads.ModeReenviarMetadado,
	})
	if err != nil || name != "termo__CNES-1234567.pdf" {
		t.Fatalf("EnviarDocumento()=%q,%v", name, err)
	}
}

func TestEnviarDocumento_ErrorFallback(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	_, err := c.EnviarDocumento(context.Background(), Documento{DocType: uploads.DocRecurso, Filename: "a.pdf", Body: strings.NewReader("x"), CNES: "1"})
	if got := UserMessage(err, ""); got != "Falha ao enviar recurso" {
		t.Fatalf("message=%q", got)
	}
}

func TestListarUploads(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"ok":true,"total":1,"files":[{"filename":"a.pdf","cnes":123,"sizeKB":10.5,"createdAt":"2026-01-10T12:00:00.000Z","url":"/uploads/a.pdf"}]}`)
	}))
	files, err := c.ListarUploads(context.Background())
	if err != nil || len(files) != 1 {
		t.Fatalf("ListarUploads()=%+v err=%v", files, err)
	}
	if files[0].CNES != "123" || files[0].CreatedAt.IsZero() {
		t.Fatalf("file=%+v", files[0])
	}
}

func TestListarUploads_NotOK(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"ok":false}`)
	}))
	_, err := c.ListarUploads(context.Background())
	if got := UserMessage(err, ""); got != "Erro ao listar PDFs." {
		t.Fatalf("message=%q", got)
	}
}

func TestAssinadosAndMarcar(t *testing.T) {
	var posted atomic.Value
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			b, _ := io.ReadAll(r.Body)
			posted.Store(string(b))
			_, _ = io.WriteString(w, `{"ok":true}`)
			return
		}
		_, _ = io.WriteString(w, `{"ok":true,"map":{"a.pdf":true}}`)
	}))
	m, err := c.Assinados(context.Background())
	if err != nil || !m["a.pdf"] {
		t.Fatalf("Assinados()=%v err=%v", m, err)
	}
	if err := c.MarcarAssinado(context.Background(), "b.pdf", true); err != nil {
		t.Fatalf("MarcarAssinado() err=%v", err)
	}
	if got := posted.Load(); got != `{"filename":"b.pdf","assinado":true}` {
		t.Fatalf("posted=%v", got)
	}
}

func TestAbrirUpload(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/uploads/termo a.pdf" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = io.WriteString(w, "%PDF")
	}))
	up, err := c.AbrirUpload(context.Background(), "termo a.pdf")
	if err != nil {
		t.Fatalf("AbrirUpload() err=%v", err)
	}
	defer up.Body.Close()
	b, _ := io.ReadAll(up.Body)
	if string(b) != "%PDF" || up.ContentType != "application/pdf" {
		t.Fatalf("body=%q ct=%s", b, up.ContentType)
	}

	if _, err := c.AbrirUpload(context.Background(), "outro.pdf"); err == nil {
		t.Fatalf("missing upload should fail")
	}
}

func TestCached_ServesFromCache(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = io.WriteString(w, `[{"uf":"PE","nome":"Pernambuco","ibge":26}]`)
	}))
	cc := NewCached(c, cache.NewMemoryCache(), time.Minute, nil)
	for range 3 {
		list, err := cc.Estados(context.Background())
		if err != nil || len(list) != 1 || list[0].IBGE != "26" {
			t.Fatalf("Estados()=%+v err=%v", list, err)
		}
	}
	if calls.Load() != 1 {
		t.Fatalf("calls=%d, want 1", calls.Load())
	}
}

func TestCached_EstabelecimentosPorMunicipio(t *testing.T) {
	var inFlight, peak atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		if r.URL.Query().Get("municipio_id") == "3" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = io.WriteString(w, `[{"id":1,"nome":"H","cnes":"1"}]`)
	}))
	cc := NewCached(c, nil, 0, nil)
	ids := []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	got := cc.EstabelecimentosPorMunicipio(context.Background(), ids)
	if len(got) != len(ids) {
		t.Fatalf("len=%d, want %d", len(got), len(ids))
	}
	if list, ok := got[3]; !ok || len(list) != 0 {
		t.Fatalf("failed municipality=%v,%v, want empty list", list, ok)
	}
	if len(got[1]) != 1 {
		t.Fatalf("got[1]=%v", got[1])
	}
	if peak.Load() > FetchConcurrency {
		t.Fatalf("peak=%d, want <= %d", peak.Load(), FetchConcurrency)
	}
}
