package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

var gestorOK = SubmitContext{GestorID: 42, GestorNome: "Ana", GestorCPF: "12345678901"}

func TestValidate_GestorFirst(t *testing.T) {
	d := &Draft{}
	if err := d.Validate(SubmitContext{}); !errors.Is(err, ErrGestorNaoIdentificado) {
		t.Fatalf("err=%v, want ErrGestorNaoIdentificado", err)
	}
	if err := d.Validate(SubmitContext{GestorID: 1, GestorNome: "Ana"}); !errors.Is(err, ErrGestorIncompleto) {
		t.Fatalf("err=%v, want ErrGestorIncompleto", err)
	}
}

func TestValidate_Order(t *testing.T) {
	cases := []struct {
		name  string
		draft func() *Draft
		want  string
	}{
		{
			name:  "no action",
			draft: func() *Draft { return &Draft{} },
			want:  "Selecione o tipo de ação.",
		},
		{
			name: "no municipality",
			draft: func() *Draft {
				d := &Draft{}
				d.SetTipoAcao(AcaoAumentar)
				d.SetUF("PE", "Pernambuco")
				return d
			},
			want: "Selecione UF e Município.",
		},
		{
			name: "withdrawal without course",
			draft: func() *Draft {
				return draftCom(AcaoDescredenciar)
			},
			want: "Selecione o aprimoramento.",
		},
		{
			name: "withdrawal without reason",
			draft: func() *Draft {
				d := draftCom(AcaoDescredenciar)
				_ = d.SelectCurso(Curso{ID: "c1", Nome: "Cardiologia"})
				return d
			},
			want: "Selecione o motivo.",
		},
		{
			name:  "standard without rows",
			draft: func() *Draft { return draftCom(AcaoAumentar) },
			want:  "Selecione ao menos um curso com quantidade maior que zero.",
		},
		{
			name:  "change without origin",
			draft: func() *Draft { return draftCom(AcaoMudanca) },
			want:  "Não há vagas solicitadas para mover. Selecione um curso solicitado para remover primeiro.",
		},
		{
			name: "change without destination",
			draft: func() *Draft {
				d := draftCom(AcaoMudanca)
				d.CarregarRemover([]Curso{{ID: "c1", Nome: "A", VagasSolicitadas: 2}})
				return d
			},
			want: "Adicione ao menos 1 vaga em um novo curso (destino).",
		},
		{
			name: "change with unbalanced totals",
			draft: func() *Draft {
				d := draftCom(AcaoMudanca)
				d.CarregarRemover([]Curso{{ID: "c1", Nome: "A", VagasSolicitadas: 2}})
				_ = d.AdicionarCurso(Curso{ID: "c2", Nome: "B", Vagas: 9}, 3)
				return d
			},
			want: "Mudança de curso precisa manter o total de vagas: remover=2 e adicionar=3.",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.draft().Validate(gestorOK)
			if err == nil || err.Error() != tc.want {
				t.Fatalf("err=%v, want %q", err, tc.want)
			}
		})
	}
}

func TestPayload_Standard(t *testing.T) {
	d := draftCom(AcaoAumentar)
	_ = d.AdicionarCurso(Curso{ID: "c1", Nome: "Cardiologia", VagasDisponiveisAumentar: 5}, 2)
	if err := d.Validate(gestorOK); err != nil {
		t.Fatalf("Validate() err=%v", err)
	}
	b, err := json.Marshal(d.Payload(42))
	if err != nil {
		t.Fatalf("Marshal() err=%v", err)
	}
	var got map[string]any
	_ = json.Unmarshal(b, &got)
	if got["gestorId"] != float64(42) || got["tipoAcao"] != "AUMENTAR_VAGAS" || got["municipio_id"] != float64(77) {
		t.Fatalf("payload=%s", b)
	}
	if _, ok := got["cnes"]; ok {
		t.Fatalf("standard payload should not carry cnes: %s", b)
	}
	cursos, _ := got["cursos"].([]any)
	if len(cursos) != 1 {
		t.Fatalf("cursos=%v", got["cursos"])
	}
	first := cursos[0].(map[string]any)
	if first["quantidade"] != float64(2) || first["cnes"] != "1234567" || first["estabelecimento"] != "Hospital A" {
		t.Fatalf("curso=%v", first)
	}
	if _, ok := first["operacao"]; ok {
		t.Fatalf("standard rows carry no operation: %v", first)
	}
}

func TestPayload_Descredenciar(t *testing.T) {
	d := draftCom(AcaoDescredenciar)
	_ = d.SelectCurso(Curso{ID: "c9", Nome: "Pediatria"})
	d.SetMotivo(MotivoFaltaDemanda)
	if err := d.Validate(gestorOK); err != nil {
		t.Fatalf("Validate() err=%v", err)
	}
	p := d.Payload(42)
	if p.CNES != "1234567" || p.CursoID != "c9" || p.MotivoDescredenciar != MotivoFaltaDemanda {
		t.Fatalf("payload=%+v", p)
	}
	if p.Cursos != nil {
		t.Fatalf("withdrawal carries no course list: %+v", p.Cursos)
	}
}

func TestPayload_Mudanca(t *testing.T) {
	d := draftCom(AcaoMudanca)
	d.CarregarRemover([]Curso{{ID: "c1", Nome: "A", Vagas: 4, VagasSolicitadas: 2}})
	_ = d.AdicionarCurso(Curso{ID: "c2", Nome: "B", Vagas: 9}, 2)
	if err := d.Validate(gestorOK); err != nil {
		t.Fatalf("Validate() err=%v", err)
	}
	p := d.Payload(42)
	if len(p.CursosRemover) != 1 || len(p.CursosAdicionar) != 1 || len(p.Cursos) != 2 {
		t.Fatalf("payload=%+v", p)
	}
	if p.Cursos[0].Operacao != OperacaoRemover || p.Cursos[1].Operacao != OperacaoAdicionar {
		t.Fatalf("cursos=%+v", p.Cursos)
	}
	if p.CursosRemover[0].Operacao != "" {
		t.Fatalf("split lists carry no operation: %+v", p.CursosRemover[0])
	}
}

func TestItens(t *testing.T) {
	d := draftCom(AcaoDescredenciar)
	d.SetMotivo(MotivoDesinteresse)
	itens := d.Itens()
	if len(itens) != 1 || itens[0].NomeCurso != "DESISTÊNCIA (desinteresse)" || itens[0].Vagas != 0 {
		t.Fatalf("itens=%+v", itens)
	}
	_ = d.SelectCurso(Curso{ID: "c1", Nome: "Pediatria"})
	if got := d.Itens()[0].NomeCurso; got != "DESISTÊNCIA - Pediatria (desinteresse)" {
		t.Fatalf("NomeCurso=%q", got)
	}

	m := draftCom(AcaoMudanca)
	m.CarregarRemover([]Curso{{ID: "c1", Nome: "A", VagasSolicitadas: 3}})
	_ = m.AdicionarCurso(Curso{ID: "c2", Nome: "B", Vagas: 9}, 3)
	itens = m.Itens()
	if len(itens) != 1 || itens[0].NomeCurso != "A" || itens[0].Vagas != 3 {
		t.Fatalf("change itens=%+v, want origin rows", itens)
	}

	a := draftCom(AcaoAumentar)
	_ = a.AdicionarCurso(Curso{ID: "c1", Nome: "C", VagasDisponiveisAumentar: 3}, 1)
	if itens := a.Itens(); len(itens) != 1 || itens[0].NomeEstabelecimento != "Hospital A" {
		t.Fatalf("itens=%+v", itens)
	}
}

func TestCNESPrincipal(t *testing.T) {
	d := draftCom(AcaoAumentar)
	if got := d.CNESPrincipal(); got != "1234567" {
		t.Fatalf("CNESPrincipal()=%q, want establishment fallback", got)
	}

	i := draftCom(AcaoIncluir)
	_, _ = i.AdicionarIncluir([]QuantidadeCurso{{Nome: "X", Quantidade: 1}})
	i.SelectEstabelecimento(Estabelecimento{ID: "2", CNES: " 7654321 "})
	if got := i.CNESPrincipal(); got != "1234567" {
		t.Fatalf("CNESPrincipal()=%q, want first added row", got)
	}

	empty := &Draft{TipoAcao: AcaoDescredenciar}
	if got := empty.CNESPrincipal(); got != "" {
		t.Fatalf("CNESPrincipal()=%q, want empty", got)
	}
}

func TestFieldErrorsMessage(t *testing.T) {
	err := FieldErrors{"b": "y", "a": "x"}
	if got := err.Error(); !strings.HasPrefix(got, "validation failed: a: x; b: y") {
		t.Fatalf("Error()=%q", got)
	}
}
