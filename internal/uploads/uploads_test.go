package uploads

import (
	"encoding/json"
	"testing"
)

func TestIsPDF(t *testing.T) {
	cases := []struct {
		name, ct string
		want     bool
	}{
		{"termo.pdf", "", true},
		{"TERMO.PDF", "application/octet-stream", true},
		{"termo", "application/pdf", true},
		{"termo", "application/pdf; charset=binary", true},
		{"termo.docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document", false},
		{"", "", false},
	}
	for _, tc := range cases {
		if got := IsPDF(tc.name, tc.ct); got != tc.want {
			t.Fatalf("IsPDF(%q,%q)=%v, want %v", tc.name, tc.ct, got, tc.want)
		}
	}
}

func TestResolveCNES(t *testing.T) {
	cases := []struct {
		name     string
		direct   string
		resposta string
		want     string
	}{
		{name: "direct wins", direct: " 123 ", resposta: `{"cnes":"999"}`, want: "123"},
		{name: "top level", resposta: `{"cnes":" 0012345 "}`, want: "0012345"},
		{name: "numeric cnes", resposta: `{"cnes":2611606}`, want: "2611606"},
		{name: "first added row", resposta: `{"cursosAdicionar":[{"cnes":""},{"cnes":"555"}],"cursos":[{"cnes":"777"}]}`, want: "555"},
		{name: "snake case rows", resposta: `{"cursos_remover":[{"cnes":"444"}]}`, want: "444"},
		{name: "payload rows", resposta: `{"payload":{"cursosRemover":[{"cnes":"333"}]}}`, want: "333"},
		{name: "data rows before data cnes", resposta: `{"data":{"cursos":[{"cnes":"222"}],"cnes":"111"}}`, want: "222"},
		{name: "nested result", resposta: `{"result":{"cnes":"888"}}`, want: "888"},
		{name: "nested res", resposta: `{"res":{"cnes":"666"}}`, want: "666"},
		{name: "not json", resposta: `"texto"`, want: ""},
		{name: "empty", want: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ResolveCNES(tc.direct, json.RawMessage(tc.resposta)); got != tc.want {
				t.Fatalf("ResolveCNES()=%q, want %q", got, tc.want)
			}
		})
	}
}

func TestIsValidUploadCNES(t *testing.T) {
	if IsValidUploadCNES("   ") {
		t.Fatalf("blank CNES should be invalid")
	}
	if !IsValidUploadCNES("12") {
		t.Fatalf("short CNES is accepted for uploads")
	}
}
