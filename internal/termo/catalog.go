package termo

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed clausulas.yaml
var defaultCatalogYAML []byte

type Clausula struct {
	Titulo string `yaml:"titulo"`
	Texto  string `yaml:"texto"`
}

type anexoSpec struct {
	Titulo    string     `yaml:"titulo"`
	Abertura  string     `yaml:"abertura"`
	Preambulo string     `yaml:"preambulo"`
	Clausulas []Clausula `yaml:"clausulas"`
}

type catalogFile struct {
	AnexoI  anexoSpec `yaml:"anexo_i"`
	AnexoII anexoSpec `yaml:"anexo_ii"`
}

// Catalog holds the texts of both annexes with their templates parsed.
type Catalog struct {
	AnexoITitulo     string
	AnexoIClausulas  []Clausula
	AnexoIIClausulas []Clausula

	anexoIAbertura  *template.Template
	anexoIPreambulo *template.Template
	anexoIIAbertura *template.Template
}

// EnteData feeds the templated paragraphs.
type EnteData struct {
	NomeEnte      string
	CNPJ          string
	Sede          string
	Representacao string
}

func ParseCatalog(input []byte) (*Catalog, error) {
	var doc catalogFile
	if err := yaml.Unmarshal(input, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := doc.validate(); err != nil {
		return nil, err
	}

	c := &Catalog{
		AnexoITitulo:     strings.TrimSpace(doc.AnexoI.Titulo),
		AnexoIClausulas:  doc.AnexoI.Clausulas,
		AnexoIIClausulas: doc.AnexoII.Clausulas,
	}
	var err error
	if c.anexoIAbertura, err = parseTemplate("anexo_i.abertura", doc.AnexoI.Abertura); err != nil {
		return nil, err
	}
	if c.anexoIPreambulo, err = parseTemplate("anexo_i.preambulo", doc.AnexoI.Preambulo); err != nil {
		return nil, err
	}
	if c.anexoIIAbertura, err = parseTemplate("anexo_ii.abertura", doc.AnexoII.Abertura); err != nil {
		return nil, err
	}
	return c, nil
}

func (s catalogFile) validate() error {
	switch {
	case strings.TrimSpace(s.AnexoI.Titulo) == "":
		return errors.New("catalog: anexo_i.titulo is required")
	case strings.TrimSpace(s.AnexoI.Abertura) == "":
		return errors.New("catalog: anexo_i.abertura is required")
	case strings.TrimSpace(s.AnexoI.Preambulo) == "":
		return errors.New("catalog: anexo_i.preambulo is required")
	case strings.TrimSpace(s.AnexoII.Abertura) == "":
		return errors.New("catalog: anexo_ii.abertura is required")
	case len(s.AnexoI.Clausulas) == 0:
		return errors.New("catalog: anexo_i.clausulas is empty")
	case len(s.AnexoII.Clausulas) == 0:
		return errors.New("catalog: anexo_ii.clausulas is empty")
	}
	for i, cl := range append(append([]Clausula{}, s.AnexoI.Clausulas...), s.AnexoII.Clausulas...) {
		if strings.TrimSpace(cl.Titulo) == "" || strings.TrimSpace(cl.Texto) == "" {
			return fmt.Errorf("catalog: clause %d needs titulo and texto", i+1)
		}
	}
	return nil
}

func parseTemplate(name, src string) (*template.Template, error) {
	t, err := template.New(name).Option("missingkey=error").Parse(strings.TrimSpace(src))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	return t, nil
}

func execute(t *template.Template, data EnteData) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}

func (c *Catalog) AnexoIAbertura(d EnteData) (string, error)  { return execute(c.anexoIAbertura, d) }
func (c *Catalog) AnexoIPreambulo(d EnteData) (string, error) { return execute(c.anexoIPreambulo, d) }
func (c *Catalog) AnexoIIAbertura(d EnteData) (string, error) { return execute(c.anexoIIAbertura, d) }

// DefaultCatalog is the catalogue compiled into the binary.
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(defaultCatalogYAML)
	if err != nil {
		panic(err)
	}
	return c
}

// CatalogStore serves the current catalogue and swaps it atomically on reload.
type CatalogStore struct {
	path    string
	current atomic.Pointer[Catalog]
}

// NewCatalogStore starts from the embedded catalogue, or from path when set.
func NewCatalogStore(path string) (*CatalogStore, error) {
	s := &CatalogStore{path: strings.TrimSpace(path)}
	if s.path == "" {
		s.current.Store(DefaultCatalog())
		return s, nil
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *CatalogStore) Path() string { return s.path }

func (s *CatalogStore) Current() *Catalog {
	return s.current.Load()
}

// Reload reads the external file again. On error the previous catalogue stays.
func (s *CatalogStore) Reload() error {
	if s.path == "" {
		return nil
	}
	b, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("read catalog: %w", err)
	}
	c, err := ParseCatalog(b)
	if err != nil {
		return err
	}
	s.current.Store(c)
	return nil
}
