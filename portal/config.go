package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sgtes/maismedicos-go/internal/platform/env"
)

const (
	documentStoreMemory = "memory"
	documentStoreMinio  = "minio"
)

type portalConfig struct {
	MudancaCurso   bool
	UploadMaxBytes int64
	BrasaoPath     string
	CatalogPath    string
	DocumentStore  string
	AuditDatabase  bool
}

func portalConfigFromEnv() (portalConfig, error) {
	mudanca, err := env.Bool("MME_ENABLE_MUDANCA_CURSO", false)
	if err != nil {
		return portalConfig{}, err
	}
	uploadMaxMiB, err := env.Int("MME_UPLOAD_MAX_MIB", 20)
	if err != nil {
		return portalConfig{}, err
	}
	auditDB, err := env.Bool("MME_AUDIT_DATABASE", false)
	if err != nil {
		return portalConfig{}, err
	}
	cfg := portalConfig{
		MudancaCurso:   mudanca,
		UploadMaxBytes: int64(uploadMaxMiB) << 20,
		BrasaoPath:     strings.TrimSpace(env.String("MME_BRASAO_PATH", "")),
		CatalogPath:    strings.TrimSpace(env.String("MME_CLAUSULAS_PATH", "")),
		DocumentStore:  strings.ToLower(strings.TrimSpace(env.String("MME_DOCUMENT_STORE", documentStoreMemory))),
		AuditDatabase:  auditDB,
	}
	if err := cfg.Validate(); err != nil {
		return portalConfig{}, err
	}
	return cfg, nil
}

func (c portalConfig) Validate() error {
	if c.UploadMaxBytes <= 0 {
		return errors.New("MME_UPLOAD_MAX_MIB must be positive")
	}
	if c.DocumentStore != documentStoreMemory && c.DocumentStore != documentStoreMinio {
		return fmt.Errorf("MME_DOCUMENT_STORE must be %q or %q", documentStoreMemory, documentStoreMinio)
	}
	return nil
}
