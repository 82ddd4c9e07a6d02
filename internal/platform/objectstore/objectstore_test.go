package objectstore

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestConfigValidate_RejectsScheme(t *testing.T) {
	cfg := Config{
		Endpoint:     "http://minio:9000",
		AccessKey:    "a",
		SecretKey:    "b",
		Region:       "us-east-1",
		BucketTermos: "termos",
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("Validate() expected error for endpoint with scheme")
	}
	cfg.Endpoint = "minio:9000"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() err=%v", err)
	}
}

func TestConfigFromEnv_Defaults(t *testing.T) {
	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv() err=%v", err)
	}
	if cfg.BucketTermos != "termos" {
		t.Fatalf("BucketTermos=%q, want termos", cfg.BucketTermos)
	}
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	body := "%PDF-1.4 fake"
	if err := s.Put(ctx, "termos", "a/b.pdf", strings.NewReader(body), int64(len(body)), "application/pdf"); err != nil {
		t.Fatalf("Put() err=%v", err)
	}
	rc, info, err := s.Get(ctx, "termos", "a/b.pdf")
	if err != nil {
		t.Fatalf("Get() err=%v", err)
	}
	defer rc.Close()
	got, _ := io.ReadAll(rc)
	if string(got) != body {
		t.Fatalf("body=%q, want %q", got, body)
	}
	if info.ContentType != "application/pdf" || info.Size != int64(len(body)) || info.Key != "a/b.pdf" {
		t.Fatalf("info=%+v", info)
	}
}

func TestMemoryStore_RemovePrefix(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	for _, key := range []string{"termos/s1/u1/anexo-i.pdf", "termos/s1/u2/anexo-ii.pdf", "termos/s2/u3/anexo-i.pdf"} {
		if err := s.Put(ctx, "termos", key, strings.NewReader("%PDF"), 4, "application/pdf"); err != nil {
			t.Fatalf("Put(%s) err=%v", key, err)
		}
	}
	if err := s.Put(ctx, "outro", "termos/s1/x.pdf", strings.NewReader("%PDF"), 4, "application/pdf"); err != nil {
		t.Fatalf("Put() err=%v", err)
	}

	n, err := s.RemovePrefix(ctx, "termos", "termos/s1/")
	if err != nil || n != 2 {
		t.Fatalf("RemovePrefix()=%d,%v, want 2", n, err)
	}
	if _, _, err := s.Get(ctx, "termos", "termos/s1/u1/anexo-i.pdf"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get() err=%v, want ErrNotFound", err)
	}
	if _, _, err := s.Get(ctx, "termos", "termos/s2/u3/anexo-i.pdf"); err != nil {
		t.Fatalf("other session removed: %v", err)
	}
	if _, _, err := s.Get(ctx, "outro", "termos/s1/x.pdf"); err != nil {
		t.Fatalf("other bucket removed: %v", err)
	}
	if n, err := s.RemovePrefix(ctx, "termos", "termos/s9/"); err != nil || n != 0 {
		t.Fatalf("RemovePrefix(empty)=%d,%v, want 0", n, err)
	}
}

func TestMemoryStore_SizeMismatch(t *testing.T) {
	s := NewMemoryStore()
	if err := s.Put(context.Background(), "termos", "k", strings.NewReader("abc"), 10, ""); err == nil {
		t.Fatalf("Put() expected size mismatch error")
	}
}
