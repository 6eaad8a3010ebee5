package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestScriptFileName(t *testing.T) {
	tests := []struct {
		topic    string
		provider string
		want     string
	}{
		{"Investir em ETFs", "openai", "roteiro-Investir-em-ETFs-openai.txt"},
		{"  Duplo   espaço ", "claude", "roteiro-Duplo-espaço-claude.txt"},
		{"Go", "gemini", "roteiro-Go-gemini.txt"},
	}

	for _, tt := range tests {
		if got := ScriptFileName(tt.topic, tt.provider); got != tt.want {
			t.Errorf("ScriptFileName(%q, %q) = %q, want %q", tt.topic, tt.provider, got, tt.want)
		}
	}
}

func TestLocalStorageSave(t *testing.T) {
	tmpDir := t.TempDir()
	s := NewLocalStorage(tmpDir)

	path, err := s.Save(context.Background(), "run-1/roteiro.txt", []byte("conteúdo"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if path != filepath.Join(tmpDir, "run-1", "roteiro.txt") {
		t.Errorf("Save() path = %q", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "conteúdo" {
		t.Errorf("content = %q", data)
	}
}

func TestLocalStorageSaveStaysInRoot(t *testing.T) {
	tmpDir := t.TempDir()
	s := NewLocalStorage(filepath.Join(tmpDir, "out"))

	path, err := s.Save(context.Background(), "../../escape.txt", []byte("x"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if path != filepath.Join(tmpDir, "out", "escape.txt") {
		t.Errorf("Save() path = %q, want inside output dir", path)
	}

	if _, err := s.Save(context.Background(), "/", []byte("x")); err == nil {
		t.Error("expected error for empty name")
	}
}

func TestCleanName(t *testing.T) {
	tests := map[string]string{
		"a/b.txt":     "a/b.txt",
		"/a/../b.txt": "b.txt",
		`a\b.txt`:     "a/b.txt",
		"":            "",
	}
	for in, want := range tests {
		if got := cleanName(in); got != want {
			t.Errorf("cleanName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestGCSObjectName(t *testing.T) {
	s := &GCSStorage{bucket: "b", prefix: "scripts/"}
	if got := s.objectName("run/roteiro.txt"); got != "scripts/run/roteiro.txt" {
		t.Errorf("objectName() = %q", got)
	}
	if got := contentType("x.mp3"); got != "audio/mpeg" {
		t.Errorf("contentType(mp3) = %q", got)
	}
	if got := contentType("x.json"); got != "application/json" {
		t.Errorf("contentType(json) = %q", got)
	}
}
