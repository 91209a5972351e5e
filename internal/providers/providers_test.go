package providers

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/osvaldoandrade/visiongo/pkg/domain"
)

func TestLocalLoaderReadsFiles(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, "dog.jpg"), []byte("jpeg bytes"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	loader := NewLocalLoader(tmpDir, 0)
	in, err := loader.Load(context.Background(), "dog.jpg", domain.WithInputID("dog-1"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if in.Kind != domain.InputImage {
		t.Errorf("Kind = %q, want image", in.Kind)
	}
	if string(in.Bytes) != "jpeg bytes" {
		t.Errorf("Bytes = %q", in.Bytes)
	}
	if in.ID != "dog-1" {
		t.Errorf("ID = %q, want dog-1", in.ID)
	}
}

func TestLocalLoaderDetectsVideo(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "clip.MP4")
	if err := os.WriteFile(path, []byte("video"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	in, err := NewLocalLoader("", 0).Load(context.Background(), "file://"+path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if in.Kind != domain.InputVideo {
		t.Errorf("Kind = %q, want video", in.Kind)
	}
}

func TestLocalLoaderKeepsURLs(t *testing.T) {
	loader := NewLocalLoader(t.TempDir(), 0)

	in, err := loader.Load(context.Background(), "https://samples.example.com/a.jpg")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if in.URL != "https://samples.example.com/a.jpg" || len(in.Bytes) != 0 {
		t.Errorf("unexpected input %+v", in)
	}

	in, err = loader.Load(context.Background(), "https://samples.example.com/b.mov?sig=1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if in.Kind != domain.InputVideo {
		t.Errorf("Kind = %q, want video", in.Kind)
	}
}

func TestLocalLoaderErrors(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, "big.jpg"), make([]byte, 32), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	loader := NewLocalLoader(tmpDir, 16)

	for _, source := range []string{"", "missing.jpg", ".", "big.jpg"} {
		if _, err := loader.Load(context.Background(), source); err == nil {
			t.Errorf("Load(%q) expected error", source)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := loader.Load(ctx, "https://x/a.jpg"); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestIsRemote(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"https://a/b.jpg", true},
		{"http://a", true},
		{"file:///tmp/a.jpg", false},
		{"./a.jpg", false},
		{"https://", false},
	}
	for _, tt := range tests {
		if got := IsRemote(tt.in); got != tt.want {
			t.Errorf("IsRemote(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
