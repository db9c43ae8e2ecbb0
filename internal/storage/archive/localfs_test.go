package archive

import (
	"context"
	"errors"
	"testing"
)

func TestLocalFS_ImplementsStorage(t *testing.T) {
	var _ Storage = (*LocalFS)(nil)
}

func TestLocalFS_WriteRead(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewLocalFS(dir)
	if err != nil {
		t.Fatalf("NewLocalFS: %v", err)
	}

	ctx := context.Background()
	data := []byte(`{"symbol":"PETR4"}`)

	if err := fs.Write(ctx, "reports/PETR4/a.json", data); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := fs.Read(ctx, "reports/PETR4/a.json")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	if string(got) != string(data) {
		t.Errorf("got %q, want %q", got, data)
	}
}

func TestLocalFS_ReadMissing(t *testing.T) {
	fs, _ := NewLocalFS(t.TempDir())

	_, err := fs.Read(context.Background(), "missing.json")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLocalFS_PathStaysUnderBase(t *testing.T) {
	dir := t.TempDir()
	fs, _ := NewLocalFS(dir)
	ctx := context.Background()

	if err := fs.Write(ctx, "../../escape.json", []byte("x")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	exists, _ := fs.Exists(ctx, "escape.json")
	if !exists {
		t.Error("expected the write to land inside the base path")
	}

	if err := fs.Write(ctx, "/", []byte("x")); err == nil {
		t.Error("expected error for root path")
	}
}

func TestLocalFS_Exists(t *testing.T) {
	dir := t.TempDir()
	fs, _ := NewLocalFS(dir)
	ctx := context.Background()

	exists, _ := fs.Exists(ctx, "nonexistent.txt")
	if exists {
		t.Error("expected false for nonexistent file")
	}

	fs.Write(ctx, "exists.txt", []byte("data"))
	exists, _ = fs.Exists(ctx, "exists.txt")
	if !exists {
		t.Error("expected true for existing file")
	}
}

func TestLocalFS_List(t *testing.T) {
	dir := t.TempDir()
	fs, _ := NewLocalFS(dir)
	ctx := context.Background()

	fs.Write(ctx, "reports/VALE3/a.json", []byte("a"))
	fs.Write(ctx, "reports/VALE3/b.json", []byte("b"))
	fs.Write(ctx, "reports/PETR4/c.json", []byte("c"))

	paths, err := fs.List(ctx, "reports/VALE3")
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	if len(paths) != 2 {
		t.Errorf("expected 2 paths, got %d", len(paths))
	}

	paths, err = fs.List(ctx, "reports/NONE")
	if err != nil || len(paths) != 0 {
		t.Errorf("expected empty list, got %v (%v)", paths, err)
	}
}

func TestNewLocalFS_RequiresPath(t *testing.T) {
	if _, err := NewLocalFS(""); err == nil {
		t.Error("expected error for empty base path")
	}
}
