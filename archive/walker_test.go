package archive

import (
	"archive/zip"
	"errors"
	"os"
	"path"
	"path/filepath"
	"slices"
	"testing"

	"golang.org/x/text/encoding/charmap"
)

type zipEntry struct {
	name    string
	content string
	nonUTF8 bool
}

func makeZip(t *testing.T, entries []zipEntry) string {
	t.Helper()
	zipPath := filepath.Join(t.TempDir(), "test.zip")

	zipFile, err := os.Create(zipPath)
	if err != nil {
		t.Fatalf("Failed to create zip file: %v", err)
	}
	defer zipFile.Close()

	w := zip.NewWriter(zipFile)
	for _, e := range entries {
		fw, err := w.CreateHeader(&zip.FileHeader{Name: e.name, Method: zip.Deflate, NonUTF8: e.nonUTF8})
		if err != nil {
			t.Fatalf("Failed to create file %s in zip: %v", e.name, err)
		}
		if _, err := fw.Write([]byte(e.content)); err != nil {
			t.Fatalf("Failed to write content for %s: %v", e.name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close zip: %v", err)
	}
	return zipPath
}

func isSource(name string) bool {
	return path.Ext(name) == ".ccss"
}

func TestWalk(t *testing.T) {
	zipPath := makeZip(t, []zipEntry{
		{name: "styles/"},
		{name: "styles/site.ccss", content: "a:\n  color: red\n"},
		{name: "styles/print.ccss", content: "b:\n  color: black\n"},
		{name: "styles/readme.txt", content: "readme"},
		{name: "theme/dark.ccss", content: "c:\n  color: white\n"},
	})

	tests := []struct {
		name   string
		prefix string
		match  func(string) bool
		want   []string
	}{
		{"styles prefix", "styles/", isSource, []string{"styles/site.ccss", "styles/print.ccss"}},
		{"everything", "", nil, []string{"styles/site.ccss", "styles/print.ccss", "styles/readme.txt", "theme/dark.ccss"}},
		{"all sources", "", isSource, []string{"styles/site.ccss", "styles/print.ccss", "theme/dark.ccss"}},
		{"single file", "theme/dark.ccss", isSource, []string{"theme/dark.ccss"}},
		{"no match", "fonts/", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var visited []string
			err := Walk(zipPath, tt.prefix, tt.match, func(archive string, file *zip.File) error {
				if archive != zipPath {
					t.Errorf("archive = %s, want %s", archive, zipPath)
				}
				visited = append(visited, file.Name)
				return nil
			})
			if err != nil {
				t.Fatalf("Walk() error = %v", err)
			}
			if !slices.Equal(visited, tt.want) {
				t.Errorf("visited %v, want %v", visited, tt.want)
			}
		})
	}
}

func TestWalk_Errors(t *testing.T) {
	t.Run("walkFn error stops processing", func(t *testing.T) {
		zipPath := makeZip(t, []zipEntry{{name: "a.ccss"}, {name: "b.ccss"}})
		stop := errors.New("stop")
		count := 0
		err := Walk(zipPath, "", nil, func(string, *zip.File) error {
			count++
			return stop
		})
		if !errors.Is(err, stop) {
			t.Errorf("Walk() error = %v, want %v", err, stop)
		}
		if count != 1 {
			t.Errorf("walkFn called %d times, want 1", count)
		}
	})

	t.Run("nonexistent file", func(t *testing.T) {
		if err := Walk(filepath.Join(t.TempDir(), "absent.zip"), "", nil, nil); err == nil {
			t.Error("expected error for nonexistent archive")
		}
	})

	t.Run("invalid zip file", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.zip")
		if err := os.WriteFile(bad, []byte("not a zip file"), 0644); err != nil {
			t.Fatalf("Failed to write file: %v", err)
		}
		if err := Walk(bad, "", nil, nil); err == nil {
			t.Error("expected error for invalid archive")
		}
	})

	for _, name := range []string{"../evil.ccss", "a/../../evil.ccss", "/abs.ccss", `\win.ccss`} {
		t.Run("unsafe "+name, func(t *testing.T) {
			zipPath := makeZip(t, []zipEntry{{name: "ok.ccss"}, {name: name}})
			err := Walk(zipPath, "", nil, func(string, *zip.File) error { return nil })
			if err == nil {
				t.Errorf("expected error for entry %q", name)
			}
		})
	}
}

func TestEntryName(t *testing.T) {
	// "стиль.ccss" in cp866
	raw := string([]byte{0xe1, 0xe2, 0xa8, 0xab, 0xec}) + ".ccss"
	zipPath := makeZip(t, []zipEntry{
		{name: raw, content: "x = 1\n", nonUTF8: true},
		{name: "plain.ccss", content: "y = 2\n"},
	})

	r, err := zip.OpenReader(zipPath)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer r.Close()

	name, err := EntryName(r.File[0], charmap.CodePage866)
	if err != nil {
		t.Fatalf("EntryName() error = %v", err)
	}
	if name != "стиль.ccss" {
		t.Errorf("EntryName() = %q, want стиль.ccss", name)
	}

	if name, _ := EntryName(r.File[0], nil); name != raw {
		t.Errorf("EntryName() without code page = %q", name)
	}
	if name, _ := EntryName(r.File[1], charmap.CodePage866); name != "plain.ccss" {
		t.Errorf("EntryName() = %q, want plain.ccss", name)
	}

	data, err := ReadEntry(r.File[1])
	if err != nil {
		t.Fatalf("ReadEntry() error = %v", err)
	}
	if string(data) != "y = 2\n" {
		t.Errorf("ReadEntry() = %q", data)
	}
}
