package importer

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSaveTrainingFilesReplacesPreviousBundle(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "bot1")

	first := map[string][]byte{"nlu.yml": []byte("a"), "stories.yml": []byte("b")}
	if err := SaveTrainingFiles(dir, first); err != nil {
		t.Fatalf("SaveTrainingFiles: %v", err)
	}

	second := map[string][]byte{"domain.yml": []byte("c")}
	if err := SaveTrainingFiles(dir, second); err != nil {
		t.Fatalf("SaveTrainingFiles: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "domain.yml" {
		t.Fatalf("dir holds %v, want only domain.yml", entries)
	}
}

func TestSaveTrainingFilesStripsPathComponents(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "bot1")

	files := map[string][]byte{"../escape/nlu.yml": []byte("a")}
	if err := SaveTrainingFiles(dir, files); err != nil {
		t.Fatalf("SaveTrainingFiles: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "nlu.yml")); err != nil {
		t.Fatalf("expected nlu.yml inside the bundle dir: %v", err)
	}
}
