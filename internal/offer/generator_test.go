package offer

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"salesbot/internal/database"
)

func TestGenerate(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "offers")
	gen := NewGenerator(dir, nil)

	interests := []database.Interest{
		{Kind: "car_interest", Details: "general interest in cars"},
		{Kind: "region_analysis", Details: "Siberia"},
	}

	user := &database.User{UserID: 77, FirstName: "Ivan", LastName: "Petrov"}
	path, err := gen.Generate(user, nil, interests)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	// Output directory is created on demand.
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("expected output directory to exist: %v", err)
	}

	wantName := fmt.Sprintf("offer_77_%s.pdf", time.Now().Format("20060102_1504"))
	if filepath.Base(path) != wantName {
		// Allow a minute rollover between Generate and the check.
		pattern := regexp.MustCompile(`^offer_77_\d{8}_\d{4}\.pdf$`)
		if !pattern.MatchString(filepath.Base(path)) {
			t.Errorf("unexpected offer file name %q", filepath.Base(path))
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("expected offer file at %s: %v", path, err)
	}
	if info.Size() == 0 {
		t.Error("offer file is empty")
	}

	// No temp file may remain next to the final document.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to read output dir: %v", err)
	}
	for _, entry := range entries {
		if filepath.Ext(entry.Name()) == ".tmp" {
			t.Errorf("leftover temp file %q after successful generation", entry.Name())
		}
	}
}

func TestGenerateManyInterests(t *testing.T) {
	t.Parallel()

	gen := NewGenerator(t.TempDir(), nil)

	var interests []database.Interest
	for i := 0; i < 12; i++ {
		interests = append(interests, database.Interest{Kind: fmt.Sprintf("interest_%d", i)})
	}

	// Only the first five interests are rendered; the rest must not break generation.
	if _, err := gen.Generate(&database.User{UserID: 5}, nil, interests); err != nil {
		t.Fatalf("Generate with many interests failed: %v", err)
	}
}

func TestGenerateNilUser(t *testing.T) {
	t.Parallel()

	gen := NewGenerator(t.TempDir(), nil)
	if _, err := gen.Generate(nil, nil, nil); err == nil {
		t.Error("expected error for nil user")
	}
}

func TestGenerateInvalidDir(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "not_a_dir")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	gen := NewGenerator(file, nil)
	if _, err := gen.Generate(&database.User{UserID: 1}, nil, nil); err == nil {
		t.Error("expected error when output dir path is a file")
	}
}
