package git

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"chronodocs/internal/ports"
)

func TestStatuses_OutsideRepositoryDegradesToEmpty(t *testing.T) {
	p := NewProvider(t.TempDir())
	statuses := p.Statuses()
	if len(statuses) != 0 {
		t.Errorf("expected empty map outside a repository, got %v", statuses)
	}
}

func TestStatuses_ClassifiesPorcelainCodes(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	dir := t.TempDir()
	git := func(args ...string) {
		t.Helper()
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v\n%s", args, err, out)
		}
	}
	git("init")
	git("config", "user.email", "test@example.com")
	git("config", "user.name", "test")

	writeFile := func(name, content string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	writeFile("committed.md", "v1")
	writeFile("modified.md", "v1")
	git("add", ".")
	git("commit", "-m", "initial")

	writeFile("modified.md", "v2")
	writeFile("untracked.md", "v1")
	writeFile("staged.md", "v1")
	git("add", "staged.md")

	statuses := NewProvider(dir).Statuses()

	cases := []struct {
		path string
		want ports.FileStatus
	}{
		{"untracked.md", ports.StatusNew},
		{"modified.md", ports.StatusModified},
		{"staged.md", ports.StatusStaged},
	}
	for _, tc := range cases {
		if got := statuses[tc.path]; got != tc.want {
			t.Errorf("%s = %q, want %q", tc.path, got, tc.want)
		}
	}
	if _, present := statuses["committed.md"]; present {
		t.Error("clean committed file must not appear in the status map")
	}
}
