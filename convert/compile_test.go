package convert

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	cli "github.com/urfave/cli/v3"
)

func runAction(t *testing.T, ctx context.Context, action cli.ActionFunc, stdin string, args ...string) (string, error) {
	t.Helper()
	out := new(bytes.Buffer)
	cmd := &cli.Command{
		Name:   "test",
		Reader: strings.NewReader(stdin),
		Writer: out,

		DisableSliceFlagSeparator: true,
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "define", Aliases: []string{"D"}},
			&cli.BoolFlag{Name: "verify"},
			&cli.StringFlag{Name: "force-zip-cp"},
		},
		Action: action,
	}
	err := cmd.Run(ctx, append([]string{"test"}, args...))
	return out.String(), err
}

func TestCompile_Stdin(t *testing.T) {
	ctx, _ := setupTestEnv(t)

	got, err := runAction(t, ctx, Compile, sampleSource)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if got != sampleResult {
		t.Errorf("Compile() =\n%s\nwant\n%s", got, sampleResult)
	}
}

func TestCompile_FileWithDefines(t *testing.T) {
	ctx, env := setupTestEnv(t)

	src := filepath.Join(t.TempDir(), "box.ccss")
	writeFile(t, src, "box:\n  width: $w * 2\n  color: $c\n")

	got, err := runAction(t, ctx, Compile, "", "-D", "w=5px", "--define", "c=red", "--verify", src)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if want := "box {\n  width: 10px;\n  color: red;\n}\n"; got != want {
		t.Errorf("Compile() =\n%s\nwant\n%s", got, want)
	}
	if !env.Verify {
		t.Error("verify flag was not applied")
	}
}

func TestCompile_Errors(t *testing.T) {
	ctx, _ := setupTestEnv(t)

	if _, err := runAction(t, ctx, Compile, "a:\n  width: $nope\n"); err == nil || !strings.Contains(err.Error(), "STDIN") {
		t.Errorf("unexpected error: %v", err)
	}
	if _, err := runAction(t, ctx, Compile, "", "-D", "1=2"); err == nil || !strings.Contains(err.Error(), "bad variable name") {
		t.Errorf("unexpected error: %v", err)
	}
	if _, err := runAction(t, ctx, Compile, "", filepath.Join(t.TempDir(), "missing.ccss")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDump(t *testing.T) {
	ctx, _ := setupTestEnv(t)

	got, err := runAction(t, ctx, Dump, "w = 1px\na:\n  width: $w\n")
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	for _, want := range []string{"Variables: 1", `Rule["a"]`, "Blocks: 1"} {
		if !strings.Contains(got, want) {
			t.Errorf("Dump() output does not contain %q:\n%s", want, got)
		}
	}
}

func TestColors(t *testing.T) {
	ctx, _ := setupTestEnv(t)

	got, err := runAction(t, ctx, Colors, "")
	if err != nil {
		t.Fatalf("Colors() error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(got), "\n")
	if len(lines) < 140 {
		t.Errorf("Colors() listed %d colors", len(lines))
	}
	var found bool
	for _, l := range lines {
		if f := strings.Fields(l); len(f) == 2 && f[0] == "teal" && f[1] == "#008080" {
			found = true
		}
	}
	if !found {
		t.Error("teal is not listed")
	}
}
