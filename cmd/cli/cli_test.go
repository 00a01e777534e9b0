package main

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/anBertoli/slice-vault/pkg/welllog"
)

func writeTable(t *testing.T, dir, name string, rows, cols int) string {
	t.Helper()

	var b strings.Builder
	b.WriteString("depth")
	for c := 1; c <= cols; c++ {
		b.WriteString(",col" + strconv.Itoa(c))
	}
	b.WriteByte('\n')
	for r := 0; r < rows; r++ {
		b.WriteString(strconv.FormatFloat(9000.1+0.1*float64(r), 'f', 1, 64))
		for c := 0; c < cols; c++ {
			b.WriteString("," + strconv.Itoa((r+c)%256))
		}
		b.WriteByte('\n')
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestResizeCmd(t *testing.T) {
	dir := t.TempDir()
	in := writeTable(t, dir, "well.csv", 30, 40)
	out := filepath.Join(dir, "resized.csv")

	_, err := runCLI(t, "resize", "--in", in, "--out", out, "--width", "8")
	if err != nil {
		t.Fatalf("resize should not fail; got %v", err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	table, err := welllog.Decode(f)
	if err != nil {
		t.Fatalf("resized table should decode; got %v", err)
	}
	if table.Rows() != 30 || table.Width() != 8 {
		t.Errorf("resized table should be 30x8; got %dx%d", table.Rows(), table.Width())
	}
}

func TestRenderCmd(t *testing.T) {
	dir := t.TempDir()
	in := writeTable(t, dir, "well.csv", 30, 40)
	out := filepath.Join(dir, "well.png")

	_, err := runCLI(t, "render", "--in", in, "--out", out,
		"--start", "9001", "--end", "9002", "--canvas-width", "50", "--canvas-height", "20")
	if err != nil {
		t.Fatalf("render should not fail; got %v", err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("output should be a png; got %v", err)
	}
	if b := img.Bounds(); b.Dx() != 50 || b.Dy() != 20 {
		t.Errorf("png should be 50x20; got %v", b)
	}

	_, err = runCLI(t, "render", "--in", in, "--out", out, "--start", "1", "--end", "2")
	if err == nil {
		t.Errorf("render of an empty depth range should fail")
	}
	_, err = runCLI(t, "render", "--in", in, "--out", out, "--start", "9001")
	if err == nil {
		t.Errorf("render with only --start should fail")
	}
}

func TestUploadAndListCmd(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "store")
	files := []string{
		writeTable(t, dir, "a.csv", 20, 30),
		writeTable(t, dir, "b.csv", 25, 30),
		writeTable(t, dir, "c.csv", 10, 30),
	}
	storeFlags := []string{"--driver", "file", "--root", root, "--bucket", "images"}

	args := append([]string{"upload", "--concurrency", "2", "--width", "12"}, storeFlags...)
	_, err := runCLI(t, append(args, files...)...)
	if err != nil {
		t.Fatalf("upload should not fail; got %v", err)
	}

	out, err := runCLI(t, append([]string{"list"}, storeFlags...)...)
	if err != nil {
		t.Fatalf("list should not fail; got %v", err)
	}
	want := []string{"resized_a.csv", "resized_b.csv", "resized_c.csv"}
	if diff := cmp.Diff(want, strings.Fields(out)); diff != "" {
		t.Errorf("list printed unexpected keys (-want +got):\n%s", diff)
	}

	_, err = runCLI(t, append([]string{"upload"}, append(storeFlags, filepath.Join(dir, "missing.csv"))...)...)
	if err == nil {
		t.Errorf("upload of a missing file should fail")
	}
}
