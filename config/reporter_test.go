package config

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func readReport(t *testing.T, name string) map[string]string {
	t.Helper()
	zr, err := zip.OpenReader(name)
	if err != nil {
		t.Fatalf("unable to open report: %v", err)
	}
	defer zr.Close()

	out := make(map[string]string, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("unable to open %s: %v", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("unable to read %s: %v", f.Name, err)
		}
		out[f.Name] = string(data)
	}
	return out
}

func TestReport_Archive(t *testing.T) {
	dir := t.TempDir()
	conf := &ReporterConfig{Destination: filepath.Join(dir, "inliner-report.zip")}

	r, err := conf.Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if r.Name() != conf.Destination {
		t.Errorf("Name() = %s, want %s", r.Name(), conf.Destination)
	}

	source := filepath.Join(dir, "welcome.html")
	if err := os.WriteFile(source, []byte("<p>hi</p>"), 0644); err != nil {
		t.Fatal(err)
	}
	r.StoreData("doc-10/summary.yaml", []byte("percentage: 100\n"))
	r.StoreData("doc-2/summary.yaml", []byte("percentage: 50\n"))
	if err := r.StoreCopy("doc-2/source.html", source); err != nil {
		t.Fatalf("StoreCopy() error = %v", err)
	}

	if err := r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	files := readReport(t, conf.Destination)
	if files["doc-2/summary.yaml"] != "percentage: 50\n" {
		t.Errorf("summary = %q", files["doc-2/summary.yaml"])
	}
	if files["doc-2/source.html"] != "<p>hi</p>" {
		t.Errorf("source copy = %q", files["doc-2/source.html"])
	}

	var order []string
	for line := range strings.Lines(files["MANIFEST"]) {
		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			t.Fatalf("malformed manifest line %q", line)
		}
		order = append(order, fields[1])
	}
	if !slices.Equal(order, []string{"doc-2/source.html", "doc-2/summary.yaml", "doc-10/summary.yaml"}) {
		t.Errorf("manifest order = %v", order)
	}
}

func TestReport_StoreDataTwicePanics(t *testing.T) {
	r := &Report{entries: make(map[string]entry)}
	r.StoreData("dump.txt", []byte("a"))

	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate entry")
		}
	}()
	r.StoreData("dump.txt", []byte("b"))
}

func TestReportClose_KeepsStoredPaths(t *testing.T) {
	reportFile, err := os.CreateTemp(t.TempDir(), "report-*.zip")
	if err != nil {
		t.Fatalf("failed to create report file: %v", err)
	}
	r := &Report{entries: make(map[string]entry), file: reportFile}

	sources := t.TempDir()
	if err := os.WriteFile(filepath.Join(sources, "styles.css"), []byte("p{color:red}"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	log := filepath.Join(t.TempDir(), "inliner.log")
	if err := os.WriteFile(log, []byte("log"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	r.Store("stylesheets", sources)
	r.Store("inliner.log", log)
	if err := r.StoreCopy("snapshot", sources); err != nil {
		t.Fatalf("StoreCopy() error = %v", err)
	}
	workDir := r.entries["snapshot"].workDir
	if workDir == "" {
		t.Fatal("StoreCopy did not record its working directory")
	}

	if err := r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(sources, "styles.css")); err != nil {
		t.Errorf("stored directory must survive: %v", err)
	}
	if _, err := os.Stat(log); err != nil {
		t.Errorf("stored file must survive: %v", err)
	}
	if _, err := os.Stat(workDir); !os.IsNotExist(err) {
		os.RemoveAll(workDir)
		t.Error("copy made by StoreCopy was not removed")
	}

	files := readReport(t, reportFile.Name())
	for _, name := range []string{"stylesheets/styles.css", "snapshot/styles.css"} {
		if files[name] != "p{color:red}" {
			t.Errorf("%s was not archived: %v", name, files)
		}
	}
}

func TestReportClose_Uninitialized(t *testing.T) {
	var r *Report
	if err := r.Close(); err != nil {
		t.Errorf("Close on nil report should not error, got: %v", err)
	}
	r = &Report{entries: make(map[string]entry)}
	if err := r.Close(); err != nil {
		t.Errorf("Close with nil file should not error, got: %v", err)
	}
}
