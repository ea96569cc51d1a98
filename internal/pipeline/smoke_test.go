package pipeline

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"omnigrade/internal"
	"omnigrade/internal/config"
	"omnigrade/internal/ingest"
	"omnigrade/internal/ocr"
	"omnigrade/internal/rscore"
	"omnigrade/internal/storage"
)

type fakeEngine struct{ text string }

func (f fakeEngine) Recognize(context.Context, []byte) (string, error) { return f.text, nil }

func (f fakeEngine) Status() ocr.Status { return ocr.Status{Engine: "fake", Available: true} }

const portalScreenshot = "Calculus I\n201-NYA-05\nYour grade: 85%\nClass average: 78%"

const portalPage = `<html><body>
<div>Physics Mechanics</div>
<div>203-NYA-05</div>
<div>Your grade: 90%</div>
<div>Class average: 75%</div>
</body></html>`

const pastedText = "Calculus I\n201-NYA-05\nStd. dev: 6%"

func writeFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func setup(t *testing.T, engine ocr.Engine) (*ProcessingService, *storage.DB, []string) {
	t.Helper()
	tmp := t.TempDir()
	db, err := storage.Open(filepath.Join(tmp, "app.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	cfg := config.Config{SourcesDir: filepath.Join(tmp, "sources"), CreditsFuzzyThreshold: 0.90, CreditsFuzzyGap: 0.08}
	paths := []string{
		writeFile(t, tmp, "screen.png", pngBytes(t)),
		writeFile(t, tmp, "portal.html", []byte(portalPage)),
		writeFile(t, tmp, "notes.txt", []byte(pastedText)),
	}
	return NewProcessingService(db, cfg, engine, nil), db, paths
}

func TestSmokeFilesToXLSX(t *testing.T) {
	proc, db, paths := setup(t, fakeEngine{text: portalScreenshot})
	if err := db.ReplaceCredits([]internal.CreditMapping{{ClassCode: "201-NYA-05", Credits: 2.66, Origin: "map.csv"}}); err != nil {
		t.Fatal(err)
	}

	imp, err := proc.ImportFiles(paths, "fall term")
	if err != nil {
		t.Fatal(err)
	}
	res, err := proc.ProcessImport(context.Background(), imp)
	if err != nil {
		t.Fatal(err)
	}
	if res.Sources != 3 || res.Failed != 0 || res.Rows != 2 || res.Credited != 1 {
		t.Fatalf("res=%+v", res)
	}

	rows, err := db.ListCourses(imp.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[0].ClassCode != "201-NYA-05" || rows[1].ClassCode != "203-NYA-05" {
		t.Fatalf("rows=%+v", rows)
	}
	calc := rows[0]
	if calc.YourGrade == nil || *calc.YourGrade != 85 || calc.StdDev == nil || *calc.StdDev != 6 {
		t.Fatalf("calc=%+v", calc)
	}
	if calc.Credits == nil || *calc.Credits != 2.66 || calc.CreditsSource != "code" {
		t.Fatalf("credits=%+v", calc)
	}

	stored, err := db.GetImportByID(imp.ID)
	if err != nil || stored == nil || stored.Status != internal.ImportProcessed {
		t.Fatalf("import=%+v err=%v", stored, err)
	}

	out := filepath.Join(t.TempDir(), "out", "grades.xlsx")
	if err := ExportRowsToXLSX(rows, rscore.Offsets{Min: -2, Max: 2}, out); err != nil {
		t.Fatal(err)
	}
	f, err := excelize.OpenFile(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	sheet, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		t.Fatal(err)
	}
	if len(sheet) != 3 || sheet[0][0] != "Course Name" || sheet[1][0] != "Calculus I" {
		t.Fatalf("sheet=%v", sheet)
	}
	if z := sheet[1][7]; z != "1.17" {
		t.Fatalf("z=%q", z)
	}
	if r := sheet[1][8:11]; r[0] != "40.83" || r[1] != "38.83" || r[2] != "42.83" {
		t.Fatalf("r=%v", r)
	}
	if physics := sheet[2]; physics[8] != "" || physics[12] != "anchor" {
		t.Fatalf("physics=%v", physics)
	}

	summary, err := f.GetRows("R Score")
	if err != nil {
		t.Fatal(err)
	}
	if summary[0][1] != "40.83" || summary[1][1] != "38.83" || summary[2][1] != "42.83" || summary[3][1] != "2.66" {
		t.Fatalf("summary=%v", summary)
	}
	if len(summary) != 8 || summary[7][0] != "Calculus I" {
		t.Fatalf("gains=%v", summary)
	}
}

func TestProcessWithoutOCREngine(t *testing.T) {
	proc, db, paths := setup(t, nil)
	imp, err := proc.ImportFiles(paths, "")
	if err != nil {
		t.Fatal(err)
	}
	res, err := proc.ProcessImport(context.Background(), imp)
	if err != nil {
		t.Fatal(err)
	}
	if res.Failed != 1 || res.Rows != 2 {
		t.Fatalf("res=%+v", res)
	}

	sources, err := db.ListSources(imp.ID)
	if err != nil {
		t.Fatal(err)
	}
	if sources[0].Status != internal.SourceOCRUnavailable || sources[1].Status != internal.SourceParsed {
		t.Fatalf("sources=%+v", sources)
	}

	rows, _ := db.ListCourses(imp.ID)
	if rows[0].ClassCode != "203-NYA-05" || rows[0].YourGrade == nil || *rows[0].YourGrade != 90 {
		t.Fatalf("rows=%+v", rows)
	}
}

func TestImportFilesIsIdempotent(t *testing.T) {
	proc, db, paths := setup(t, fakeEngine{text: portalScreenshot})
	first, err := proc.ImportFiles(paths, "")
	if err != nil {
		t.Fatal(err)
	}
	second, err := proc.ImportFiles(paths, "")
	if err != nil {
		t.Fatal(err)
	}
	if first.ID != second.ID || first.Label != "screen.png" {
		t.Fatalf("first=%+v second=%+v", first, second)
	}
	sources, _ := db.ListSources(first.ID)
	if len(sources) != 3 {
		t.Fatalf("sources=%d", len(sources))
	}
}

func TestParseInput(t *testing.T) {
	rows, trace, err := ParseInput(context.Background(), ingest.Reader{}, "", "portal.html", []byte(portalPage), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].CourseName != "Physics Mechanics" || trace.Reason != "ok" {
		t.Fatalf("rows=%+v trace=%+v", rows, trace)
	}
	if _, _, err := ParseInput(context.Background(), ingest.Reader{}, "xlsx", "a.xlsx", nil, nil); err == nil {
		t.Fatal("expected error")
	}
}

func TestProcessLoadsCreditMapOnFirstUse(t *testing.T) {
	proc, db, paths := setup(t, fakeEngine{text: portalScreenshot})
	mapPath := writeFile(t, t.TempDir(), "credits_map.csv", []byte("Course Name,Credits\nPhysics Mechanics,2.33\n"))
	proc.cfg.CreditsMapPaths = []string{filepath.Join(t.TempDir(), "missing.csv"), mapPath}

	imp, err := proc.ImportFiles(paths, "")
	if err != nil {
		t.Fatal(err)
	}
	res, err := proc.ProcessImport(context.Background(), imp)
	if err != nil {
		t.Fatal(err)
	}
	if res.Credited != 1 {
		t.Fatalf("res=%+v", res)
	}
	rows, _ := db.ListCourses(imp.ID)
	if rows[1].Credits == nil || *rows[1].Credits != 2.33 || rows[1].CreditsSource != "name" {
		t.Fatalf("rows=%+v", rows)
	}
	if v, _ := db.GetMetadata("credits.origins"); v == nil || *v != mapPath {
		t.Fatalf("origins=%v", v)
	}
}
