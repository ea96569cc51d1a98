package listener

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"omnigrade/internal"
	"omnigrade/internal/config"
	"omnigrade/internal/storage"
)

const gradesMail = "From: student@example.com\r\n" +
	"To: grades@example.com\r\n" +
	"Subject: Fall grades\r\n" +
	"Message-ID: <fall-1@example.com>\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: multipart/mixed; boundary=\"b1\"\r\n" +
	"\r\n" +
	"--b1\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"Portal export attached.\r\n" +
	"--b1\r\n" +
	"Content-Type: text/html; name=\"portal.html\"\r\n" +
	"Content-Disposition: attachment; filename=\"portal.html\"\r\n" +
	"\r\n" +
	"<div>Calculus I</div><div>201-NYA-05</div><div>Your grade: 85%</div><div>Class average: 78%</div>\r\n" +
	"--b1--\r\n"

type fakeConnector struct{ calls int }

func (f *fakeConnector) FetchInbox(context.Context, string, int) ([]internal.FetchedMailMessage, error) {
	f.calls++
	return []internal.FetchedMailMessage{{
		Provider:   "gmail",
		MessageID:  "<fall-1@example.com>",
		Subject:    "Fall grades",
		From:       "student@example.com",
		ReceivedAt: "2026-09-01T12:00:00Z",
		Raw:        []byte(gradesMail),
	}}, nil
}

func TestRunCycleFetchesProcessesAndExports(t *testing.T) {
	tmp := t.TempDir()
	db, err := storage.Open(filepath.Join(tmp, "app.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	cfg := config.Config{
		SourcesDir:               filepath.Join(tmp, "sources"),
		RawMailDir:               filepath.Join(tmp, "raw"),
		OutputDir:                filepath.Join(tmp, "out"),
		MailListenerProvider:     "gmail",
		MailListenerLabel:        "INBOX",
		MailListenerFetchMax:     10,
		MailListenerProcessBatch: 10,
		MailListenerAutoExport:   true,
		CreditsFuzzyThreshold:    0.90,
		CreditsFuzzyGap:          0.08,
	}
	conn := &fakeConnector{}
	svc := NewService(db, cfg, nil, nil).WithConnector(conn)

	if err := svc.RunCycle(context.Background()); err != nil {
		t.Fatal(err)
	}

	imp, err := db.GetImportByProviderRef("gmail", "<fall-1@example.com>")
	if err != nil || imp == nil {
		t.Fatalf("imp=%v err=%v", imp, err)
	}
	if imp.Status != internal.ImportExported {
		t.Fatalf("status=%q", imp.Status)
	}
	rows, err := db.ListCourses(imp.ID)
	if err != nil || len(rows) != 1 || rows[0].ClassCode != "201-NYA-05" {
		t.Fatalf("rows=%+v err=%v", rows, err)
	}
	out := filepath.Join(cfg.OutputDir, "listener", "1_fall-1_example.com.xlsx")
	if _, err := os.Stat(out); err != nil {
		t.Fatal(err)
	}

	// The same message on the next cycle is neither reprocessed nor re-exported.
	if err := svc.RunCycle(context.Background()); err != nil {
		t.Fatal(err)
	}
	again, _ := db.GetImportByID(imp.ID)
	if again.Status != internal.ImportExported || conn.calls != 2 {
		t.Fatalf("again=%+v calls=%d", again, conn.calls)
	}
}

func TestSanitizeRef(t *testing.T) {
	if got := sanitizeRef("<a/b c@example.com>"); got != "a_b_c_example.com" {
		t.Fatalf("got=%q", got)
	}
}
