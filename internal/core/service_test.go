package core

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/JonMunkholm/ClientClean/internal/logging"
	"github.com/JonMunkholm/ClientClean/internal/phone"
)

func newTestService(t *testing.T, opts Options) (*Service, string) {
	t.Helper()
	root := t.TempDir()
	opts.ScratchRoot = root
	svc, err := NewService(phone.DefaultTable(), opts)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	return svc, root
}

// clientSheet builds a CSV with n distinct valid rows followed by bad ones.
func clientSheet(n int) string {
	var b strings.Builder
	b.WriteString("Name,Phone\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "Client %d,010%08d\n", i, i)
	}
	b.WriteString(",01012345678\n")        // empty name
	b.WriteString("Nobody,needed\n")       // placeholder number
	b.WriteString("Client 0,01000000000\n") // duplicate of the first row
	return b.String()
}

func scratchEntries(t *testing.T, root string) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("ReadDir(%s): %v", root, err)
	}
	return entries
}

func TestService_Clean(t *testing.T) {
	svc, root := newTestService(t, Options{MaxRows: 240, Format: "csv", CompressionLevel: 6})

	var phases []CleanPhase
	res, err := svc.Clean(context.Background(), CleanRequest{
		FileName:     "clients.csv",
		Body:         strings.NewReader(clientSheet(500)),
		NameColumn:   "Name",
		NumberColumn: "Phone",
		Progress:     func(p CleanProgress) { phases = append(phases, p.Phase) },
	})
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}

	s := res.Summary
	if s.Total != 503 || s.Valid != 500 || s.Rejected != 2 || s.Duplicates != 1 || s.Chunks != 3 {
		t.Errorf("Summary = %+v", s)
	}
	if s.ByCountry[0].Prefix != "20" || s.ByCountry[0].Count != 500 {
		t.Errorf("ByCountry[0] = %+v, want 500 under 20", s.ByCountry[0])
	}
	if len(res.Rejected) != 2 || res.Rejected[0].Reason != ReasonEmptyName {
		t.Errorf("Rejected = %+v", res.Rejected)
	}
	if phases[0] != PhaseReading || phases[len(phases)-1] != PhaseComplete {
		t.Errorf("phases = %v", phases)
	}

	zr, err := zip.OpenReader(res.ArchivePath)
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	zr.Close()
	if strings.Join(names, ",") != "clients_1.csv,clients_2.csv,clients_3.csv" {
		t.Errorf("archive members = %v", names)
	}

	res.Release()
	if n := len(scratchEntries(t, root)); n != 0 {
		t.Errorf("%d scratch entries left after Release", n)
	}
}

func TestService_Clean_LogsCarryJobID(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(logging.New(&buf, "debug", "json"))
	t.Cleanup(func() { slog.SetDefault(prev) })

	svc, _ := newTestService(t, Options{Format: "csv"})
	res, err := svc.Clean(context.Background(), CleanRequest{
		FileName:     "clients.csv",
		Body:         strings.NewReader(clientSheet(3)),
		NameColumn:   "Name",
		NumberColumn: "Phone",
	})
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	defer res.Release()

	found := map[string]bool{}
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		var entry map[string]any
		if err := json.Unmarshal(line, &entry); err != nil {
			t.Fatalf("decode log line %q: %v", line, err)
		}
		msg, _ := entry["msg"].(string)
		if id, _ := entry["job_id"].(string); id != "" && entry["file"] == "clients.csv" {
			found[msg] = true
		}
	}
	for _, msg := range []string{"clean started", "archive written", "clean completed"} {
		if !found[msg] {
			t.Errorf("log %q missing job_id/file fields; log:\n%s", msg, buf.String())
		}
	}
}

func TestService_Clean_EmptyResultStillExports(t *testing.T) {
	svc, _ := newTestService(t, Options{})

	res, err := svc.Clean(context.Background(), CleanRequest{
		FileName:     "clients.csv",
		Body:         strings.NewReader("Name,Phone\n,\nX,n/a\n"),
		NameColumn:   "Name",
		NumberColumn: "Phone",
	})
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	defer res.Release()

	if res.Summary.Valid != 0 || res.Summary.Chunks != 1 {
		t.Errorf("Summary = %+v, want no valid rows in one chunk", res.Summary)
	}
	zr, err := zip.OpenReader(res.ArchivePath)
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	defer zr.Close()
	if len(zr.File) != 1 || zr.File[0].Name != "clients_1.xlsx" {
		t.Errorf("archive members = %v", zr.File)
	}
}

func TestService_Clean_FailureLeavesNothing(t *testing.T) {
	tests := []struct {
		name    string
		req     CleanRequest
		wantErr func(error) bool
	}{
		{
			name:    "no file",
			req:     CleanRequest{FileName: "x.csv", NameColumn: "Name", NumberColumn: "Phone"},
			wantErr: func(err error) bool { return errors.Is(err, ErrNoFile) },
		},
		{
			name: "wrong column",
			req: CleanRequest{FileName: "x.csv", Body: strings.NewReader(clientSheet(3)),
				NameColumn: "Name", NumberColumn: "Mobile"},
			wantErr: func(err error) bool {
				var colErr *ColumnNotFoundError
				return errors.As(err, &colErr)
			},
		},
		{
			name:    "unsupported",
			req:     CleanRequest{FileName: "x.docx", Body: strings.NewReader("x")},
			wantErr: func(err error) bool { return errors.Is(err, ErrUnsupportedFormat) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, root := newTestService(t, Options{})
			var last CleanProgress
			tt.req.Progress = func(p CleanProgress) { last = p }

			res, err := svc.Clean(context.Background(), tt.req)
			if res != nil || !tt.wantErr(err) {
				t.Fatalf("Clean() = %v, %v", res, err)
			}
			if last.Phase != PhaseFailed || last.Error == "" {
				t.Errorf("last progress = %+v, want failed with error", last)
			}
			if n := len(scratchEntries(t, root)); n != 0 {
				t.Errorf("%d scratch entries left after failure", n)
			}
			if svc.LimiterStatus().Active != 0 {
				t.Error("job slot not released after failure")
			}
		})
	}
}

func TestService_Clean_CancelledContext(t *testing.T) {
	svc, root := newTestService(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Clean(ctx, CleanRequest{FileName: "x.csv", Body: strings.NewReader(clientSheet(1)),
		NameColumn: "Name", NumberColumn: "Phone"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Clean() error = %v, want context.Canceled", err)
	}
	if n := len(scratchEntries(t, root)); n != 0 {
		t.Errorf("%d scratch entries left after cancellation", n)
	}
}

func TestService_Preview(t *testing.T) {
	svc, root := newTestService(t, Options{MaxRows: 100})

	r, err := svc.Preview(context.Background(), CleanRequest{
		FileName:     "clients.csv",
		Body:         strings.NewReader(clientSheet(250)),
		NameColumn:   "Name",
		NumberColumn: "Phone",
	})
	if err != nil {
		t.Fatalf("Preview() error = %v", err)
	}
	if r.Summary.Valid != 250 || r.Summary.Chunks != 3 || r.Summary.Rejected != 2 {
		t.Errorf("Summary = %+v", r.Summary)
	}
	if n := len(scratchEntries(t, root)); n != 0 {
		t.Errorf("Preview wrote %d scratch entries", n)
	}
}

func TestNewService_Validation(t *testing.T) {
	if _, err := NewService(nil, Options{}); err == nil {
		t.Error("NewService(nil) should fail")
	}
	if _, err := NewService(phone.DefaultTable(), Options{Format: "ods"}); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("NewService(ods) error = %v, want ErrUnsupportedFormat", err)
	}

	svc, err := NewService(phone.DefaultTable(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if svc.MaxRows() != DefaultMaxRows {
		t.Errorf("MaxRows() = %d, want %d", svc.MaxRows(), DefaultMaxRows)
	}
	if len(svc.Codes()) != len(phone.DefaultEntries) {
		t.Errorf("Codes() has %d entries", len(svc.Codes()))
	}
}
