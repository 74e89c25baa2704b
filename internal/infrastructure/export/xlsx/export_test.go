package xlsx

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/haiku-studio/internal/core/domain"
)

func TestWriteProducesHeaderAndRows(t *testing.T) {
	items := []domain.StoredArtifact{
		{ID: 2, InputWord: "雨", Language: domain.LanguageJapanese, HaikuText: "x\ny\nz", ImageData: "data:image/png;base64,AA", CreatedAt: time.Date(2026, 4, 18, 9, 0, 0, 0, time.UTC)},
		{ID: 1, InputWord: "frog", Language: domain.LanguageEnglish, HaikuText: "a\nb\nc"},
	}

	var buf bytes.Buffer
	if err := Write(&buf, items); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header plus two rows, got %d", len(rows))
	}
	if rows[0][0] != "ID" || rows[0][3] != "Haiku" {
		t.Fatalf("unexpected header: %v", rows[0])
	}
	if rows[1][1] != "雨" || rows[1][4] != "yes" || rows[1][5] != "2026-04-18T09:00:00Z" {
		t.Fatalf("unexpected first row: %v", rows[1])
	}
	if rows[2][3] != "a\nb\nc" || rows[2][4] != "no" {
		t.Fatalf("unexpected second row: %v", rows[2])
	}
}
