package export

import (
	"bytes"
	"encoding/csv"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/invoice-collator/internal/entity"
)

func sampleDataset() *entity.Dataset {
	return &entity.Dataset{
		Columns: []string{"confidence", "mentionText", "type", "filename"},
		Records: []entity.ExportRecord{
			{"type": "total_amount", "mentionText": "100.00", "confidence": 0.98, "filename": "a.pdf"},
			{"type": "supplier", "mentionText": "ACME, Inc.", "filename": "a.pdf"},
			{"type": "line_item", "mentionText": map[string]any{"qty": int64(2)}, "confidence": int64(1), "filename": "b.pdf"},
		},
	}
}

func newService() *Service {
	return NewService(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestEncode_CSV(t *testing.T) {
	b, err := newService().Encode(FormatCSV, sampleDataset())
	require.NoError(t, err)

	rows, err := csv.NewReader(bytes.NewReader(b)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"confidence", "mentionText", "type", "filename"}, rows[0])
	assert.Equal(t, []string{"0.98", "100.00", "total_amount", "a.pdf"}, rows[1])
	assert.Equal(t, []string{"", "ACME, Inc.", "supplier", "a.pdf"}, rows[2])
	assert.Equal(t, []string{"1", `{"qty":2}`, "line_item", "b.pdf"}, rows[3])
}

func TestEncode_XLSX(t *testing.T) {
	b, err := newService().Encode(FormatXLSX, sampleDataset())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())
	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"confidence", "mentionText", "type", "filename"}, rows[0])
	assert.Equal(t, "ACME, Inc.", rows[2][1])
	assert.Equal(t, "b.pdf", rows[3][3])
	assert.Equal(t, `{"qty":2}`, rows[3][1])
}

func TestEncode_NoRecords(t *testing.T) {
	_, err := newService().Encode(FormatCSV, &entity.Dataset{})
	assert.ErrorIs(t, err, ErrNoRecords)

	_, err = newService().Encode(FormatXLSX, nil)
	assert.ErrorIs(t, err, ErrNoRecords)
}

func TestEncode_UnknownFormat(t *testing.T) {
	_, err := newService().Encode(Format("pdf"), sampleDataset())
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatCSV, false},
		{"csv", FormatCSV, false},
		{" XLSX ", FormatXLSX, false},
		{"json", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	assert.Equal(t, "invoices.xlsx", FormatXLSX.FileName())
	assert.Contains(t, FormatCSV.ContentType(), "text/csv")
}
