package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessedResponse(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "empty list", body: `[]`},
		{name: "records", body: `[{"name":"a.pdf","data":"{}"},{"name":1,"data":null}]`},
		{name: "object", body: `{"name":"a.pdf"}`, wantErr: true},
		{name: "scalar items", body: `["a.pdf"]`, wantErr: true},
		{name: "not json", body: `<html>`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateJSON(ProcessedResponse, []byte(tt.body))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestExtractionPayload(t *testing.T) {
	assert.NoError(t, ValidateValue(ExtractionPayload, map[string]any{
		"entities": []any{map[string]any{"type": "total", "confidence": int64(1)}},
	}))
	assert.Error(t, ValidateValue(ExtractionPayload, map[string]any{"text": "x"}))
	assert.Error(t, ValidateValue(ExtractionPayload, map[string]any{"entities": "x"}))
	assert.Error(t, ValidateValue(ExtractionPayload, []any{}))
}

func TestCompile_Invalid(t *testing.T) {
	_, err := Compile("bad.json", map[string]any{"type": make(chan int)})
	require.ErrorContains(t, err, "marshal schema")
	assert.Panics(t, func() { MustCompile("bad2.json", map[string]any{"type": make(chan int)}) })
}
