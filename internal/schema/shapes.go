package schema

// ProcessedResponse is the shape of the processed endpoint body: a list of
// per-file records. Record contents are sorted out later by the flattener so
// one odd record never sinks the whole response.
var ProcessedResponse = MustCompile("processed.json", map[string]any{
	"type":  "array",
	"items": map[string]any{"type": "object"},
})

// ExtractionPayload is the shape of one record's decoded data string.
var ExtractionPayload = MustCompile("payload.json", map[string]any{
	"type":     "object",
	"required": []string{"entities"},
	"properties": map[string]any{
		"entities": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "object"},
		},
	},
})
