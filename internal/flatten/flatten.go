package flatten

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"

	"github.com/joseph-ayodele/invoice-collator/constants"
	"github.com/joseph-ayodele/invoice-collator/internal/entity"
	"github.com/joseph-ayodele/invoice-collator/internal/schema"
)

// Skip reasons recorded on the dataset.
const (
	ReasonNonStringData = "non_string_data"
	ReasonInvalidJSON   = "invalid_json"
	ReasonInvalidShape  = "invalid_shape"
	ReasonNoEntities    = "no_entities"
)

var entitiesPath = jp.MustParseString("$.entities[*]")

// Flattener turns processed results into one export-ready record list.
type Flattener struct {
	logger  *slog.Logger
	exclude map[string]struct{}
}

func New(logger *slog.Logger) *Flattener {
	if logger == nil {
		logger = slog.Default()
	}
	exclude := make(map[string]struct{}, len(constants.ExcludedEntityFields))
	for _, f := range constants.ExcludedEntityFields {
		exclude[f] = struct{}{}
	}
	return &Flattener{logger: logger, exclude: exclude}
}

// Flatten never fails the batch. A record whose data is not a string is left
// out; a record whose data does not parse is logged and left out. Every other
// record contributes its entities, stamped with the record's filename and
// stripped of the excluded fields.
func (f *Flattener) Flatten(results []entity.ProcessingResult) *entity.Dataset {
	ds := &entity.Dataset{Records: []entity.ExportRecord{}}
	columns := map[string]struct{}{}

	for _, res := range results {
		data, ok := res.DataString()
		if !ok {
			ds.Skipped = append(ds.Skipped, entity.SkippedResult{Name: res.Name, Reason: ReasonNonStringData})
			f.logger.Debug("flatten.record.skipped", "file", res.Name, "reason", ReasonNonStringData)
			continue
		}

		entities, reason, err := parseEntities(data)
		if err != nil {
			ds.Skipped = append(ds.Skipped, entity.SkippedResult{Name: res.Name, Reason: reason, Error: err.Error()})
			f.logger.Error("flatten.record.parse_error", "file", res.Name, "reason", reason, "error", err)
			continue
		}
		if len(entities) == 0 {
			ds.Skipped = append(ds.Skipped, entity.SkippedResult{Name: res.Name, Reason: ReasonNoEntities})
			f.logger.Debug("flatten.record.skipped", "file", res.Name, "reason", ReasonNoEntities)
			continue
		}

		for _, e := range entities {
			rec := f.reduce(e, res.Name)
			for k := range rec {
				columns[k] = struct{}{}
			}
			ds.Records = append(ds.Records, rec)
		}
	}

	ds.Columns = orderColumns(columns)
	f.logger.Info("flatten.ok",
		"results", len(results),
		"records", len(ds.Records),
		"skipped", len(ds.Skipped),
	)
	return ds
}

// reduce copies an entity without the excluded fields and stamps the filename.
func (f *Flattener) reduce(e entity.Entity, filename string) entity.ExportRecord {
	rec := make(entity.ExportRecord, len(e)+1)
	for k, v := range e {
		if _, drop := f.exclude[k]; drop {
			continue
		}
		rec[k] = v
	}
	rec[constants.FilenameField] = filename
	return rec
}

func parseEntities(data string) ([]entity.Entity, string, error) {
	doc, err := oj.ParseString(data)
	if err != nil {
		return nil, ReasonInvalidJSON, err
	}
	if err := schema.ValidateValue(schema.ExtractionPayload, doc); err != nil {
		return nil, ReasonInvalidShape, err
	}
	matches := entitiesPath.Get(doc)
	out := make([]entity.Entity, 0, len(matches))
	for _, m := range matches {
		obj, ok := m.(map[string]any)
		if !ok {
			return nil, ReasonInvalidShape, fmt.Errorf("entity is %T, not an object", m)
		}
		out = append(out, entity.Entity(obj))
	}
	return out, "", nil
}

// orderColumns sorts field names alphabetically and keeps filename last.
func orderColumns(set map[string]struct{}) []string {
	cols := make([]string, 0, len(set))
	hasFilename := false
	for k := range set {
		if k == constants.FilenameField {
			hasFilename = true
			continue
		}
		cols = append(cols, k)
	}
	sort.Strings(cols)
	if hasFilename {
		cols = append(cols, constants.FilenameField)
	}
	return cols
}
