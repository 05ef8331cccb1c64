package extract

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/soundprediction/metalink/pkg/portal"
	"github.com/soundprediction/metalink/pkg/types"
)

func recordType(itemType string) types.RecordType {
	switch strings.ToLower(strings.TrimSpace(itemType)) {
	case "project", "study":
		return types.ProjectRecord
	case "file":
		return types.FileRecord
	case "wiki":
		return types.WikiRecord
	default:
		return types.DatasetRecord
	}
}

// normalize converts one raw portal item into a typed record. Fields
// the portal never supplied stay absent; the record is tagged
// incomplete when any required field is missing.
func (e *Extractor) normalize(item portal.Item, scope string, now time.Time) types.MetadataRecord {
	record := types.MetadataRecord{
		ID:          item.ID,
		Type:        recordType(item.Type),
		Fields:      make(map[string]types.FieldValue, len(item.Fields)),
		Scope:       scope,
		ParentID:    item.ParentID,
		ExtractedAt: now,
	}
	for name, raw := range item.Fields {
		fv := normalizeValue(raw)
		if !fv.Present {
			continue
		}
		record.Fields[name] = fv
	}
	record.Status = e.status(&record)
	if record.Status == types.RecordIncomplete {
		e.logger.Debug("incomplete record passed through",
			slog.String("id", record.ID),
			slog.String("type", string(record.Type)))
	}
	return record
}

// normalizeWiki emits the companion wiki record for a project item,
// keyed <projectID>:Wiki like the portal's own wiki addressing.
func (e *Extractor) normalizeWiki(item portal.Item, scope string, now time.Time) types.MetadataRecord {
	record := types.MetadataRecord{
		ID:          item.ID + ":Wiki",
		Type:        types.WikiRecord,
		Fields:      make(map[string]types.FieldValue, 2),
		Scope:       scope,
		ParentID:    item.ID,
		ExtractedAt: now,
	}
	if item.Wiki.Title != "" {
		record.Fields["title"] = types.FieldValue{
			Raw: item.Wiki.Title, Values: []string{item.Wiki.Title}, Present: true,
		}
	}
	if item.Wiki.Markdown != "" {
		record.Fields["markdown"] = types.FieldValue{
			Raw: item.Wiki.Markdown, Values: []string{item.Wiki.Markdown}, Present: true,
		}
	}
	record.Status = e.status(&record)
	return record
}

func (e *Extractor) status(record *types.MetadataRecord) types.RecordStatus {
	for _, required := range e.config.RequiredFields[record.Type] {
		if !record.Field(required).Present {
			return types.RecordIncomplete
		}
	}
	return types.RecordComplete
}

// normalizeValue flattens one raw field value. List-valued fields are
// exploded into Values; scalars become a single-element list.
func normalizeValue(raw any) types.FieldValue {
	switch v := raw.(type) {
	case nil:
		return types.FieldValue{}
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return types.FieldValue{}
		}
		return types.FieldValue{Raw: s, Values: []string{s}, Present: true}
	case []any:
		values := make([]string, 0, len(v))
		for _, entry := range v {
			fv := normalizeValue(entry)
			if fv.Present {
				values = append(values, fv.Values...)
			}
		}
		if len(values) == 0 {
			return types.FieldValue{}
		}
		return types.FieldValue{Raw: strings.Join(values, "; "), Values: values, Present: true}
	case []string:
		values := make([]string, 0, len(v))
		for _, s := range v {
			if s = strings.TrimSpace(s); s != "" {
				values = append(values, s)
			}
		}
		if len(values) == 0 {
			return types.FieldValue{}
		}
		return types.FieldValue{Raw: strings.Join(values, "; "), Values: values, Present: true}
	case float64:
		s := strconv.FormatFloat(v, 'f', -1, 64)
		return types.FieldValue{Raw: s, Values: []string{s}, Present: true}
	case int:
		s := strconv.Itoa(v)
		return types.FieldValue{Raw: s, Values: []string{s}, Present: true}
	case bool:
		s := strconv.FormatBool(v)
		return types.FieldValue{Raw: s, Values: []string{s}, Present: true}
	default:
		s := strings.TrimSpace(fmt.Sprintf("%v", v))
		if s == "" {
			return types.FieldValue{}
		}
		return types.FieldValue{Raw: s, Values: []string{s}, Present: true}
	}
}
