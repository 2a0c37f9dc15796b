package metadata

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"livingroom/internal/services"
	"livingroom/internal/table"
)

// Survey and roster column names.
const (
	ColResponseID    = "ResponseID"
	ColSessionID     = "SessionID"
	ColParticipantID = "ParticipantID"

	ColParticipantOneID    = "ParticipantOneID"
	ColParticipantTwoID    = "ParticipantTwoID"
	ColParticipantOneFirst = "ParticipantOneFirstName"
	ColParticipantOneLast  = "ParticipantOneLastName"
	ColParticipantTwoFirst = "ParticipantTwoFirstName"
	ColParticipantTwoLast  = "ParticipantTwoLastName"
)

// Rows preceding the data in a survey export.
const preambleRows = 2

var idColumns = []string{ColSessionID, ColParticipantOneID, ColParticipantTwoID, ColParticipantID}

//go:embed legacy_ids.csv
var legacyIDs []byte

// NormalizeID renders an identifier as a three-digit zero-padded number.
// Every character other than digits and dots is discarded first, so "P8",
// "8.0" and "008" all become "008". ok is false when nothing numeric remains.
func NormalizeID(raw string) (string, bool) {
	var b strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	f, err := strconv.ParseFloat(b.String(), 64)
	if err != nil || math.IsInf(f, 0) {
		return "", false
	}
	return fmt.Sprintf("%03d", int64(f)), true
}

func normalizeValue(v table.Value) table.Value {
	if v.IsNull() {
		return v
	}
	id, ok := NormalizeID(v.String())
	if !ok {
		return table.Null()
	}
	return table.Str(id)
}

// ReadHeaderNames reads a comma-separated list of column names.
func ReadHeaderNames(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, wrapOpen("read header names", path, err)
	}
	data, _, err = transform.Bytes(bomStripper(), data)
	if err != nil {
		return nil, services.Wrap(services.ErrMalformedInput, "metadata", "read header names", path, err)
	}
	line := strings.TrimSpace(string(data))
	if line == "" {
		return nil, services.Wrap(services.ErrMalformedInput, "metadata", "read header names", path+" is empty", nil)
	}
	names := strings.Split(line, ",")
	for i := range names {
		names[i] = strings.Trim(strings.TrimSpace(names[i]), `"`)
	}
	return names, nil
}

// LoadQualtrics reads a survey export, naming its columns from headerPath
// and normalizing any ID columns present.
func LoadQualtrics(path, headerPath string) (*table.Table, error) {
	names, err := ReadHeaderNames(headerPath)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, wrapOpen("load survey", path, err)
	}
	defer file.Close()
	t, err := ParseQualtrics(file, names)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// ParseQualtrics reads survey rows after the export preamble. Cells are
// assigned to names positionally; short rows are padded with nulls.
func ParseQualtrics(r io.Reader, names []string) (*table.Table, error) {
	t, err := readCSV(r, names, preambleRows)
	if err != nil {
		return nil, err
	}
	for _, name := range idColumns {
		cells, ok := t.Column(name)
		if !ok {
			continue
		}
		for i := range cells {
			cells[i] = normalizeValue(cells[i])
		}
		if err := t.SetColumn(name, cells); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func readCSV(r io.Reader, names []string, skip int) (*table.Table, error) {
	reader := csv.NewReader(transform.NewReader(r, bomStripper()))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	t := table.New(names...)
	if len(t.Columns()) != len(names) {
		return nil, services.Wrap(services.ErrMalformedInput, "metadata", "parse", "duplicate header names", nil)
	}
	for line := 0; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, services.Wrap(services.ErrMalformedInput, "metadata", "parse", "", err)
		}
		if line < skip {
			continue
		}
		row := make([]table.Value, len(names))
		for i := range row {
			if i < len(record) && strings.TrimSpace(record[i]) != "" {
				row[i] = table.Str(record[i])
			}
		}
		if err := t.AppendRow(row...); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// LegacyIDs returns the response ID to session/participant lookup for
// exit-survey responses recorded before the export carried those fields.
func LegacyIDs() *table.Table {
	t, err := readCSV(bytes.NewReader(legacyIDs), []string{ColResponseID, ColSessionID, ColParticipantID}, 1)
	if err != nil {
		panic(fmt.Sprintf("embedded legacy ids: %v", err))
	}
	return t
}

// BackfillIDs fills missing SessionID and ParticipantID cells of the exit
// survey from legacy, matching on ResponseID. Present values are kept.
func BackfillIDs(survey, legacy *table.Table) error {
	if !survey.Has(ColResponseID) {
		return services.Wrap(services.ErrMalformedInput, "metadata", "backfill ids", "survey lacks "+ColResponseID, nil)
	}
	byResponse := make(map[string]int, legacy.Len())
	for i := 0; i < legacy.Len(); i++ {
		id := legacy.Get(i, ColResponseID)
		if id.IsNull() {
			continue
		}
		if _, dup := byResponse[id.String()]; !dup {
			byResponse[id.String()] = i
		}
	}
	for i := 0; i < survey.Len(); i++ {
		match, ok := byResponse[survey.Get(i, ColResponseID).String()]
		if !ok || survey.Get(i, ColResponseID).IsNull() {
			continue
		}
		for _, name := range []string{ColSessionID, ColParticipantID} {
			if survey.Get(i, name).IsNull() {
				survey.Set(i, name, normalizeValue(legacy.Get(match, name)))
			}
		}
	}
	return nil
}

func bomStripper() transform.Transformer {
	return unicode.BOMOverride(unicode.UTF8.NewDecoder())
}

func wrapOpen(op, path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return services.Wrap(services.ErrMissingResource, "metadata", op, path, err)
	}
	return fmt.Errorf("%s %s: %w", op, path, err)
}
