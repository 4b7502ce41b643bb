package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pxilabs/pxi/internal/domain"
)

// ParseRecords reads fetcher output as CSV rows of
// indicator_id,date,value,source (date as YYYY-MM-DD). A header row
// starting with "indicator_id" is skipped.
func ParseRecords(r io.Reader) ([]domain.IndicatorValue, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 4
	cr.TrimLeadingSpace = true

	var values []domain.IndicatorValue
	line := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			return values, nil
		}
		if err != nil {
			return nil, fmt.Errorf("ingest records: %w", err)
		}
		line++
		if line == 1 && strings.EqualFold(record[0], "indicator_id") {
			continue
		}

		date, err := domain.ParseDate(record[1])
		if err != nil {
			return nil, fmt.Errorf("ingest records line %d: %w", line, err)
		}
		value, err := strconv.ParseFloat(record[2], 64)
		if err != nil {
			return nil, fmt.Errorf("ingest records line %d: bad value %q: %w", line, record[2], err)
		}
		values = append(values, domain.IndicatorValue{
			IndicatorID: record[0],
			Date:        date,
			Value:       value,
			Source:      record[3],
		})
	}
}
