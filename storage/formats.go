package storage

import (
	"fmt"
	"os"
	"strings"

	"github.com/jszwec/csvutil"

	"cml-linkmap/models"
)

// LoadVendorFormats reads the carrier to raw-data file convention table.
// Expected header: carrier,filename_pattern,signal_column,time_column,interval_column,case_sensitive
func LoadVendorFormats(path string) ([]models.VendorFormat, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("formats: read %q: %w", path, err)
	}

	var formats []models.VendorFormat
	if err := csvutil.Unmarshal(data, &formats); err != nil {
		return nil, fmt.Errorf("formats: decode %q: %w", path, err)
	}

	out := formats[:0]
	for _, f := range formats {
		f.Carrier = strings.ToLower(strings.TrimSpace(f.Carrier))
		if f.Carrier == "" || f.FilenamePattern == "" || f.SignalColumn == "" || f.TimeColumn == "" {
			return nil, fmt.Errorf("formats: %q: incomplete row for carrier %q", path, f.Carrier)
		}
		out = append(out, f)
	}
	return out, nil
}
