package models

import (
	"math"
	"time"
)

const (
	// HopNotProvided is the hop id of rows whose source has no hop column.
	HopNotProvided = "not provided"
	// UnknownCarrier is the carrier of rows whose source has no carrier column.
	UnknownCarrier = "unknown carrier"
)

// RawTable holds unprocessed tabular metadata exactly as read from disk.
// Header cells keep their original spelling; normalization happens later.
type RawTable struct {
	Source string
	Header []string
	Rows   [][]string
}

// LinkRecord is the canonical, vendor-independent description of one link.
// Coordinates are NaN when the source row does not carry them.
type LinkRecord struct {
	LinkID      string  `csv:"link_id"`
	HopID       string  `csv:"hop_id"`
	Carrier     string  `csv:"carrier"`
	TxLatitude  float64 `csv:"tx_latitude"`
	TxLongitude float64 `csv:"tx_longitude"`
	RxLatitude  float64 `csv:"rx_latitude"`
	RxLongitude float64 `csv:"rx_longitude"`
}

// NewLinkRecord returns a record with sentinel defaults and no coordinates.
func NewLinkRecord(id string) *LinkRecord {
	nan := math.NaN()
	return &LinkRecord{
		LinkID:      id,
		HopID:       HopNotProvided,
		Carrier:     UnknownCarrier,
		TxLatitude:  nan,
		TxLongitude: nan,
		RxLatitude:  nan,
		RxLongitude: nan,
	}
}

// HasCoordinates reports whether all four endpoint coordinates are finite.
func (l *LinkRecord) HasCoordinates() bool {
	for _, v := range []float64{l.TxLatitude, l.TxLongitude, l.RxLatitude, l.RxLongitude} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Clone returns a copy that can be mutated without touching l.
func (l *LinkRecord) Clone() *LinkRecord {
	c := *l
	return &c
}

// Sample is one point of a raw-data time series.
type Sample struct {
	Time  time.Time `json:"t"`
	Value float64   `json:"v"`
}

// RawDataSeries is the time-ordered signal of one link, used only for the
// popup chart of a single rendering pass.
type RawDataSeries struct {
	LinkID  string   `json:"linkId"`
	Carrier string   `json:"carrier"`
	Signal  string   `json:"signal"`
	Samples []Sample `json:"samples"`
}

// Empty reports whether the series carries no samples.
func (s *RawDataSeries) Empty() bool {
	return s == nil || len(s.Samples) == 0
}

// VendorFormat describes how one carrier names and lays out its raw-data files.
type VendorFormat struct {
	Carrier         string `csv:"carrier"`
	FilenamePattern string `csv:"filename_pattern"`
	SignalColumn    string `csv:"signal_column"`
	TimeColumn      string `csv:"time_column"`
	IntervalColumn  string `csv:"interval_column,omitempty"`
	CaseSensitive   bool   `csv:"case_sensitive"`
}
