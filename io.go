/*
Copyright © 2025 the Building Clearance Simulator authors.
This file is part of the Building Clearance Simulator.

The Building Clearance Simulator is free software: you can redistribute it
and/or modify it under the terms of the GNU General Public License as
published by the Free Software Foundation, either version 3 of the License,
or (at your option) any later version.

The Building Clearance Simulator is distributed in the hope that it will be
useful, but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with the Building Clearance Simulator.  If not, see
<http://www.gnu.org/licenses/>.
*/

package clearance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/ctessum/requestcache"
	"github.com/tealeg/xlsx"
)

// The engine does no I/O during evaluation; these loaders build the
// nominal envelope from the table formats the envelope data source
// publishes in.

// ReadEnvelope reads an envelope table from JSON: an array of records with
// "lateral_mm" and "height_mm" fields, ordered base to top.
func ReadEnvelope(r io.Reader) (*Envelope, error) {
	var points []Point
	if err := json.NewDecoder(r).Decode(&points); err != nil {
		return nil, fmt.Errorf("clearance: decoding envelope table: %v", err)
	}
	return NewEnvelope(points)
}

// ReadEnvelopeTOML reads an envelope table from TOML, as a [[points]]
// array of the same records as the JSON form.
func ReadEnvelopeTOML(r io.Reader) (*Envelope, error) {
	var f struct {
		Points []Point `toml:"points"`
	}
	if _, err := toml.DecodeReader(r, &f); err != nil {
		return nil, fmt.Errorf("clearance: decoding envelope table: %v", err)
	}
	return NewEnvelope(f.Points)
}

// excelCache holds previously opened Microsoft Excel files
// to avoid reading the same file multiple times.
var excelCache *requestcache.Cache

var loadExcelCacheOnce sync.Once

func loadExcelFile(fileName string) (*xlsx.File, error) {
	loadExcelCacheOnce.Do(func() {
		excelCache = requestcache.NewCache(func(ctx context.Context, req interface{}) (interface{}, error) {
			filename := req.(string)
			f, err := xlsx.OpenFile(filename)
			if err != nil {
				return nil, fmt.Errorf("clearance: opening xlsx file: %v", err)
			}
			return f, nil
		}, runtime.GOMAXPROCS(-1), requestcache.Memory(100))
	})
	r := excelCache.NewRequest(context.Background(), fileName, fileName)
	fI, err := r.Result()
	if err != nil {
		return nil, err
	}
	return fI.(*xlsx.File), nil
}

// ReadEnvelopeXLSX reads an envelope table from the first two columns of a
// sheet in a Microsoft Excel file: lateral distance then height, one point
// per row, ordered base to top. A non-numeric first row is treated as a
// header and skipped. An empty sheet name selects the first sheet.
func ReadEnvelopeXLSX(fileName, sheet string) (*Envelope, error) {
	f, err := loadExcelFile(fileName)
	if err != nil {
		return nil, err
	}
	var s *xlsx.Sheet
	if sheet == "" {
		if len(f.Sheets) == 0 {
			return nil, fmt.Errorf("clearance: %s contains no sheets", fileName)
		}
		s = f.Sheets[0]
	} else {
		var ok bool
		if s, ok = f.Sheet[sheet]; !ok {
			return nil, fmt.Errorf("clearance: %s has no sheet %s", fileName, sheet)
		}
	}

	var points []Point
	for j := 0; j < s.MaxRow; j++ {
		lat := s.Cell(j, 0).Value
		hgt := s.Cell(j, 1).Value
		if lat == "" && hgt == "" {
			continue
		}
		l, errL := strconv.ParseFloat(lat, 64)
		h, errH := strconv.ParseFloat(hgt, 64)
		if errL != nil || errH != nil {
			if j == 0 { // header row
				continue
			}
			return nil, fmt.Errorf("clearance: %s row %d: non-numeric coordinates (%q, %q)",
				fileName, j+1, lat, hgt)
		}
		points = append(points, Point{LateralMM: l, HeightMM: h})
	}
	return NewEnvelope(points)
}

// OpenEnvelopeFile loads an envelope table, choosing the decoder from the
// file extension (.json, .toml, .xlsx).
func OpenEnvelopeFile(fileName string) (*Envelope, error) {
	switch ext := strings.ToLower(filepath.Ext(fileName)); ext {
	case ".json":
		f, err := os.Open(fileName)
		if err != nil {
			return nil, fmt.Errorf("clearance: opening envelope table: %v", err)
		}
		defer f.Close()
		return ReadEnvelope(f)
	case ".toml":
		f, err := os.Open(fileName)
		if err != nil {
			return nil, fmt.Errorf("clearance: opening envelope table: %v", err)
		}
		defer f.Close()
		return ReadEnvelopeTOML(f)
	case ".xlsx":
		return ReadEnvelopeXLSX(fileName, "")
	default:
		return nil, fmt.Errorf("clearance: unsupported envelope table format %q", ext)
	}
}
