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
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
)

func testServer() *Server {
	s := NewServer(defaultEvaluator())
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	s.Log = log
	return s
}

func TestServerEvaluate(t *testing.T) {
	srv := httptest.NewServer(testServer().Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/evaluate?radius=160&cant=105&electrification=dc&distance=2110&height=3150")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := ioutil.ReadAll(resp.Body)
		t.Fatalf("status %d: %s", resp.StatusCode, body)
	}
	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if result.Status != Safe {
		t.Errorf("status: have %v, want SAFE", result.Status)
	}
	if result.RequiredClearanceMM != 1501 || result.MarginMM != 609 {
		t.Errorf("have required %g margin %g, want 1501 and 609",
			result.RequiredClearanceMM, result.MarginMM)
	}
}

func TestServerEvaluateErrors(t *testing.T) {
	srv := httptest.NewServer(testServer().Handler())
	defer srv.Close()

	tests := []struct {
		query string
		code  int
	}{
		{"radius=abc&distance=2000&height=1000", http.StatusBadRequest},
		{"radius=50&distance=2000&height=1000", http.StatusBadRequest},
		{"radius=160&cant=-5&distance=2000&height=1000", http.StatusBadRequest},
		{"radius=160&distance=2000", http.StatusBadRequest}, // missing height
		{"radius=straight&distance=2000&height=9000", http.StatusUnprocessableEntity},
	}
	for _, test := range tests {
		resp, err := http.Get(srv.URL + "/evaluate?" + test.query)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != test.code {
			t.Errorf("%s: status %d, want %d", test.query, resp.StatusCode, test.code)
		}
	}
}

func TestServerBoundary(t *testing.T) {
	srv := httptest.NewServer(testServer().Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/boundary?radius=straight")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type %q", ct)
	}
	var points []Point
	if err := json.NewDecoder(resp.Body).Decode(&points); err != nil {
		t.Fatal(err)
	}
	if len(points) != 26 {
		t.Errorf("have %d boundary points, want 26", len(points))
	}
	// The straight-track boundary is mirror-symmetric.
	for _, pt := range points {
		ok := false
		for _, q := range points {
			if q.LateralMM == -pt.LateralMM && q.HeightMM == pt.HeightMM {
				ok = true
				break
			}
		}
		if !ok {
			t.Errorf("no mirror for boundary point %+v", pt)
		}
	}
}

func TestServerBoundaryGeoJSON(t *testing.T) {
	srv := httptest.NewServer(testServer().Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/boundary.geojson?radius=160&cant=105")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/geo+json" {
		t.Errorf("content type %q", ct)
	}
	var feature struct {
		Type string `json:"type"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&feature); err != nil {
		t.Fatal(err)
	}
	if feature.Type != "Polygon" {
		t.Errorf("geometry type %q, want Polygon", feature.Type)
	}
}

func TestServerPlot(t *testing.T) {
	srv := httptest.NewServer(testServer().Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/plot?radius=160&cant=105&distance=2110&height=3150")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("content type %q", ct)
	}
	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if len(body) == 0 {
		t.Error("empty plot body")
	}
}
