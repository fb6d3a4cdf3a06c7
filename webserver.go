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
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/ctessum/geom/encoding/geojson"
)

// Server exposes the engine over HTTP for the graphical interface and
// batch scripts: the transformed boundary for drawing, and single-point
// evaluation. It holds no state beyond the evaluator and is safe for
// concurrent requests.
type Server struct {
	Evaluator *Evaluator
	Log       *logrus.Logger
}

// NewServer creates a Server for the evaluator.
func NewServer(ev *Evaluator) *Server {
	return &Server{Evaluator: ev, Log: logrus.StandardLogger()}
}

// Handler returns the HTTP handler tree.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/boundary", s.boundaryHandler)
	mux.HandleFunc("/boundary.geojson", s.geoJSONHandler)
	mux.HandleFunc("/plot", s.plotHandler)
	mux.HandleFunc("/evaluate", s.evaluateHandler)
	return mux
}

func s2f(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	return f, err
}

// parseGeometryRequest reads the track geometry from query parameters:
// radius (meters, or "straight"), cant (mm), electrification (dc/ac/none).
func parseGeometryRequest(r *http.Request) (Geometry, error) {
	var g Geometry
	q := r.URL.Query()
	switch rad := q.Get("radius"); rad {
	case "", "straight":
		g.RadiusM = Straight
	default:
		v, err := s2f(rad)
		if err != nil {
			return g, fmt.Errorf("clearance: parsing radius %q: %v", rad, err)
		}
		g.RadiusM = v
	}
	if cant := q.Get("cant"); cant != "" {
		v, err := s2f(cant)
		if err != nil {
			return g, fmt.Errorf("clearance: parsing cant %q: %v", cant, err)
		}
		g.CantMM = v
	}
	elec, err := ParseElectrification(q.Get("electrification"))
	if err != nil {
		return g, err
	}
	g.Electrification = elec
	return g, nil
}

func parseMeasurementRequest(r *http.Request) (Measurement, error) {
	var m Measurement
	q := r.URL.Query()
	d, err := s2f(q.Get("distance"))
	if err != nil {
		return m, fmt.Errorf("clearance: parsing distance %q: %v", q.Get("distance"), err)
	}
	h, err := s2f(q.Get("height"))
	if err != nil {
		return m, fmt.Errorf("clearance: parsing height %q: %v", q.Get("height"), err)
	}
	m.DistanceMM = d
	m.HeightMM = h
	return m, nil
}

// httpError maps engine errors onto status codes: bad input is the
// caller's fault, an out-of-range height is unprocessable, anything else
// is internal.
func (s *Server) httpError(w http.ResponseWriter, err error) {
	var vErr *ValidationError
	var rangeErr *OutOfRangeError
	switch {
	case errors.As(err, &vErr):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &rangeErr):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
	s.Log.WithError(err).Warn("request failed")
}

func (s *Server) boundaryHandler(w http.ResponseWriter, r *http.Request) {
	g, err := parseGeometryRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	b, err := s.Evaluator.TransformedBoundary(g)
	if err != nil {
		s.httpError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(b.Points()); err != nil {
		s.Log.WithError(err).Error("encoding boundary")
	}
}

func (s *Server) geoJSONHandler(w http.ResponseWriter, r *http.Request) {
	g, err := parseGeometryRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	b, err := s.Evaluator.TransformedBoundary(g)
	if err != nil {
		s.httpError(w, err)
		return
	}
	data, err := geojson.Encode(b.Polygon())
	if err != nil {
		s.httpError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	if _, err := w.Write(data); err != nil {
		s.Log.WithError(err).Error("writing boundary geojson")
	}
}

func (s *Server) evaluateHandler(w http.ResponseWriter, r *http.Request) {
	g, err := parseGeometryRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	m, err := parseMeasurementRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	result, err := s.Evaluator.Evaluate(g, m)
	if err != nil {
		s.httpError(w, err)
		return
	}
	s.Log.WithFields(logrus.Fields{
		"radius":   g.RadiusM,
		"cant":     g.CantMM,
		"distance": m.DistanceMM,
		"height":   m.HeightMM,
		"status":   result.Status.String(),
	}).Info("evaluated")
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		s.Log.WithError(err).Error("encoding result")
	}
}

// plotHandler draws the nominal and transformed boundaries, and the
// measured point when one is supplied, as a PNG for the GUI.
func (s *Server) plotHandler(w http.ResponseWriter, r *http.Request) {
	g, err := parseGeometryRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	b, err := s.Evaluator.TransformedBoundary(g)
	if err != nil {
		s.httpError(w, err)
		return
	}

	p, err := plot.New()
	if err != nil {
		s.httpError(w, err)
		return
	}
	p.Title.Text = fmt.Sprintf("Building clearance\nR=%gm C=%gmm", g.RadiusM, g.CantMM)
	p.X.Label.Text = "Distance from track center (mm)"
	p.Y.Label.Text = "Height above rail top (mm)"

	nominal := s.Evaluator.Envelope().ForElectrification(g.Electrification, s.Evaluator.Constants())
	err = plotutil.AddLinePoints(p,
		"Nominal", closedXYs(nominal.ring()),
		"Transformed", closedXYs(b.Points()))
	if err != nil {
		s.httpError(w, err)
		return
	}
	if r.URL.Query().Get("distance") != "" {
		m, err := parseMeasurementRequest(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		err = plotutil.AddScatters(p, "Measured point",
			plotter.XYs{{X: m.DistanceMM, Y: m.HeightMM}})
		if err != nil {
			s.httpError(w, err)
			return
		}
	}

	ww, hh := 6.*vg.Inch, 6.*vg.Inch
	wt, err := p.WriterTo(ww, hh, "png")
	if err != nil {
		s.httpError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if _, err := wt.WriteTo(w); err != nil {
		s.Log.WithError(err).Error("writing plot")
	}
}

// closedXYs converts a vertex ring to plot points, repeating the first
// vertex so the drawn outline closes.
func closedXYs(points []Point) plotter.XYs {
	xys := make(plotter.XYs, len(points)+1)
	for i, pt := range points {
		xys[i].X = pt.LateralMM
		xys[i].Y = pt.HeightMM
	}
	xys[len(points)] = xys[0]
	return xys
}
