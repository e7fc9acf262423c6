package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// maxParamsBody bounds JSON and urlencoded action bodies.
const maxParamsBody = 1 << 20

// readParams returns the action parameters of r from a JSON object body or
// from form values. JSON scalars are converted to their string form.
func readParams(w http.ResponseWriter, r *http.Request) (url.Values, error) {
	if !strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		r.Body = http.MaxBytesReader(w, r.Body, maxParamsBody)
		if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("parse form: %w", err)
		}
		return r.Form, nil
	}

	var body map[string]any
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxParamsBody)).Decode(&body); err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}

	vals := make(url.Values, len(body))
	for k, v := range body {
		switch t := v.(type) {
		case nil:
			continue
		case string:
			vals.Set(k, t)
		case float64:
			vals.Set(k, strconv.FormatFloat(t, 'f', -1, 64))
		default:
			vals.Set(k, fmt.Sprint(t))
		}
	}
	for k, v := range r.URL.Query() {
		if _, ok := vals[k]; !ok {
			vals[k] = v
		}
	}
	return vals, nil
}

// intParam parses an integer parameter, reporting whether it was present
// and valid.
func intParam(vals url.Values, name string) (int, bool) {
	raw := strings.TrimSpace(vals.Get(name))
	if raw == "" {
		return 0, false
	}
	i, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return i, true
}
