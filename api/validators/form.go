package validators

import (
	"net/http"
	"strings"

	pkgerrors "github.com/angelmondragon/sitestock-backend/pkg/errors"
)

const maxFormBytes = 1 << 20

// ParseForm parses an urlencoded or multipart form body.
func ParseForm(r *http.Request) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxFormBytes)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxFormBytes); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid form body")
		}
		return nil
	}
	if err := r.ParseForm(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid form body")
	}
	return nil
}

// FormValue returns the trimmed value of a form field.
func FormValue(r *http.Request, key string) string {
	return strings.TrimSpace(r.PostForm.Get(key))
}

// FormValues returns every non-empty value submitted under key.
func FormValues(r *http.Request, key string) []string {
	var out []string
	for _, v := range r.PostForm[key] {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// OptionalFormValue returns nil for an absent or blank field.
func OptionalFormValue(r *http.Request, key string) *string {
	v := FormValue(r, key)
	if v == "" {
		return nil
	}
	return &v
}

// FormBool reads a checkbox style field: on, true and 1 are true.
func FormBool(r *http.Request, key string) bool {
	switch strings.ToLower(FormValue(r, key)) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}
