package httpserver

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/branchweb/branchweb-go/internal/core/domain"
)

// DefaultMaxBodyBytes caps POST bodies when no limit is configured.
const DefaultMaxBodyBytes int64 = 32 << 20

// FormData holds named request values.
//
// Query pairs and form fields are strings, uploaded files are []byte and
// JSON bodies keep their decoded types.
type FormData map[string]any

// String returns the named value if it is a non-empty string.
func (f FormData) String(key string) (string, bool) {
	s, ok := f[key].(string)
	return s, ok && s != ""
}

// hasContentLength reports whether the client declared a body length.
func hasContentLength(r *http.Request) bool {
	if r.ContentLength > 0 {
		return true
	}
	return r.ContentLength == 0 && r.Header.Get("Content-Length") != ""
}

// parseBody decodes a POST body according to its media type.
func parseBody(r *http.Request, limit int64) (FormData, error) {
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return nil, domain.ErrBodyUnparseable.WithDetails("content type").WithCause(err)
	}
	body := http.MaxBytesReader(nil, r.Body, limit)

	var form FormData
	switch mediaType {
	case "application/json":
		form, err = parseJSON(body)
	case "multipart/form-data":
		form, err = parseMultipart(body, params["boundary"])
	case "application/x-www-form-urlencoded":
		form, err = parseURLEncoded(body)
	default:
		return nil, domain.ErrBodyUnparseable.WithDetails("unsupported content type " + mediaType)
	}
	if err != nil {
		return nil, domain.ErrBodyUnparseable.WithDetails(mediaType).WithCause(err)
	}
	return form, nil
}

func parseJSON(r io.Reader) (FormData, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var form FormData
	if err := dec.Decode(&form); err != nil {
		return nil, err
	}
	if form == nil {
		return nil, errors.New("body is not a JSON object")
	}
	if dec.More() {
		return nil, errors.New("trailing data after JSON object")
	}
	return form, nil
}

func parseMultipart(r io.Reader, boundary string) (FormData, error) {
	if boundary == "" {
		return nil, errors.New("multipart boundary missing")
	}
	mr := multipart.NewReader(r, boundary)
	form := make(FormData)
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return form, nil
		}
		if err != nil {
			return nil, err
		}

		name := part.FormName()
		var buf bytes.Buffer
		if _, err := io.Copy(&buf, part); err != nil {
			part.Close()
			return nil, err
		}
		part.Close()

		if name == "" {
			continue
		}
		if _, seen := form[name]; seen {
			continue
		}
		if part.FileName() != "" {
			form[name] = buf.Bytes()
		} else {
			form[name] = buf.String()
		}
	}
}

func parseURLEncoded(r io.Reader) (FormData, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	values, err := url.ParseQuery(string(raw))
	if err != nil {
		return nil, err
	}
	form := make(FormData, len(values))
	for k, v := range values {
		if len(v) > 0 {
			form[k] = v[0]
		}
	}
	return form, nil
}
