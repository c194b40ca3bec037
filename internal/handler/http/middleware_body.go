package http

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/MKhiriev/go-http-frame/internal/response"
	"github.com/MKhiriev/go-http-frame/internal/utils"
)

// Default body size limits.
const (
	DefaultJSONLimit int64 = 1 << 20
	DefaultFormLimit int64 = 1 << 20
)

// BodyParserSettings selects the body parsers to install.
type BodyParserSettings struct {
	JSON       bool
	JSONLimit  int64
	URLEncoded bool
	FormLimit  int64
}

// WithBodyParser decodes JSON and urlencoded request bodies into the "body"
// section of the request data (see [utils.Section]). Numbers are kept as
// [json.Number]. Bodies over the limit are answered with
// server.payload_too_large (413), malformed bodies with server.invalid_body
// (400).
func WithBodyParser(settings BodyParserSettings) Middleware {
	if settings.JSONLimit <= 0 {
		settings.JSONLimit = DefaultJSONLimit
	}
	if settings.FormLimit <= 0 {
		settings.FormLimit = DefaultFormLimit
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body == nil || r.Body == http.NoBody {
				next.ServeHTTP(w, r)
				return
			}

			mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

			var (
				body any
				err  error
			)
			switch {
			case settings.JSON && isJSON(mediaType):
				r.Body = http.MaxBytesReader(w, r.Body, settings.JSONLimit)
				body, err = decodeJSON(r.Body)
			case settings.URLEncoded && mediaType == "application/x-www-form-urlencoded":
				r.Body = http.MaxBytesReader(w, r.Body, settings.FormLimit)
				if err = r.ParseForm(); err == nil {
					body = utils.ValuesSection(r.PostForm)
				}
			default:
				next.ServeHTTP(w, r)
				return
			}

			if err != nil {
				status := http.StatusBadRequest
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					status = http.StatusRequestEntityTooLarge
				}
				response.FromRequest(r).HandleError(w, r, response.WithStatus(err, status))
				return
			}

			if body != nil {
				var data *utils.RequestData
				r, data = utils.WithRequestData(r)
				data.Set("body", body)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isJSON(mediaType string) bool {
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// decodeJSON returns nil for an empty body.
func decodeJSON(body io.Reader) (any, error) {
	decoder := json.NewDecoder(body)
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}
	return value, nil
}
