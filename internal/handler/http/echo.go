package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/MKhiriev/go-http-frame/internal/codes"
	"github.com/MKhiriev/go-http-frame/internal/logger"
	"github.com/MKhiriev/go-http-frame/internal/response"
	"github.com/MKhiriev/go-http-frame/internal/utils"
)

type echoData struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// echo answers with the validated message, repeated as asked.
func (h *Handler) echo(w http.ResponseWriter, r *http.Request) error {
	body := utils.Section(r, "body")
	params := utils.Section(r, "params")
	query := utils.Section(r, "query")

	message, _ := body["message"].(string)
	name, _ := params["name"].(string)

	repeat := int64(1)
	if n, ok := query["repeat"].(json.Number); ok {
		if v, err := n.Int64(); err == nil {
			repeat = v
		}
	}

	logger.FromRequest(r).Debug().Str("name", name).Int64("repeat", repeat).Msg("echo")

	parts := make([]string, repeat)
	for i := range parts {
		parts[i] = message
	}

	return response.FromRequest(r).Success(w, codes.Success, echoData{
		Name:    name,
		Message: strings.Join(parts, " "),
	})
}
