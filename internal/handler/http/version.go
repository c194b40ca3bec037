package http

import (
	"net/http"

	"github.com/MKhiriev/go-http-frame/internal/codes"
	"github.com/MKhiriev/go-http-frame/internal/response"
)

type versionData struct {
	Version string `json:"version"`
	Date    string `json:"date"`
	Commit  string `json:"commit"`
}

func (h *Handler) getServerVersion(w http.ResponseWriter, r *http.Request) error {
	return response.FromRequest(r).Success(w, codes.Version, versionData{
		Version: h.buildInfo.BuildVersion(),
		Date:    h.buildInfo.BuildDate(),
		Commit:  h.buildInfo.BuildCommit(),
	})
}
