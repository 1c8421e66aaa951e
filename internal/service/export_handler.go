package service

import (
	"errors"
	"log/slog"
	"mime"
	"net/http"

	"github.com/mmynk/splitledger/internal/export"
	"github.com/mmynk/splitledger/internal/storage"
)

// ExportPattern is the route of ServeExport.
const ExportPattern = "GET /export/{groupID}"

// ServeExport downloads a group export. The format query parameter selects
// "json" (default) or "xlsx".
func (s *GroupService) ServeExport(w http.ResponseWriter, r *http.Request) {
	groupID := r.PathValue("groupID")
	format := r.URL.Query().Get("format")
	slog.Info("Export request received", "group_id", groupID, "format", format)

	doc, err := s.export(r.Context(), groupID)
	if err != nil {
		slog.Error("Export failed", "group_id", groupID, "error", err)
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "Invalid group ID", http.StatusNotFound)
			return
		}
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}

	var (
		contentType string
		ext         string
		write       func() error
	)
	switch format {
	case "", "json":
		contentType, ext = "application/json", "json"
		write = func() error { return export.Encode(w, doc) }
	case "xlsx":
		contentType, ext = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "xlsx"
		write = func() error { return export.WriteXLSX(w, doc) }
	default:
		http.Error(w, "unknown format "+format, http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": export.Filename(s.now(), ext),
	}))
	if err := write(); err != nil {
		// Headers are gone; the client sees a truncated body.
		slog.Error("Export write failed", "group_id", groupID, "error", err)
		return
	}

	slog.Info("Export successful", "group_id", groupID, "format", ext)
}
