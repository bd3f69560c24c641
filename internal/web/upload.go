package web

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/cleanse/internal/core"
)

// multipartMemory is how much of a multipart upload is buffered in memory
// before spilling to temporary files.
const multipartMemory = 32 << 20

// readUpload parses the "file" form field as CSV or XLSX.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (string, *core.RecordSet, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", nil, fmt.Errorf("%w: limit is %d bytes", errFileTooLarge, tooLarge.Limit)
		}
		return "", nil, errNoFile
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return "", nil, errNoFile
	}
	defer file.Close()

	var rs *core.RecordSet
	switch strings.ToLower(filepath.Ext(header.Filename)) {
	case ".csv", ".txt":
		rs, err = core.ReadCSV(file, header.Size)
	case ".xlsx":
		rs, err = core.ReadXLSX(file)
	default:
		return "", nil, fmt.Errorf("%w: %s", errUnsupported, header.Filename)
	}
	if err != nil {
		return "", nil, err
	}
	return filepath.Base(header.Filename), rs, nil
}

// stageAction runs the stage named by a URL action.
func (s *Server) stageAction(r *http.Request, id, action string) (core.Run, error) {
	ctx := r.Context()
	switch action {
	case "detect":
		return s.service.Detect(ctx, id)
	case "correct":
		return s.service.Correct(ctx, id)
	case "enrich":
		return s.service.Enrich(ctx, id)
	case "all":
		return s.service.RunAll(ctx, id)
	default:
		return core.Run{}, fmt.Errorf("%w: %s", errUnknownAction, action)
	}
}
