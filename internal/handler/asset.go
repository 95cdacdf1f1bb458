package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/social-auth/internal/response"
)

// MsgFileTooLarge answers an upload over the configured size limit.
const MsgFileTooLarge = "File exceeds the upload size limit"

// multipartMemory is how much of a multipart body is held in memory before
// net/http spills it to disk.
const multipartMemory = 8 << 20

// AssetHandler forwards uploads to the media host.
type AssetHandler struct {
	uploader Uploader // nil when no media host is configured
	maxBytes int64
	logger   *slog.Logger
}

// NewAssetHandler creates an AssetHandler. Pass a nil uploader (not a typed
// nil pointer) to run without a media host; uploads then fail with 500.
func NewAssetHandler(uploader Uploader, maxBytes int64, logger *slog.Logger) *AssetHandler {
	return &AssetHandler{uploader: uploader, maxBytes: maxBytes, logger: logger}
}

// HandleUpload accepts one file in the multipart field "file".
//
// HTTP: POST /user/upload (multipart/form-data)
func (h *AssetHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if h.uploader == nil {
		h.logger.Error("upload rejected: no media host configured")
		response.JSON(w, http.StatusInternalServerError, MsgAssetUploadError, nil)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.JSON(w, http.StatusRequestEntityTooLarge, MsgFileTooLarge, nil)
			return
		}
		response.JSON(w, http.StatusBadRequest, MsgFileNotFound, nil)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		response.JSON(w, http.StatusBadRequest, MsgFileNotFound, nil)
		return
	}
	defer file.Close()

	asset, err := h.uploader.Upload(r.Context(), header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		response.Error(w, err, MsgAssetUploadError)
		return
	}
	response.JSON(w, http.StatusOK, MsgAssetUploadSuccess, asset)
}
