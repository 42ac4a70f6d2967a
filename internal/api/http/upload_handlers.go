package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Kinuseka/QuickFileManager/internal/api/ws"
	"github.com/Kinuseka/QuickFileManager/internal/providers/filesystem"
)

const gigabyte = 1024 * 1024 * 1024

// Upload handles single-request multipart uploads
func (h *Handlers) Upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "No file part in the request.")
		return
	}
	if header.Filename == "" {
		badRequest(c, "No selected file.")
		return
	}
	maxSize := h.upload.MaxFileSize()
	if header.Size > maxSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf(
			"File size (%.2fGB) exceeds maximum allowed size of %dGB.",
			float64(header.Size)/gigabyte, h.upload.MaxFileSizeGB)})
		return
	}

	sub := c.PostForm("path")
	f, err := header.Open()
	if err != nil {
		badRequest(c, "Could not read uploaded file.")
		return
	}
	defer f.Close()

	done := h.track("upload")
	res, err := h.fs.Basic.SaveUpload(c.Request.Context(), sub, header.Filename, f, maxSize)
	done(err)
	if err != nil {
		h.fail(c, "upload", fmt.Sprintf("Path: %s, File: %s", sub, header.Filename), err)
		return
	}

	h.activity(c, "upload", fmt.Sprintf("Path: %s, File: %s", sub, res.Filename))
	h.publish(ws.Change{Action: ws.ActionUploaded, Path: res.Path, Filename: res.Filename})
	c.JSON(http.StatusOK, res)
}

// UploadChunk handles one chunk of a chunked upload
func (h *Handlers) UploadChunk(c *gin.Context) {
	if !h.upload.EnableChunked {
		badRequest(c, "Chunked uploads are disabled.")
		return
	}

	header, err := c.FormFile("chunk")
	if err != nil {
		badRequest(c, "No chunk data provided")
		return
	}

	uploadID := c.PostForm("uploadId")
	rawIndex := c.PostForm("chunkIndex")
	rawTotal := c.PostForm("totalChunks")
	filename := c.PostForm("filename")
	if uploadID == "" || rawIndex == "" || rawTotal == "" || filename == "" {
		badRequest(c, "Missing required chunk parameters")
		return
	}
	index, err1 := strconv.Atoi(rawIndex)
	total, err2 := strconv.Atoi(rawTotal)
	if err1 != nil || err2 != nil || len(uploadID) > MaxUploadIDLen {
		badRequest(c, "Invalid chunk parameters")
		return
	}

	f, err := header.Open()
	if err != nil {
		badRequest(c, "No chunk data provided")
		return
	}
	defer f.Close()

	sub := c.PostForm("path")
	res, err := h.fs.Uploads.ReceiveChunk(c.Request.Context(), filesystem.ChunkRequest{
		UploadID:    uploadID,
		Index:       index,
		TotalChunks: total,
		Data:        f,
		Filename:    filename,
		SubPath:     sub,
	})
	if err != nil {
		h.recordChunk("error", 0)
		h.fail(c, "chunk_upload", fmt.Sprintf("Upload: %s, Chunk: %d", uploadID, index), err)
		return
	}
	h.recordChunk("accepted", header.Size)

	if res.Completed {
		if h.metrics != nil {
			h.metrics.IncUploadsAssembled()
		}
		h.activity(c, "chunked_upload", fmt.Sprintf("Path: %s, File: %s", sub, res.Filename))
		h.publish(ws.Change{Action: ws.ActionUploaded, Path: res.Path, Filename: res.Filename})
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handlers) recordChunk(status string, size int64) {
	if h.metrics != nil {
		h.metrics.RecordChunk(status, size)
	}
}

// CancelUpload abandons a chunked upload and discards its chunks
func (h *Handlers) CancelUpload(c *gin.Context) {
	var req CancelUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UploadID == "" {
		badRequest(c, "Upload ID is required")
		return
	}
	res := h.fs.Uploads.Cancel(req.UploadID)
	h.activity(c, "upload_cancelled", "Upload ID: "+req.UploadID)
	c.JSON(http.StatusOK, res)
}

// UploadStatus reports the progress of a chunked upload
func (h *Handlers) UploadStatus(c *gin.Context) {
	status, ok := h.fs.Uploads.Status(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Upload not found."})
		return
	}
	c.JSON(http.StatusOK, status)
}

// UploadConfig reports the upload settings clients must follow
func (h *Handlers) UploadConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"chunked_upload_enabled": h.upload.EnableChunked,
		"chunk_size_mb":          h.upload.ChunkSizeMB,
		"max_concurrent_chunks":  h.upload.MaxConcurrentChunks,
		"max_file_size_gb":       h.upload.MaxFileSizeGB,
	})
}
