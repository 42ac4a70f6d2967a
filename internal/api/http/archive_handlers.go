package http

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Kinuseka/QuickFileManager/internal/api/ws"
)

// Zip handles archive creation, optionally deleting the archived items
func (h *Handlers) Zip(c *gin.Context) {
	var req ZipRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Items) == 0 || strings.TrimSpace(req.ArchiveName) == "" {
		badRequest(c, "Required parameters: 'items' (list) and 'archive_name'.")
		return
	}
	if len(req.Items) > MaxZipItems {
		badRequest(c, fmt.Sprintf("At most %d items can be archived at once.", MaxZipItems))
		return
	}

	done := h.track("zip")
	res, err := h.fs.Archives.CreateZip(c.Request.Context(), req.Items, req.ArchiveName, req.OutputPath)
	done(err)
	if err != nil {
		h.fail(c, "zip", "Archive: "+req.ArchiveName, err)
		return
	}
	h.activity(c, "zip", fmt.Sprintf("Archive: %s, Items: %d", res.ArchivePath, len(req.Items)))
	h.publish(ws.Change{Action: ws.ActionCreated, Path: res.ArchivePath, Type: ws.TypeFile})

	if req.DeleteAfterZip {
		removed := h.fs.Basic.BatchDelete(c.Request.Context(), outside(req.Items, res.ArchivePath))
		for _, p := range removed.Succeeded() {
			h.publish(ws.Change{Action: ws.ActionDeleted, Path: p})
		}
		if !removed.Success {
			res.Message += fmt.Sprintf(" %d original items could not be deleted.", len(removed.Failed()))
		}
	}
	c.JSON(http.StatusOK, res)
}

// Unzip handles zip extraction next to the archive or into extract_path
func (h *Handlers) Unzip(c *gin.Context) {
	var req UnzipRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ZipPath == "" {
		badRequest(c, "Required parameter: 'zip_path'.")
		return
	}

	done := h.track("unzip")
	res, err := h.fs.Archives.ExtractZip(c.Request.Context(), req.ZipPath, req.ExtractPath)
	done(err)
	if err != nil {
		h.fail(c, "unzip", "Archive: "+req.ZipPath, err)
		return
	}

	h.activity(c, "unzip", fmt.Sprintf("Archive: %s, Into: %s", req.ZipPath, res.Path))
	h.publish(ws.Change{Action: ws.ActionUnzippedInto, Path: res.Path})
	c.JSON(http.StatusOK, res)
}

// ArchiveContents lists any supported archive
func (h *Handlers) ArchiveContents(c *gin.Context) {
	h.listArchive(c, "Required query parameter: 'path' for the archive file.")
}

// ZipContents is the zip-era alias of ArchiveContents
func (h *Handlers) ZipContents(c *gin.Context) {
	h.listArchive(c, "Required query parameter: 'path' for the ZIP file.")
}

func (h *Handlers) listArchive(c *gin.Context, missing string) {
	p := c.Query("path")
	if p == "" {
		badRequest(c, missing)
		return
	}

	done := h.track("archive_list")
	listing, err := h.fs.Archives.List(c.Request.Context(), p)
	done(err)
	if err != nil {
		h.fail(c, "archive_list", "Path: "+p, err)
		return
	}
	if h.metrics != nil {
		h.metrics.RecordArchiveListing(string(listing.ArchiveType))
	}
	h.activity(c, "preview", "Archive: "+p)
	c.JSON(http.StatusOK, listing)
}

// outside drops items that contain the archive so deleting them keeps it.
func outside(items []string, archive string) []string {
	kept := make([]string, 0, len(items))
	for _, item := range items {
		dir := strings.Trim(item, "/")
		if dir == "" || archive == dir || strings.HasPrefix(archive, dir+"/") {
			continue
		}
		kept = append(kept, item)
	}
	return kept
}
