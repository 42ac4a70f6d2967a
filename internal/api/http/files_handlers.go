package http

import (
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Kinuseka/QuickFileManager/internal/api/ws"
	"github.com/Kinuseka/QuickFileManager/internal/providers/filesystem"
)

// ListFiles handles directory listing
func (h *Handlers) ListFiles(c *gin.Context) {
	sub := strings.TrimPrefix(c.Param("path"), "/")

	listing, err := h.fs.Directory.List(c.Request.Context(), sub)
	if err != nil {
		h.fail(c, "list", "Path: "+sub, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

// GetFileContent handles text file reads
func (h *Handlers) GetFileContent(c *gin.Context) {
	p := c.Query("path")
	if p == "" {
		badRequest(c, "File path is required.")
		return
	}

	done := h.track("read")
	content, err := h.fs.Basic.ReadText(c.Request.Context(), p)
	done(err)
	if err != nil {
		h.fail(c, "read", "Path: "+p, err)
		return
	}
	c.JSON(http.StatusOK, content)
}

// SaveFileContent handles text file writes
func (h *Handlers) SaveFileContent(c *gin.Context) {
	var req ContentRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Path == "" {
		badRequest(c, "File path is required.")
		return
	}

	done := h.track("write")
	res, err := h.fs.Basic.WriteText(c.Request.Context(), req.Path, req.Content)
	done(err)
	if err != nil {
		h.fail(c, "save", "Path: "+req.Path, err)
		return
	}

	h.activity(c, "save", "Path: "+req.Path)
	h.publish(ws.Change{Action: ws.ActionModified, Path: req.Path, Type: ws.TypeFile})
	c.JSON(http.StatusOK, res)
}

// CreateFolder handles folder creation
func (h *Handlers) CreateFolder(c *gin.Context) {
	var req PathRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Path == "" {
		badRequest(c, "Folder path is required.")
		return
	}

	done := h.track("create_folder")
	res, err := h.fs.Basic.CreateFolder(c.Request.Context(), req.Path)
	done(err)
	if err != nil {
		h.fail(c, "create_folder", "Path: "+req.Path, err)
		return
	}

	h.activity(c, "create_folder", "Path: "+req.Path)
	h.publish(ws.Change{Action: ws.ActionCreated, Path: req.Path, Type: ws.TypeFolder})
	c.JSON(http.StatusOK, res)
}

// DeleteItem handles single item deletion
func (h *Handlers) DeleteItem(c *gin.Context) {
	var req PathRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Path == "" {
		badRequest(c, "Item path is required for deletion.")
		return
	}

	done := h.track("delete")
	res, err := h.fs.Basic.Delete(c.Request.Context(), req.Path)
	done(err)
	if err != nil {
		h.fail(c, "delete", "Path: "+req.Path, err)
		return
	}

	h.activity(c, "delete", "Path: "+req.Path)
	h.publish(ws.Change{Action: ws.ActionDeleted, Path: req.Path})
	c.JSON(http.StatusOK, res)
}

// BatchDelete handles multi-item deletion. Each item succeeds or fails on
// its own; any failure makes the response a 400.
func (h *Handlers) BatchDelete(c *gin.Context) {
	var req BatchDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Paths) == 0 {
		badRequest(c, "A list of item paths is required.")
		return
	}
	if len(req.Paths) > MaxBatchItems {
		badRequest(c, fmt.Sprintf("At most %d items can be deleted at once.", MaxBatchItems))
		return
	}

	done := h.track("batch_delete")
	res := h.fs.Basic.BatchDelete(c.Request.Context(), req.Paths)
	if res.Success {
		done(nil)
	} else {
		done(fmt.Errorf("%d items failed", len(res.Failed())))
	}

	for _, p := range res.Succeeded() {
		h.publish(ws.Change{Action: ws.ActionDeleted, Path: p})
	}
	h.activity(c, "batch_delete", fmt.Sprintf("Deleted: %d, Failed: %d", len(res.Succeeded()), len(res.Failed())))

	status := http.StatusOK
	if !res.Success {
		status = http.StatusBadRequest
	}
	c.JSON(status, res)
}

// RenameItem handles in-place renames
func (h *Handlers) RenameItem(c *gin.Context) {
	var req RenameRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.CurrentPath == "" || req.NewName == nil {
		badRequest(c, "Required parameters: 'current_path' and 'new_name'")
		return
	}

	done := h.track("rename")
	res, err := h.fs.Operations.Rename(c.Request.Context(), req.CurrentPath, *req.NewName)
	done(err)
	if err != nil {
		h.fail(c, "rename", fmt.Sprintf("From: %s, To: %s", req.CurrentPath, *req.NewName), err)
		return
	}

	h.activity(c, "rename", fmt.Sprintf("From: %s, To: %s", req.CurrentPath, res.NewPath))
	h.publish(ws.Change{
		Action:     ws.ActionRenamed,
		Type:       req.Type,
		OldPath:    req.CurrentPath,
		NewPath:    res.NewPath,
		NewName:    res.NewName,
		ParentPath: parentOf(req.CurrentPath),
	})
	c.JSON(http.StatusOK, res)
}

// MoveItem handles moves into another directory. A target of "/" is the root.
func (h *Handlers) MoveItem(c *gin.Context) {
	var req MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Source == "" || req.Target == nil {
		badRequest(c, "Required parameters: 'source' and 'target'")
		return
	}
	target := *req.Target
	if target == "/" {
		target = ""
	}

	done := h.track("move")
	res, err := h.fs.Operations.Move(c.Request.Context(), req.Source, target)
	done(err)
	if err != nil {
		h.fail(c, "move", fmt.Sprintf("From: %s, To: %s", req.Source, target), err)
		return
	}

	h.activity(c, "move", fmt.Sprintf("From: %s, To: %s", req.Source, res.NewPath))
	h.publish(ws.Change{
		Action:       ws.ActionMoved,
		OldPath:      req.Source,
		NewPath:      res.NewPath,
		SourceParent: parentOf(req.Source),
		TargetParent: strings.Trim(target, "/"),
	})
	c.JSON(http.StatusOK, res)
}

// Search handles recursive name searches
func (h *Handlers) Search(c *gin.Context) {
	pattern := c.Query("pattern")
	if pattern == "" {
		badRequest(c, "Required query parameter: 'pattern'.")
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			badRequest(c, "Invalid limit.")
			return
		}
		limit = n
	}

	done := h.track("search")
	res, err := h.fs.Search.Find(c.Request.Context(), c.Query("path"), pattern, limit)
	done(err)
	if err != nil {
		h.fail(c, "search", "Pattern: "+pattern, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Stat handles single item metadata
func (h *Handlers) Stat(c *gin.Context) {
	p := c.Query("path")
	if p == "" {
		badRequest(c, "Required query parameter: 'path'.")
		return
	}

	info, err := h.fs.Metadata.Stat(c.Request.Context(), p)
	if err != nil {
		h.fail(c, "stat", "Path: "+p, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// PreviewIntent records that a client opened a file preview
func (h *Handlers) PreviewIntent(c *gin.Context) {
	var req PathRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Path == "" {
		badRequest(c, "File path is required.")
		return
	}

	ok, err := h.fs.Metadata.IsFile(c.Request.Context(), req.Path)
	if err != nil {
		h.fail(c, "preview", "Path: "+req.Path, err)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found."})
		return
	}

	h.activity(c, "preview", "Path: "+req.Path)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// inlineTypes are shown in the browser unless a download is forced
var inlineTypes = []string{"image/", "video/", "audio/", "text/", "application/pdf"}

func inlineable(contentType string) bool {
	for _, prefix := range inlineTypes {
		if strings.HasPrefix(contentType, prefix) {
			return true
		}
	}
	return false
}

// Download streams a file with range support. Previews and media are served
// inline; everything else, or any request with force_download, as an attachment.
func (h *Handlers) Download(c *gin.Context) {
	p := strings.TrimPrefix(c.Param("path"), "/")
	purpose := c.DefaultQuery("context", "download")
	force := c.Query("force_download") == "true"

	done := h.track("download")
	f, info, err := h.fs.Basic.OpenFile(c.Request.Context(), p)
	done(err)
	if err != nil {
		kind := filesystem.KindOf(err)
		if kind == filesystem.KindForbidden {
			h.activity(c, "access_denied", "Attempted: download, Path: "+p)
		}
		c.String(StatusFor(kind), err.Error())
		return
	}
	defer f.Close()

	if force || purpose != "preview" {
		h.activity(c, "download", "Path: "+p)
	}

	disposition := "attachment"
	if !force && (purpose == "preview" || inlineable(info.ContentType)) {
		disposition = "inline"
	}
	c.Header("Content-Type", info.ContentType)
	c.Header("Content-Disposition", mime.FormatMediaType(disposition, map[string]string{"filename": info.Name}))
	http.ServeContent(c.Writer, c.Request, info.Name, info.Modified, f)
}
