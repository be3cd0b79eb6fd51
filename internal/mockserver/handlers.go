package mockserver

import (
	"errors"
	"io/fs"
	"mime"
	"net/http"
	"strconv"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/dockerhttp/internal/example"
)

func fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, example.ErrorResult{Code: status, Message: message})
}

func (s *Server) health(c *gin.Context) {
	s.mu.RLock()
	n := len(s.resources)
	s.mu.RUnlock()

	c.JSON(http.StatusOK, gin.H{"status": "ok", "resources": n})
}

func (s *Server) listResources(c *gin.Context) {
	s.mu.RLock()
	resources := append([]example.Resource(nil), s.resources...)
	s.mu.RUnlock()

	c.JSON(http.StatusOK, resources)
}

func (s *Server) createResource(c *gin.Context) {
	var resource example.Resource
	if err := c.ShouldBindJSON(&resource); err != nil {
		fail(c, http.StatusBadRequest, "invalid resource: "+err.Error())
		return
	}
	if resource.Name == "" {
		fail(c, http.StatusBadRequest, "name is required")
		return
	}

	s.mu.Lock()
	if resource.ID == "" {
		resource.ID = strconv.Itoa(s.nextID)
		s.nextID++
	}
	if _, ok := s.find(resource.ID); ok {
		s.mu.Unlock()
		fail(c, http.StatusConflict, "resource "+resource.ID+" already exists")
		return
	}
	s.resources = append(s.resources, resource)
	s.mu.Unlock()

	c.Header("Location", "/resources/"+resource.ID)
	c.JSON(http.StatusCreated, resource)
}

func (s *Server) getResource(c *gin.Context) {
	s.mu.RLock()
	resource, ok := s.find(c.Param("id"))
	s.mu.RUnlock()

	if !ok {
		fail(c, http.StatusNotFound, "resource not found")
		return
	}
	c.JSON(http.StatusOK, resource)
}

func (s *Server) uploadFile(c *gin.Context) {
	id := c.Param("id")

	s.mu.RLock()
	_, ok := s.find(id)
	s.mu.RUnlock()
	if !ok {
		fail(c, http.StatusNotFound, "resource not found")
		return
	}

	header, err := c.FormFile("image")
	if err != nil {
		fail(c, http.StatusBadRequest, "missing image part")
		return
	}

	c.JSON(http.StatusOK, example.UploadResult{ID: id, File: header.Filename, Size: header.Size})
}

func (s *Server) downloadFile(c *gin.Context) {
	name := c.Param("name")
	if !fs.ValidPath(name) {
		fail(c, http.StatusBadRequest, "invalid file name")
		return
	}

	data, err := fs.ReadFile(s.files, name)
	if errors.Is(err, fs.ErrNotExist) {
		fail(c, http.StatusNotFound, "file not found")
		return
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	c.Data(http.StatusOK, mimetype.Detect(data).String(), data)
}

// find must be called with s.mu held.
func (s *Server) find(id string) (example.Resource, bool) {
	for _, r := range s.resources {
		if r.ID == id {
			return r, true
		}
	}
	return example.Resource{}, false
}
