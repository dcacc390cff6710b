package media

import (
	"log"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
)

// UploadHandler is POST /admin/uploads. Every part named files[] (or files)
// is saved; a file that fails is logged and listed under "failed" without
// failing the others.
func UploadHandler(storage Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		form, err := c.MultipartForm()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Expected multipart form"})
			return
		}
		files := append(form.File["files[]"], form.File["files"]...)
		if len(files) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No files uploaded"})
			return
		}

		urls := []string{}
		failed := []string{}
		for _, fh := range files {
			url, err := saveOne(c, storage, fh)
			if err != nil {
				log.Printf("❌ upload of %s failed: %v", fh.Filename, err)
				failed = append(failed, fh.Filename)
				continue
			}
			log.Printf("📷 uploaded %s -> %s", fh.Filename, url)
			urls = append(urls, url)
		}

		status := http.StatusOK
		if len(urls) == 0 {
			status = http.StatusInternalServerError
		}
		c.JSON(status, gin.H{"public_urls": urls, "failed": failed})
	}
}

func saveOne(c *gin.Context, storage Storage, fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()
	return storage.Save(c.Request.Context(), fh.Filename, f)
}
