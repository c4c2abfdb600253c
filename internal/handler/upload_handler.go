package handler

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"menu-service/internal/middleware"
	"menu-service/internal/upload"
	"menu-service/pkg/logger"
	"menu-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ContentTypeUSDZ overrides generic static serving for .usdz files, which are
// zip-based containers misdetected by extension-based content sniffing
const ContentTypeUSDZ = "model/vnd.usdz+zip"

// UploadImage receives a dish image on the multipart field "image", validates
// it, stores it under the caller's restaurant namespace and returns an
// absolute, directly fetchable URL.
func UploadImage(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordUpload("image")

	user, ok := middleware.CurrentUser(c)
	if !ok || user.RestaurantID == nil {
		log.Warn("Upload without a linked restaurant")
		prometheus.RecordUploadError("image", "no_restaurant")
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Restaurant not found"})
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		log.Warn("No image file in upload request", zap.Error(err))
		prometheus.RecordUploadError("image", "no_file")
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "No file uploaded"})
	}

	store := upload.GetStore()

	// Validation and the size check both run before anything touches disk
	if err := upload.ImageValidator.Accept(fileHeader.Filename, fileHeader.Header.Get(echo.HeaderContentType)); err != nil {
		log.Warn("Image upload rejected",
			zap.String("filename", fileHeader.Filename),
			zap.Error(err))
		prometheus.RecordUploadError("image", "invalid_type")
		return c.JSON(http.StatusBadRequest, echo.Map{"message": err.Error()})
	}

	if err := store.CheckSize(fileHeader.Size); err != nil {
		log.Warn("Image upload too large",
			zap.String("filename", fileHeader.Filename),
			zap.Int64("size", fileHeader.Size))
		prometheus.RecordUploadError("image", "too_large")
		return c.JSON(http.StatusBadRequest, echo.Map{"message": err.Error()})
	}

	src, err := fileHeader.Open()
	if err != nil {
		log.Error("Failed to open uploaded image", zap.Error(err))
		prometheus.RecordUploadError("image", "read_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "upload failed"})
	}
	defer src.Close()

	name, err := store.SaveImage(*user.RestaurantID, fileHeader.Filename, src)
	if err != nil {
		log.Error("Failed to store uploaded image", zap.Error(err))
		prometheus.RecordUploadError("image", "write_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "upload failed"})
	}

	fileURL := fmt.Sprintf("%s://%s/api/upload/images/%d/%s", c.Scheme(), c.Request().Host, *user.RestaurantID, name)
	log.Info("Image uploaded",
		zap.Uint("restaurant_id", *user.RestaurantID),
		zap.String("filename", name))

	return c.JSON(http.StatusOK, echo.Map{"filePath": fileURL})
}

// UploadModel receives a 3D model on the multipart field "model" and stores it
// under the caller's restaurant namespace keeping the original filename, so a
// re-upload overwrites the previous version.
func UploadModel(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordUpload("model")

	user, ok := middleware.CurrentUser(c)
	if !ok || user.RestaurantID == nil {
		log.Warn("Upload without a linked restaurant")
		prometheus.RecordUploadError("model", "no_restaurant")
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "Restaurant not found"})
	}

	fileHeader, err := c.FormFile("model")
	if err != nil {
		log.Warn("No model file in upload request", zap.Error(err))
		prometheus.RecordUploadError("model", "no_file")
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "No model file uploaded"})
	}

	store := upload.GetStore()

	if err := upload.ModelValidator.Accept(fileHeader.Filename, fileHeader.Header.Get(echo.HeaderContentType)); err != nil {
		log.Warn("Model upload rejected",
			zap.String("filename", fileHeader.Filename),
			zap.Error(err))
		prometheus.RecordUploadError("model", "invalid_type")
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": err.Error()})
	}

	if err := store.CheckSize(fileHeader.Size); err != nil {
		log.Warn("Model upload too large",
			zap.String("filename", fileHeader.Filename),
			zap.Int64("size", fileHeader.Size))
		prometheus.RecordUploadError("model", "too_large")
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": err.Error()})
	}

	src, err := fileHeader.Open()
	if err != nil {
		log.Error("Failed to open uploaded model", zap.Error(err))
		prometheus.RecordUploadError("model", "read_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "Server error"})
	}
	defer src.Close()

	name, err := store.SaveModel(*user.RestaurantID, fileHeader.Filename, src)
	if err != nil {
		log.Error("Failed to store uploaded model", zap.Error(err))
		prometheus.RecordUploadError("model", "write_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "Server error"})
	}

	fileURL := fmt.Sprintf("%s://%s/api/upload/models/%d/%s", c.Scheme(), c.Request().Host, *user.RestaurantID, name)
	log.Info("Model uploaded",
		zap.Uint("restaurant_id", *user.RestaurantID),
		zap.String("filename", name))

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Model uploaded successfully",
		"fileUrl": fileURL,
	})
}

// GetImage streams a stored image back to the client
func GetImage(c echo.Context) error {
	log := logger.FromContext(c)

	path, err := upload.GetStore().Resolve(upload.ImagesDir, c.Param("restaurantId"), c.Param("name"))
	if err != nil {
		if os.IsNotExist(err) {
			return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "Image not found"})
		}
		log.Error("Failed to resolve image", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "Server error"})
	}

	return c.File(path)
}

// GetModel streams a stored 3D model back to the client, overriding the
// content type for .usdz containers
func GetModel(c echo.Context) error {
	log := logger.FromContext(c)

	name := c.Param("name")
	path, err := upload.GetStore().Resolve(upload.ModelsDir, c.Param("restaurantId"), name)
	if err != nil {
		if os.IsNotExist(err) {
			return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "Model file not found"})
		}
		log.Error("Failed to resolve model", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "Server error"})
	}

	if strings.HasSuffix(strings.ToLower(name), ".usdz") {
		c.Response().Header().Set(echo.HeaderContentType, ContentTypeUSDZ)
	}
	return c.File(path)
}
