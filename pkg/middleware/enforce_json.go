package middleware

import (
	"mime"
	"net/http"

	ce "github.com/MaxGiu67/nexa-version-management-api/pkg/errors"
	"github.com/labstack/echo/v4"
)

const JSONMimeType = "application/json"
const MultipartMimeType = "multipart/form-data"
const OctetStreamMimeType = "application/octet-stream"

// Binary upload endpoints take multipart or raw bodies, not JSON.
func enforceJSONContentTypeSkipper(c echo.Context) bool {
	if c.Request().Body == http.NoBody {
		return true
	}
	mediatype, _, _ := mime.ParseMediaType(c.Request().Header.Get("Content-Type"))
	return mediatype == MultipartMimeType || mediatype == OctetStreamMimeType
}

func EnforceJSONContentType(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if enforceJSONContentTypeSkipper(c) {
			return next(c)
		}
		mediatype, _, err := mime.ParseMediaType(c.Request().Header.Get("Content-Type"))
		if err != nil {
			return ce.NewErrorResponse(http.StatusUnsupportedMediaType, "Error parsing content type", err.Error())
		}
		if mediatype != JSONMimeType {
			return ce.NewErrorResponse(http.StatusUnsupportedMediaType, "Incorrect content type", "Content-Type must be application/json")
		}
		return next(c)
	}
}
