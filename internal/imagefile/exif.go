package imagefile

import (
	"fmt"
	"os"

	exif "github.com/dsoprea/go-exif/v3"

	"github.com/jasonw-lab/collecter/internal/model"
)

// ExtractMeta reads the EXIF summary of the image at path.
// Most search-engine images carry no EXIF at all; that is not an error
// and yields an empty ImageMeta. Only I/O failures are reported.
func ExtractMeta(path string) (model.ImageMeta, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Path is the row's destination file
	if err != nil {
		return model.ImageMeta{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	rawExif, err := exif.SearchAndExtractExif(data)
	if err != nil || rawExif == nil {
		// No EXIF segment present; the common case for thumbnails.
		return model.ImageMeta{}, nil
	}

	entries, _, err := exif.GetFlatExifData(rawExif, nil)
	if err != nil {
		// Corrupt EXIF is tolerated the same way as absent EXIF.
		return model.ImageMeta{}, nil
	}

	var meta model.ImageMeta
	for _, entry := range entries {
		switch entry.TagName {
		case "Make":
			meta.CameraMake = entry.Formatted
		case "Model":
			meta.CameraModel = entry.Formatted
		case "Software":
			meta.Software = entry.Formatted
		case "DateTimeOriginal":
			meta.TakenAt = entry.Formatted
		}
	}
	return meta, nil
}
