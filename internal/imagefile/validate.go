package imagefile

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp" // Registers WebP decoding; WebP has no Go encoder
)

// ErrInvalidImage is returned when a downloaded file does not decode as
// an image, or cannot be re-encoded to the expected format. Callers
// delete the file and move on to the next candidate.
var ErrInvalidImage = errors.New("invalid image file")

// extensionFormats maps lowercase filename extensions to the format
// names the image registry reports. The JPEG family's two spellings map
// to the same format, as do TIFF's.
var extensionFormats = map[string]string{
	".jpg":  "jpeg",
	".jpeg": "jpeg",
	".png":  "png",
	".gif":  "gif",
	".webp": "webp",
	".bmp":  "bmp",
	".tif":  "tiff",
	".tiff": "tiff",
}

// FormatForExtension returns the image format implied by a filename's
// extension, or empty string if the extension is not recognized.
// Matching is case-insensitive.
func FormatForExtension(path string) string {
	return extensionFormats[strings.ToLower(filepath.Ext(path))]
}

// Result describes the outcome of validating one file.
type Result struct {
	// Format is the image format the file's bytes decoded as, before
	// any normalization.
	Format string

	// Normalized is true when the file was transcoded in place because
	// its decoded format did not match the extension-implied one.
	Normalized bool
}

// Validator checks that a downloaded file decodes as an image and, when
// its detected format disagrees with the filename extension, transcodes
// it in place to the expected format.
//
// Normalization is mandatory, not cosmetic: search-engine thumbnails are
// frequently served with a generic or wrong extension, and keeping raw
// bytes under a lying extension corrupts downstream consumers that trust
// the filename.
type Validator struct {
	// jpegQuality is the encoder quality used for JPEG targets.
	jpegQuality int

	// logger is used for structured debug logging.
	logger *slog.Logger
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithJPEGQuality sets the encoder quality for JPEG normalization.
func WithJPEGQuality(quality int) ValidatorOption {
	return func(v *Validator) {
		v.jpegQuality = quality
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) ValidatorOption {
	return func(v *Validator) {
		v.logger = logger
	}
}

// NewValidator creates a Validator.
func NewValidator(opts ...ValidatorOption) *Validator {
	v := &Validator{
		jpegQuality: 90,
	}

	for _, opt := range opts {
		opt(v)
	}

	if v.logger == nil {
		v.logger = slog.Default()
	}
	return v
}

// Validate decodes the file at path and normalizes its encoding if the
// detected format differs from the extension-implied one.
//
// On success the file at path is a valid image whose encoding matches
// its extension. On any failure (undecodable bytes, unknown or
// unencodable target format, re-encode error) it returns an error
// wrapping ErrInvalidImage and leaves deletion to the caller.
func (v *Validator) Validate(path string) (Result, error) {
	f, err := os.Open(path) //nolint:gosec // Path is the row's destination file
	if err != nil {
		return Result{}, fmt.Errorf("failed to open %s: %w", path, err)
	}

	img, format, err := image.Decode(f)
	closeErr := f.Close()
	if err != nil {
		return Result{}, fmt.Errorf("%w: %s does not decode: %v", ErrInvalidImage, path, err)
	}
	if closeErr != nil {
		return Result{}, fmt.Errorf("failed to close %s: %w", path, closeErr)
	}

	want := FormatForExtension(path)
	if want == "" {
		return Result{Format: format}, fmt.Errorf("%w: %s has an unrecognized extension", ErrInvalidImage, path)
	}

	if format == want {
		// No mutation: the file is accepted exactly as downloaded.
		return Result{Format: format}, nil
	}

	v.logger.Debug("format mismatch, normalizing",
		"path", path,
		"detected", format,
		"expected", want,
	)

	if err := v.reencode(img, path, want); err != nil {
		return Result{Format: format}, fmt.Errorf("%w: failed to normalize %s to %s: %v", ErrInvalidImage, path, want, err)
	}

	return Result{Format: format, Normalized: true}, nil
}

// reencode writes img to path in the given format, replacing the file.
func (v *Validator) reencode(img image.Image, path, format string) error {
	out, err := os.Create(path) //nolint:gosec // In-place normalization of the row's file
	if err != nil {
		return err
	}

	switch format {
	case "jpeg":
		// JPEG has no alpha channel: flatten transparency onto white
		// first so translucent pixels don't encode as garbage.
		err = jpeg.Encode(out, flatten(img), &jpeg.Options{Quality: v.jpegQuality})
	case "png":
		err = png.Encode(out, img)
	case "gif":
		err = gif.Encode(out, img, nil)
	case "bmp":
		err = bmp.Encode(out, img)
	case "tiff":
		err = tiff.Encode(out, img, nil)
	default:
		// webp and anything else without a Go encoder
		err = fmt.Errorf("no encoder for format %q", format)
	}

	if cerr := out.Close(); err == nil {
		err = cerr
	}
	return err
}

// flatten composites img over an opaque white background, producing a
// three-channel-equivalent image suitable for JPEG encoding.
func flatten(img image.Image) image.Image {
	if opaque, ok := img.(interface{ Opaque() bool }); ok && opaque.Opaque() {
		return img
	}

	bounds := img.Bounds()
	dst := image.NewRGBA(bounds)
	draw.Draw(dst, bounds, image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, bounds, img, bounds.Min, draw.Over)
	return dst
}
