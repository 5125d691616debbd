package domain

import (
	"file-relay/errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

const KB = 1024
const MB = KB * KB

// DefaultChunkSize is the payload bound used when nothing else is configured.
const DefaultChunkSize = 1 * MB

// MaxFileIDBytes bounds the encoded length of a FileID, the usual NAME_MAX.
const MaxFileIDBytes = 255

// FileID is the external name under which a file's bytes are stored.
// The zero value means "absent" on a chunk.
type FileID string

// Chunk is one bounded unit of a file byte stream.
// FileID is only set on the first chunk of an upload stream.
type Chunk struct {
	Payload []byte
	FileID  FileID
}

func (c Chunk) HasFileID() bool {
	return c.FileID != ""
}

// UploadSummary describes a completed upload session.
type UploadSummary struct {
	FileID       FileID
	BytesWritten int64
	Chunks       int
	Digest       string
	MimeType     string
}

type fileIDRequest struct {
	FileID string `validate:"required,filename"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("filename", func(fl validator.FieldLevel) bool {
		return isSinglePathElement(fl.Field().String())
	})
	return v
}

// ValidateFileID rejects ids that cannot be mapped onto a single storage entry.
func ValidateFileID(id FileID) error {
	if err := validate.Struct(fileIDRequest{FileID: string(id)}); err != nil {
		return fmt.Errorf("%w: %q", errors.ErrInvalidFileID, id)
	}
	return nil
}

// isSinglePathElement counts bytes, not runes, since that is what the
// filesystem limits.
func isSinglePathElement(s string) bool {
	if len(s) > MaxFileIDBytes || s == "." || s == ".." {
		return false
	}
	return !strings.ContainsAny(s, "/\\\x00")
}
