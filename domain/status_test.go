package domain

import (
	"context"
	"fmt"
	"strings"
	"testing"

	errs "file-relay/errors"

	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name   string
		op     Operation
		err    error
		code   Code
		detail string
	}{
		{"upload success", OpUpload, nil, CodeOK, DetailUploaded},
		{"download success", OpDownload, nil, CodeOK, DetailDownloaded},
		{"no chunks received", OpUpload, errs.ErrNoDataProvided, CodeInvalidArgument, DetailNoData},
		{"invalid file id", OpUpload, fmt.Errorf("%w: %q", errs.ErrInvalidFileID, "../x"), CodeInvalidArgument, DetailInvalidFileID},
		{"file absent", OpDownload, fmt.Errorf("stat: %w", errs.ErrNotFound), CodeNotFound, DetailNotFound},
		{"file empty", OpDownload, errs.ErrEmptyFile, CodeInvalidArgument, DetailEmptyFile},
		{"sink failure", OpUpload, fmt.Errorf("write: %w", errs.ErrIOFailure), CodeInternal, DetailUploadFailed},
		{"source failure", OpDownload, fmt.Errorf("read: %w", errs.ErrIOFailure), CodeInternal, DetailDownloadFailed},
		{"unclassified download failure", OpDownload, context.Canceled, CodeInternal, DetailDownloadFailed},
		{"method not offered", OpList, errs.ErrUnimplemented, CodeUnimplemented, DetailUnimplemented},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			outcome := Resolve(tt.op, tt.err)
			req.Equal(tt.code, outcome.Code)
			req.Equal(tt.detail, outcome.Detail)
			req.Equal(tt.err == nil, outcome.OK())
		})
	}
}

func TestCode_String(t *testing.T) {
	req := require.New(t)
	req.Equal("NOT_FOUND", CodeNotFound.String())
	req.Equal("Code(42)", Code(42).String())
	req.Equal("download", OpDownload.String())
	req.Equal("Operation(9)", Operation(9).String())
}

func TestValidateFileID(t *testing.T) {
	req := require.New(t)

	req.NoError(ValidateFileID("a.txt"))
	req.NoError(ValidateFileID("report 2026.final.pdf"))

	for _, id := range []FileID{"", ".", "..", "../etc/passwd", "dir/file", `dir\file`, "nul\x00byte"} {
		err := ValidateFileID(id)
		req.ErrorIs(err, errs.ErrInvalidFileID, "id %q should be rejected", id)
	}

	long := make([]byte, 256)
	for i := range long {
		long[i] = 'a'
	}
	req.ErrorIs(ValidateFileID(FileID(long)), errs.ErrInvalidFileID)

	// 2 bytes per rune: 127 runes fit, 128 do not.
	req.NoError(ValidateFileID(FileID(strings.Repeat("é", 127))))
	req.ErrorIs(ValidateFileID(FileID(strings.Repeat("é", 128))), errs.ErrInvalidFileID)
}
