package domain

import (
	"errors"
	"fmt"

	errs "file-relay/errors"
)

// Code is the closed status taxonomy shared by every transport.
type Code int

const (
	CodeOK Code = iota
	CodeInvalidArgument
	CodeNotFound
	CodeInternal
	CodeUnimplemented
)

func (c Code) String() string {
	switch c {
	case CodeOK:
		return "OK"
	case CodeInvalidArgument:
		return "INVALID_ARGUMENT"
	case CodeNotFound:
		return "NOT_FOUND"
	case CodeInternal:
		return "INTERNAL"
	case CodeUnimplemented:
		return "UNIMPLEMENTED"
	default:
		return fmt.Sprintf("Code(%d)", int(c))
	}
}

// Operation names the call a terminal condition belongs to.
type Operation int

const (
	OpUpload Operation = iota
	OpDownload
	OpList
)

func (op Operation) String() string {
	switch op {
	case OpUpload:
		return "upload"
	case OpDownload:
		return "download"
	case OpList:
		return "list"
	default:
		return fmt.Sprintf("Operation(%d)", int(op))
	}
}

// Outcome is the terminal result of a session.
type Outcome struct {
	Code   Code
	Detail string
}

func (o Outcome) OK() bool {
	return o.Code == CodeOK
}

func (o Outcome) Error() string {
	return fmt.Sprintf("%s: %s", o.Code, o.Detail)
}

const (
	DetailUploaded       = "File uploaded successfully."
	DetailDownloaded     = "File downloaded successfully."
	DetailNoData         = "no file data provided"
	DetailInvalidFileID  = "invalid file name"
	DetailNotFound       = "file not found"
	DetailEmptyFile      = "file is empty"
	DetailUploadFailed   = "error during file upload"
	DetailDownloadFailed = "error during file download"
	DetailUnimplemented  = "method not implemented"
)

// Resolve maps the terminal error of a session onto the status taxonomy.
// A nil error resolves to OK.
func Resolve(op Operation, err error) Outcome {
	switch {
	case err == nil:
		if op == OpDownload {
			return Outcome{Code: CodeOK, Detail: DetailDownloaded}
		}
		return Outcome{Code: CodeOK, Detail: DetailUploaded}
	case errors.Is(err, errs.ErrNoDataProvided):
		return Outcome{Code: CodeInvalidArgument, Detail: DetailNoData}
	case errors.Is(err, errs.ErrInvalidFileID):
		return Outcome{Code: CodeInvalidArgument, Detail: DetailInvalidFileID}
	case errors.Is(err, errs.ErrNotFound):
		return Outcome{Code: CodeNotFound, Detail: DetailNotFound}
	case errors.Is(err, errs.ErrEmptyFile):
		return Outcome{Code: CodeInvalidArgument, Detail: DetailEmptyFile}
	case errors.Is(err, errs.ErrUnimplemented):
		return Outcome{Code: CodeUnimplemented, Detail: DetailUnimplemented}
	}

	// Any other failure, ErrIOFailure included, is an internal error of the operation.
	return Failed(op)
}

// Failed is the INTERNAL outcome of op. Its detail never carries the cause.
func Failed(op Operation) Outcome {
	switch op {
	case OpDownload:
		return Outcome{Code: CodeInternal, Detail: DetailDownloadFailed}
	case OpUpload:
		return Outcome{Code: CodeInternal, Detail: DetailUploadFailed}
	default:
		return Outcome{Code: CodeInternal, Detail: "internal error"}
	}
}
