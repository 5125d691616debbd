// Package wire holds the messages of the file_service.FileService protocol,
// their protobuf wire encoding and the gRPC stubs built on top of them.
//
// The field numbers match proto/file_service.proto, so peers using stubs
// generated from that file interoperate with this package.
package wire

import (
	"fmt"
	"unicode/utf8"

	"google.golang.org/protobuf/encoding/protowire"
)

// Message is implemented by every message of the file service.
type Message interface {
	size() int
	marshal(b []byte) []byte
	unmarshal(b []byte) error
}

const (
	uploadFileNameField  protowire.Number = 1
	uploadChunkDataField protowire.Number = 2

	uploadResponseMessageField protowire.Number = 1
	uploadResponseSizeField    protowire.Number = 2
	uploadResponseDigestField  protowire.Number = 3

	downloadFileNameField  protowire.Number = 1
	downloadChunkDataField protowire.Number = 1

	listFileNamesField protowire.Number = 1
)

type FileUploadRequest struct {
	FileName  string
	ChunkData []byte
}

func (m *FileUploadRequest) GetFileName() string {
	if m == nil {
		return ""
	}
	return m.FileName
}

func (m *FileUploadRequest) GetChunkData() []byte {
	if m == nil {
		return nil
	}
	return m.ChunkData
}

func (m *FileUploadRequest) size() int {
	return sizeString(uploadFileNameField, m.FileName) + sizeBytes(uploadChunkDataField, m.ChunkData)
}

func (m *FileUploadRequest) marshal(b []byte) []byte {
	b = appendString(b, uploadFileNameField, m.FileName)
	return appendBytes(b, uploadChunkDataField, m.ChunkData)
}

func (m *FileUploadRequest) unmarshal(b []byte) error {
	*m = FileUploadRequest{}
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == uploadFileNameField && typ == protowire.BytesType:
			v, n, err := consumeString(num, b)
			m.FileName = v
			return n, err
		case num == uploadChunkDataField && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			m.ChunkData = cloneBytes(v)
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
}

type FileUploadResponse struct {
	Message string
	Size    int64
	Digest  string
}

func (m *FileUploadResponse) GetMessage() string {
	if m == nil {
		return ""
	}
	return m.Message
}

func (m *FileUploadResponse) size() int {
	n := sizeString(uploadResponseMessageField, m.Message) + sizeString(uploadResponseDigestField, m.Digest)
	if m.Size != 0 {
		n += protowire.SizeTag(uploadResponseSizeField) + protowire.SizeVarint(uint64(m.Size))
	}
	return n
}

func (m *FileUploadResponse) marshal(b []byte) []byte {
	b = appendString(b, uploadResponseMessageField, m.Message)
	if m.Size != 0 {
		b = protowire.AppendTag(b, uploadResponseSizeField, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(m.Size))
	}
	return appendString(b, uploadResponseDigestField, m.Digest)
}

func (m *FileUploadResponse) unmarshal(b []byte) error {
	*m = FileUploadResponse{}
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == uploadResponseMessageField && typ == protowire.BytesType:
			v, n, err := consumeString(num, b)
			m.Message = v
			return n, err
		case num == uploadResponseSizeField && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			m.Size = int64(v)
			return n, nil
		case num == uploadResponseDigestField && typ == protowire.BytesType:
			v, n, err := consumeString(num, b)
			m.Digest = v
			return n, err
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
}

type FileDownloadRequest struct {
	FileName string
}

func (m *FileDownloadRequest) GetFileName() string {
	if m == nil {
		return ""
	}
	return m.FileName
}

func (m *FileDownloadRequest) size() int {
	return sizeString(downloadFileNameField, m.FileName)
}

func (m *FileDownloadRequest) marshal(b []byte) []byte {
	return appendString(b, downloadFileNameField, m.FileName)
}

func (m *FileDownloadRequest) unmarshal(b []byte) error {
	*m = FileDownloadRequest{}
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == downloadFileNameField && typ == protowire.BytesType {
			v, n, err := consumeString(num, b)
			m.FileName = v
			return n, err
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
}

type FileDownloadResponse struct {
	ChunkData []byte
}

func (m *FileDownloadResponse) GetChunkData() []byte {
	if m == nil {
		return nil
	}
	return m.ChunkData
}

func (m *FileDownloadResponse) size() int {
	return sizeBytes(downloadChunkDataField, m.ChunkData)
}

func (m *FileDownloadResponse) marshal(b []byte) []byte {
	return appendBytes(b, downloadChunkDataField, m.ChunkData)
}

func (m *FileDownloadResponse) unmarshal(b []byte) error {
	*m = FileDownloadResponse{}
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == downloadChunkDataField && typ == protowire.BytesType {
			v, n := protowire.ConsumeBytes(b)
			m.ChunkData = cloneBytes(v)
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
}

type Empty struct{}

func (m *Empty) size() int { return 0 }

func (m *Empty) marshal(b []byte) []byte { return b }

func (m *Empty) unmarshal(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
}

type FileListResponse struct {
	FileNames []string
}

func (m *FileListResponse) size() int {
	n := 0
	for _, name := range m.FileNames {
		n += protowire.SizeTag(listFileNamesField) + protowire.SizeBytes(len(name))
	}
	return n
}

func (m *FileListResponse) marshal(b []byte) []byte {
	for _, name := range m.FileNames {
		b = protowire.AppendTag(b, listFileNamesField, protowire.BytesType)
		b = protowire.AppendString(b, name)
	}
	return b
}

func (m *FileListResponse) unmarshal(b []byte) error {
	*m = FileListResponse{}
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == listFileNamesField && typ == protowire.BytesType {
			v, n, err := consumeString(num, b)
			if n >= 0 && err == nil {
				m.FileNames = append(m.FileNames, v)
			}
			return n, err
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
}

// consumeFields walks every field of b. The callback returns the number of
// bytes it consumed from the field value, negative on malformed input.
func consumeFields(b []byte, field func(num protowire.Number, typ protowire.Type, b []byte) (int, error)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("wire: malformed tag: %w", protowire.ParseError(n))
		}
		b = b[n:]

		n, err := field(num, typ, b)
		if err != nil {
			return err
		}
		if n < 0 {
			return fmt.Errorf("wire: malformed field %d: %w", num, protowire.ParseError(n))
		}
		b = b[n:]
	}
	return nil
}

// consumeString reads a string field value. Like generated proto3 code it
// refuses strings that are not valid UTF-8.
func consumeString(num protowire.Number, b []byte) (string, int, error) {
	v, n := protowire.ConsumeString(b)
	if n >= 0 && !utf8.ValidString(v) {
		return "", n, fmt.Errorf("wire: string field %d contains invalid UTF-8", num)
	}
	return v, n, nil
}

// Proto3 scalars are omitted when they hold their zero value.

func sizeString(num protowire.Number, s string) int {
	if s == "" {
		return 0
	}
	return protowire.SizeTag(num) + protowire.SizeBytes(len(s))
}

func sizeBytes(num protowire.Number, v []byte) int {
	if len(v) == 0 {
		return 0
	}
	return protowire.SizeTag(num) + protowire.SizeBytes(len(v))
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	if len(v) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func cloneBytes(v []byte) []byte {
	if len(v) == 0 {
		return nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out
}
