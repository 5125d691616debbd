package wire

import (
	"fmt"

	"file-relay/domain"

	"google.golang.org/protobuf/proto"
)

// Name is the content-subtype of the codec. It keeps the standard "proto"
// name because the bytes on the wire are plain protobuf.
const Name = "proto"

// Codec encodes file service messages with protowire and hands every other
// proto.Message (health checks, reflection) to the regular protobuf codec.
// Install it with grpc.ForceServerCodec and grpc.ForceCodec.
type Codec struct{}

func (Codec) Marshal(v any) ([]byte, error) {
	switch m := v.(type) {
	case Message:
		return m.marshal(make([]byte, 0, m.size())), nil
	case proto.Message:
		return proto.Marshal(m)
	default:
		return nil, fmt.Errorf("wire: cannot marshal %T", v)
	}
}

func (Codec) Unmarshal(data []byte, v any) error {
	switch m := v.(type) {
	case Message:
		return m.unmarshal(data)
	case proto.Message:
		return proto.Unmarshal(data, m)
	default:
		return fmt.Errorf("wire: cannot unmarshal into %T", v)
	}
}

func (Codec) Name() string {
	return Name
}

// EncodeUploadChunk frames a chunk for an upload stream. The file name is
// only written when the chunk carries one.
func EncodeUploadChunk(c domain.Chunk) *FileUploadRequest {
	return &FileUploadRequest{FileName: string(c.FileID), ChunkData: c.Payload}
}

func DecodeUploadChunk(m *FileUploadRequest) domain.Chunk {
	return domain.Chunk{Payload: m.GetChunkData(), FileID: domain.FileID(m.GetFileName())}
}

// EncodeDownloadChunk frames a chunk for a download stream. Download chunks
// never carry a file name; the id travels once in FileDownloadRequest.
func EncodeDownloadChunk(c domain.Chunk) *FileDownloadResponse {
	return &FileDownloadResponse{ChunkData: c.Payload}
}

func DecodeDownloadChunk(m *FileDownloadResponse) domain.Chunk {
	return domain.Chunk{Payload: m.GetChunkData()}
}

// MessageSizeLimit returns the gRPC message size limit that fits a chunk of
// chunkSize bytes plus framing, never below the gRPC default of 4 MiB.
func MessageSizeLimit(chunkSize int) int {
	return max(4*domain.MB, chunkSize+64*domain.KB)
}
