package e2e

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"testing"

	"file-relay/domain"
	"file-relay/infrastructure/grpc/client"
	"file-relay/infrastructure/grpc/wire"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"github.com/zeebo/blake3"
)

type testFileTransferSuite struct {
	BaseGrpcSuite
}

func TestFileTransferSuite(t *testing.T) {
	suite.Run(t, &testFileTransferSuite{})
}

func (s *testFileTransferSuite) TestFullTransferFlow() {
	fileID := domain.FileID("e2e-" + uuid.NewString() + ".bin")
	// Three and a half chunks so the last frame is a short one.
	payload := make([]byte, s.Config.ChunkSize*7/2)
	_, err := rand.Read(payload)
	s.Require().NoError(err)
	digest := blake3.Sum256(payload)

	// --- STEP 1: UPLOAD ---
	s.Run("Step 1: Upload in chunks and verify the summary", func() {
		s.WithFileClient("Upload random payload", func(ctx context.Context, fileClient *client.FileClient) {
			result, err := fileClient.Upload(ctx, fileID, bytes.NewReader(payload))
			s.Require().NoError(err)
			s.Require().Equal(domain.CodeOK, result.Outcome.Code)
			s.Require().Equal(domain.DetailUploaded, result.Outcome.Detail)
			s.Require().EqualValues(len(payload), result.Size)
			s.Require().Equal(hex.EncodeToString(digest[:]), result.Digest)
		})
	})

	// --- STEP 2: DOWNLOAD OVER gRPC ---
	s.Run("Step 2: Download and validate chunk bounds", func() {
		s.WithFileClient("Download the uploaded payload", func(ctx context.Context, fileClient *client.FileClient) {
			stream, err := fileClient.Download(ctx, fileID)
			s.Require().NoError(err)
			defer stream.Close()

			var got bytes.Buffer
			frames := 0
			for {
				chunk, err := stream.Next()
				if errors.Is(err, io.EOF) {
					break
				}
				s.Require().NoError(err)
				s.Require().NotEmpty(chunk, "Protocol error: empty data frame")
				got.Write(chunk)
				frames++
			}
			s.Require().Equal(payload, got.Bytes())
			s.T().Logf("Success: received %d frames", frames)
		})
	})

	// --- STEP 3: PROTOCOL ERRORS ---
	s.Run("Step 3: Status codes for rejected requests", func() {
		s.WithFileClient("Missing and invalid files", func(ctx context.Context, fileClient *client.FileClient) {
			_, err := fileClient.Download(ctx, domain.FileID("e2e-"+uuid.NewString()))
			s.requireCode(err, domain.CodeNotFound)

			_, err = fileClient.Upload(ctx, "../escape.bin", bytes.NewReader([]byte("x")))
			s.requireCode(err, domain.CodeInvalidArgument)

			_, err = fileClient.ListFiles(ctx)
			s.requireCode(err, domain.CodeUnimplemented)
		})

		s.WithRawClient("Upload stream without any frame", func(ctx context.Context, raw wire.FileServiceClient) {
			stream, err := raw.UploadFile(ctx)
			s.Require().NoError(err)
			_, err = stream.CloseAndRecv()
			s.Require().Equal(domain.CodeInvalidArgument, wire.OutcomeFromError(domain.OpUpload, err).Code)
		})
	})

	// --- STEP 4: GATEWAY ---
	s.Run("Step 4: Download through the HTTP gateway", func() {
		s.WithGateway("Gateway download and error mapping", func(base string, httpClient *http.Client) {
			resp, err := httpClient.Get(base + "/download?file_name=" + url.QueryEscape(string(fileID)))
			s.Require().NoError(err)
			body, err := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			s.Require().NoError(err)
			s.Require().Equal(http.StatusOK, resp.StatusCode)
			s.Require().Equal(payload, body)

			resp, err = httpClient.Get(base + "/download?file_name=" + url.QueryEscape("e2e-"+uuid.NewString()))
			s.Require().NoError(err)
			var envelope struct {
				Error struct {
					Code    string `json:"code"`
					Message string `json:"message"`
				} `json:"error"`
			}
			s.Require().NoError(json.NewDecoder(resp.Body).Decode(&envelope))
			_ = resp.Body.Close()
			s.Require().Equal(http.StatusNotFound, resp.StatusCode)
			s.Require().Equal(domain.CodeNotFound.String(), envelope.Error.Code)
		})
	})
}

func (s *testFileTransferSuite) requireCode(err error, code domain.Code) {
	var outcome domain.Outcome
	s.Require().ErrorAs(err, &outcome)
	s.Require().Equal(code, outcome.Code, outcome.Detail)
}
