package coursecreate

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/lms-server/internal/lib/apperr"
	"github.com/magabrotheeeer/lms-server/internal/lib/upload"
	"github.com/magabrotheeeer/lms-server/internal/models"
	courseservice "github.com/magabrotheeeer/lms-server/internal/services/course"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Create(ctx context.Context, in courseservice.CreateInput) (*models.Course, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Course), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func multipartBody(t *testing.T, withThumbnail bool) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range map[string]string{"title": "Go", "description": "Basics", "category": "dev", "createdBy": "Ann"} {
		require.NoError(t, mw.WriteField(k, v))
	}
	if withThumbnail {
		fw, err := mw.CreateFormFile("thumbnail", "cover.jpg")
		require.NoError(t, err)
		_, err = fw.Write([]byte("jpeg"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func TestCourseCreateHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name           string
		thumbnail      bool
		mockErr        error
		wantStatusCode int
	}{
		{name: "with thumbnail", thumbnail: true, wantStatusCode: http.StatusCreated},
		{name: "without thumbnail", wantStatusCode: http.StatusCreated},
		{name: "media upload failed", thumbnail: true, mockErr: apperr.Upstream("failed to upload thumbnail", io.EOF), wantStatusCode: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			var course any
			if tt.mockErr == nil {
				course = &models.Course{ID: "c1", Title: "Go"}
			}
			svc.On("Create", mock.Anything, mock.MatchedBy(func(in courseservice.CreateInput) bool {
				return in.Title == "Go" && in.Description == "Basics" && in.Category == "dev" &&
					in.CreatedBy == "Ann" && (in.ThumbnailPath != "") == tt.thumbnail
			})).Return(course, tt.mockErr).Once()
			h := New(newNoopLogger(), svc, upload.New(t.TempDir(), 50<<20))

			body, contentType := multipartBody(t, tt.thumbnail)
			req := httptest.NewRequest(http.MethodPost, "/courses", body)
			req.Header.Set("Content-Type", contentType)
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatusCode, rr.Code)
			svc.AssertExpectations(t)
		})
	}
}
