package upload

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/lms-server/internal/lib/apperr"
)

func multipartRequest(t *testing.T, field, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("fullName", "John Doe"))
	if field != "" {
		fw, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestSaver_Save(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, 1<<20)

	tests := []struct {
		name     string
		field    string
		filename string
		content  []byte
		wantFile bool
		wantKind apperr.Kind
		wantErr  bool
	}{
		{name: "png saved", field: "avatar", filename: "me.PNG", content: []byte("png"), wantFile: true},
		{name: "missing file", field: "", wantFile: false},
		{name: "unsupported extension", field: "avatar", filename: "run.exe", content: []byte("x"), wantErr: true, wantKind: apperr.KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := multipartRequest(t, tt.field, tt.filename, tt.content)
			require.NoError(t, s.ParseForm(httptest.NewRecorder(), req))

			f, err := s.Save(req, "avatar")
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, apperr.KindOf(err))
				return
			}
			require.NoError(t, err)
			if !tt.wantFile {
				assert.Nil(t, f)
				return
			}
			require.NotNil(t, f)
			assert.True(t, strings.HasSuffix(f.Path, ".png"))
			data, err := os.ReadFile(f.Path)
			require.NoError(t, err)
			assert.Equal(t, tt.content, data)

			require.NoError(t, f.Remove())
			_, err = os.Stat(f.Path)
			assert.True(t, os.IsNotExist(err))
			assert.NoError(t, f.Remove())
		})
	}
}

func TestSaver_ParseForm_TooLarge(t *testing.T) {
	s := New(t.TempDir(), 1024)
	req := multipartRequest(t, "avatar", "big.jpg", bytes.Repeat([]byte("a"), 4096))

	err := s.ParseForm(httptest.NewRecorder(), req)
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestSaver_JSONRequestIgnored(t *testing.T) {
	s := New(t.TempDir(), 1024)
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.c"}`))
	req.Header.Set("Content-Type", "application/json")

	require.NoError(t, s.ParseForm(httptest.NewRecorder(), req))
	f, err := s.Save(req, "avatar")
	assert.NoError(t, err)
	assert.Nil(t, f)
	var nilFile *File
	assert.NoError(t, nilFile.Remove())
}
