package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partsshop_v1_202610/internal/config"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)

func newLocalStorageService(t *testing.T) (*StorageService, string) {
	t.Helper()
	dir := t.TempDir()
	provider, err := NewStorageProvider(&config.StorageConfig{
		Provider: "local",
		BasePath: dir,
		Endpoint: "http://cdn.test/uploads/",
	})
	require.NoError(t, err)
	return NewStorageService(provider, nil), dir
}

func TestStorageService_LocalUploadAndDelete(t *testing.T) {
	svc, dir := newLocalStorageService(t)

	url, err := svc.UploadImage(adminCtx(), pngBytes, "motor")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://cdn.test/uploads/"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	file := filepath.Join(dir, filepath.FromSlash(strings.TrimPrefix(url, "http://cdn.test/uploads/")))
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, pngBytes, data)

	require.NoError(t, svc.Delete(adminCtx(), url))
	_, err = os.Stat(file)
	assert.True(t, os.IsNotExist(err))

	// 重复删除不报错
	assert.NoError(t, svc.Delete(adminCtx(), url))
	assert.ErrorIs(t, svc.Delete(adminCtx(), "http://cdn.test/uploads/../etc/passwd"), ErrInvalidArgument)
	assert.ErrorIs(t, svc.Delete(adminCtx(), "https://other.host/a.png"), ErrInvalidArgument)
}

func TestStorageService_UploadRejects(t *testing.T) {
	svc, _ := newLocalStorageService(t)

	tests := []struct {
		name string
		ctx  context.Context
		data []byte
		want error
	}{
		{"未登录", context.Background(), pngBytes, ErrUnauthorized},
		{"非管理员", staffCtx(), pngBytes, ErrForbidden},
		{"空文件", adminCtx(), nil, ErrInvalidArgument},
		{"非图片", adminCtx(), []byte("<html><body>hi</body></html>"), ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UploadImage(tt.ctx, tt.data, "a.png")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestStorageService_UploadFromURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/images/motor.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(pngBytes)
	}))
	defer srv.Close()

	svc, _ := newLocalStorageService(t)

	url, err := svc.UploadFromURL(adminCtx(), srv.URL+"/images/motor.png?size=large")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(url, ".png"))

	_, err = svc.UploadFromURL(adminCtx(), srv.URL+"/missing.png")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestNewStorageProvider_Unknown(t *testing.T) {
	_, err := NewStorageProvider(&config.StorageConfig{Provider: "ftp"})
	assert.Error(t, err)
}
