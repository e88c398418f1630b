package objectstore_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/filedeck/pkg/objectstore"
)

func TestValidateKey(t *testing.T) {
	t.Parallel()

	valid := []string{"uploads/abc", "uploads/a/b/c.pdf", "file.txt", "uploads/my file.pdf", "uploads/dir/"}
	for _, key := range valid {
		assert.NoError(t, objectstore.ValidateKey(key), key)
	}

	invalid := []string{"", "/uploads/abc", "uploads/../secret", "uploads//abc", "./abc", "~user/abc", "uploads\\abc", "uploads/\x00"}
	for _, key := range invalid {
		assert.ErrorIs(t, objectstore.ValidateKey(key), objectstore.ErrInvalidKey, key)
	}
}

func TestObjectPathRoundTrip(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "/objects/uploads/abc", objectstore.ObjectPath("uploads/abc"))

	key, err := objectstore.KeyFromObjectPath("/objects/uploads/abc")
	require.NoError(t, err)
	assert.Equal(t, "uploads/abc", key)

	_, err = objectstore.KeyFromObjectPath("/files/uploads/abc")
	assert.ErrorIs(t, err, objectstore.ErrInvalidPath)

	_, err = objectstore.KeyFromObjectPath("/objects/../etc/passwd")
	assert.ErrorIs(t, err, objectstore.ErrInvalidPath)
}

func TestStore_NormalizeObjectPath(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, &MockS3Client{}, nil)

	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr error
	}{
		{
			name: "signed virtual-hosted url",
			raw:  "https://files-bucket.s3.amazonaws.com/uploads/abc?X-Amz-Algorithm=AWS4-HMAC-SHA256&X-Amz-Signature=deadbeef",
			want: "/objects/uploads/abc",
		},
		{
			name: "regional virtual-hosted url",
			raw:  "https://files-bucket.s3.us-east-1.amazonaws.com/uploads/abc",
			want: "/objects/uploads/abc",
		},
		{
			name: "path-style url",
			raw:  "https://s3.us-east-1.amazonaws.com/files-bucket/uploads/abc",
			want: "/objects/uploads/abc",
		},
		{
			name: "escaped characters",
			raw:  "https://files-bucket.s3.amazonaws.com/uploads/my%20file.pdf",
			want: "/objects/uploads/my file.pdf",
		},
		{
			name: "object path",
			raw:  "/objects/uploads/abc",
			want: "/objects/uploads/abc",
		},
		{
			name: "bare key",
			raw:  " uploads/abc ",
			want: "/objects/uploads/abc",
		},
		{
			name:    "foreign host",
			raw:     "https://evil.example.com/uploads/abc",
			wantErr: objectstore.ErrForeignURL,
		},
		{
			name:    "other bucket",
			raw:     "https://s3.amazonaws.com/other-bucket/uploads/abc",
			wantErr: objectstore.ErrForeignURL,
		},
		{
			name:    "absolute path outside objects",
			raw:     "/etc/passwd",
			wantErr: objectstore.ErrInvalidPath,
		},
		{
			name:    "traversal",
			raw:     "/objects/uploads/../../secret",
			wantErr: objectstore.ErrInvalidPath,
		},
		{
			name:    "bucket root",
			raw:     "https://files-bucket.s3.amazonaws.com/",
			wantErr: objectstore.ErrInvalidPath,
		},
		{
			name:    "empty",
			raw:     "",
			wantErr: objectstore.ErrInvalidPath,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := store.NormalizeObjectPath(tt.raw)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStore_NormalizeObjectPath_CustomEndpoint(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, &MockS3Client{}, nil, func(c *objectstore.Config) {
		c.Endpoint = "http://localhost:9000"
		c.ForcePathStyle = true
	})

	got, err := store.NormalizeObjectPath("http://localhost:9000/files-bucket/uploads/abc?X-Amz-Expires=900")
	require.NoError(t, err)
	assert.Equal(t, "/objects/uploads/abc", got)
	assert.Equal(t, "http://localhost:9000/files-bucket/uploads/abc", store.PublicURL("uploads/abc"))
}

func TestStore_PublicURL(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, &MockS3Client{}, nil)
	assert.Equal(t, "https://files-bucket.s3.us-east-1.amazonaws.com/uploads/my%20file.pdf", store.PublicURL("uploads/my file.pdf"))

	cdn := newTestStore(t, &MockS3Client{}, nil, func(c *objectstore.Config) {
		c.PublicBaseURL = "https://cdn.example.com"
	})
	assert.Equal(t, "https://cdn.example.com/uploads/abc", cdn.PublicURL("uploads/abc"))

	got, err := cdn.NormalizeObjectPath("https://cdn.example.com/uploads/abc")
	require.NoError(t, err)
	assert.Equal(t, "/objects/uploads/abc", got)
}
