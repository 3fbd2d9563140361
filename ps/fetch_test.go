package ps

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectScheme(t *testing.T) {
	tests := []struct {
		location string
		want     urlScheme
	}{
		{"s3://bucket/key", schemeS3},
		{"S3://bucket/key", schemeS3},
		{"https://example.com/db.tar.gz", schemeHTTPS},
		{"http://example.com/db.tar.gz", schemeHTTP},
		{"file:///tmp/db.tar.gz", schemeFile},
		{"ssh://git@example.com/db.git", schemeSSH},
		{"git@example.com:db.git", schemeSSH},
		{"/var/lib/db", schemeLocal},
		{"relative/db.tgz", schemeLocal},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, detectScheme(tt.location), tt.location)
	}
}

func TestParseS3URL(t *testing.T) {
	bucket, key, err := parseS3URL("s3://backups/dbs/main.tar.gz")
	require.NoError(t, err)
	assert.Equal(t, "backups", bucket)
	assert.Equal(t, "dbs/main.tar.gz", key)

	for _, bad := range []string{"s3://bucket", "s3://bucket/", "s3:///key"} {
		_, _, err := parseS3URL(bad)
		assert.Error(t, err, bad)
	}
}

func TestIsArchive(t *testing.T) {
	assert.True(t, isArchive("backup.TAR.GZ"))
	assert.True(t, isArchive("s3://b/x.tgz"))
	assert.False(t, isArchive("/var/lib/db"))
}

func TestOpenReaderLocal(t *testing.T) {
	original := osOpen
	defer func() { osOpen = original }()

	var opened string
	osOpen = func(path string) (io.ReadCloser, error) {
		opened = path
		return io.NopCloser(strings.NewReader("data")), nil
	}

	r, err := OpenReader(context.Background(), "file:///tmp/x.tar.gz", nil)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, "/tmp/x.tar.gz", opened, "file:// prefix is stripped")
}

func TestOpenWriterHTTP(t *testing.T) {
	_, err := OpenWriter(context.Background(), "https://example.com/x", nil)
	assert.Error(t, err, "HTTP destinations are read-only")
}
