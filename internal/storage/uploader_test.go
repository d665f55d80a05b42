package storage

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownloadURLEscapesPath(t *testing.T) {
	got := DownloadURL("b.appspot.com", "listings/abc/1.png", "tok")
	assert.Equal(t, "https://firebasestorage.googleapis.com/v0/b/b.appspot.com/o/listings%2Fabc%2F1.png?alt=media&token=tok", got)
}

func TestCheckContentType(t *testing.T) {
	tests := []struct {
		ct      string
		wantErr bool
	}{
		{"image/png", false},
		{"IMAGE/JPEG", false},
		{"application/pdf", true},
		{"", true},
	}
	for _, tt := range tests {
		if err := CheckContentType(tt.ct); (err != nil) != tt.wantErr {
			t.Fatalf("CheckContentType(%q) err=%v", tt.ct, err)
		}
	}
}

func TestMemoryUploader(t *testing.T) {
	u := NewMemoryUploader("bucket")
	ctx := context.Background()

	url, err := u.Upload(ctx, "listings/l1/a.png", "image/png", strings.NewReader("png"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "https://firebasestorage.googleapis.com/v0/b/bucket/o/listings%2Fl1%2Fa.png"))
	data, ok := u.Object("listings/l1/a.png")
	require.True(t, ok)
	assert.Equal(t, "png", string(data))

	_, err = u.Upload(ctx, "x.txt", "text/plain", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrUnsupportedType)

	big := bytes.Repeat([]byte{1}, MaxUploadBytes+1)
	_, err = u.Upload(ctx, "big.png", "image/png", bytes.NewReader(big))
	assert.ErrorIs(t, err, ErrTooLarge)
}
