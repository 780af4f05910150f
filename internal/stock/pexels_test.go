package stock

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"

	apperrors "github.com/anzal1/media-monkey/pkg/errors"
)

func testClient(url string) *Client {
	return &Client{
		http: resty.New().SetBaseURL(url).SetTimeout(5 * time.Second),
	}
}

func TestBestPortraitFile(t *testing.T) {
	v := pexelsVideo{VideoFiles: []videoFile{
		{Width: 1920, Height: 1080, Link: "landscape"},
		{Width: 720, Height: 1280, Link: "small"},
		{Width: 1080, Height: 1920, Link: "big"},
	}}
	assert.Equal(t, "big", bestPortraitFile(v))

	landscapeOnly := pexelsVideo{VideoFiles: []videoFile{
		{Width: 1920, Height: 1080, Link: "landscape"},
	}}
	assert.Empty(t, bestPortraitFile(landscapeOnly))
}

func TestFetchStillsEmptyResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/videos/search", r.URL.Path)
		assert.Equal(t, "portrait", r.URL.Query().Get("orientation"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"videos": []}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).FetchStills(context.Background(), "ocean", 3, t.TempDir())
	assert.True(t, apperrors.Is(err, apperrors.CodeStockFetch))
}

func TestFetchStillsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).FetchStills(context.Background(), "ocean", 3, t.TempDir())
	assert.True(t, apperrors.Is(err, apperrors.CodeStockFetch))
}

func TestFetchStillsZeroCount(t *testing.T) {
	paths, err := testClient("http://unused").FetchStills(context.Background(), "ocean", 0, t.TempDir())
	assert.NoError(t, err)
	assert.Empty(t, paths)
}
