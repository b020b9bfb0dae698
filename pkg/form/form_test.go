package form

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Captain-Rohith/CommunityPulse/internal/apperr"
	"github.com/Captain-Rohith/CommunityPulse/pkg/tz"
)

func urlencoded(t *testing.T, v url.Values) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(v.Encode()))
	c.Request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c
}

func TestFields(t *testing.T) {
	c := urlencoded(t, url.Values{
		"title":      {"  Beach cleanup "},
		"latitude":   {"19.1"},
		"longitude":  {""},
		"price":      {"free"},
		"start_date": {"2025-03-01T09:30"},
		"end_date":   {"tomorrow"},
	})

	require.NotNil(t, String(c, "title"))
	assert.Equal(t, "Beach cleanup", *String(c, "title"))
	assert.Nil(t, String(c, "category"))

	lat, err := Float(c, "latitude")
	require.NoError(t, err)
	assert.Equal(t, 19.1, *lat)

	lon, err := Float(c, "longitude")
	require.NoError(t, err)
	assert.Nil(t, lon)

	_, err = Float(c, "price")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	start, err := Time(c, "start_date", tz.Kolkata)
	require.NoError(t, err)
	assert.Equal(t, 9, start.Hour())
	assert.Equal(t, tz.Kolkata, start.Location())

	_, err = Time(c, "end_date", tz.Kolkata)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestImage(t *testing.T) {
	img, done, err := Image(urlencoded(t, url.Values{"title": {"x"}}))
	require.NoError(t, err)
	assert.Nil(t, img)
	done()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("image", "poster.png")
	require.NoError(t, err)
	_, err = fw.Write([]byte("png-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/", &buf)
	c.Request.Header.Set("Content-Type", mw.FormDataContentType())

	img, done, err = Image(c)
	require.NoError(t, err)
	require.NotNil(t, img)
	defer done()
	assert.Equal(t, "poster.png", img.Filename)
	body, err := io.ReadAll(img.Body)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(body))
}
