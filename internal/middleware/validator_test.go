package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateReportID(t *testing.T) {
	assert.NoError(t, ValidateReportID("RPT-a3f9c1d2-4b5e-4f6a-8b7c-9d0e1f2a3b4c"))

	for _, bad := range []string{
		"",
		"a3f9c1d2-4b5e-4f6a-8b7c-9d0e1f2a3b4c",
		"RPT-not-a-uuid",
		"RPT-A3F9C1D2-4B5E-4F6A-8B7C-9D0E1F2A3B4C",
	} {
		assert.Error(t, ValidateReportID(bad), bad)
	}
}

func TestValidatePlate(t *testing.T) {
	assert.NoError(t, ValidatePlate("DL01AB1234"))
	assert.NoError(t, ValidatePlate("HR26"))

	for _, bad := range []string{"", "dl01ab1234", "AB1", "DL 01 AB 1234"} {
		assert.Error(t, ValidatePlate(bad), bad)
	}
}

func TestValidateURL(t *testing.T) {
	assert.NoError(t, ValidateURL("https://cdn.example.com/evidence/x.jpg"))
	assert.NoError(t, ValidateURL("http://media.example.org/y.png"))

	for _, bad := range []string{
		"",
		"ftp://example.com/x.jpg",
		"https://localhost/x.jpg",
		"http://127.0.0.1:9000/x.jpg",
		"http://10.0.0.5/x.jpg",
		"http://192.168.1.20/x.jpg",
	} {
		assert.Error(t, ValidateURL(bad), bad)
	}
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "hello", SanitizeString("  hello  "))
	assert.Equal(t, "ab", SanitizeString("a\x00b"))
	assert.Equal(t, "line1\nline2", SanitizeString("line1\nline2"))
	assert.Equal(t, "ab", SanitizeString("a\x1bb"))
}

func TestValidateBounds(t *testing.T) {
	assert.Equal(t, 20, ValidateLimit(0))
	assert.Equal(t, 100, ValidateLimit(500))
	assert.Equal(t, 33, ValidateLimit(33))

	assert.Equal(t, 7, ValidateDays(-1))
	assert.Equal(t, 365, ValidateDays(1000))
	assert.Equal(t, 30, ValidateDays(30))
}
