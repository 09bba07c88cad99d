package media

import (
	"testing"

	"car-journal-backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestFolderPath(t *testing.T) {
	got := FolderPath("car-journal", models.EntityMaintenance, "5f0c")
	assert.Equal(t, "car-journal/maintenance/5f0c", got)
	assert.Equal(t, "car-journal/maintenance/5f0c/a.jpg", ObjectKey(got, "a.jpg"))
}

func TestPublicID(t *testing.T) {
	tests := map[string]string{
		"https://cdn.example.com/car-journal/cars/1/abc.jpg":         "abc.jpg",
		"https://cdn.example.com/car-journal/cars/1/abc.jpg?v=2":     "abc.jpg",
		"http://localhost:9000/bucket/car-journal/avatars/u/x.png#f": "x.png",
	}
	for url, want := range tests {
		assert.Equal(t, want, PublicID(url), url)
	}
}

func TestPublicURL_TrimsSlash(t *testing.T) {
	assert.Equal(t, "https://cdn.example.com/a/b.jpg", publicURL("https://cdn.example.com/", "a/b.jpg"))
}
