package ui

import (
	"runtime"
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/storage"
)

func storageURI(t *testing.T, path string) fyne.URI {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("posix paths only")
	}
	return storage.NewFileURI(path)
}
