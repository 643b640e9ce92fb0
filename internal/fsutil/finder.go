// Package fsutil provides file system utility functions.
package fsutil

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// DocumentExtensions are the file extensions read as description documents.
var DocumentExtensions = []string{".xml", ".fieldml", ".hcl"}

// FindFilesByExtension recursively searches the given root path for all files
// ending with one of the given extensions. Matching is case insensitive and
// the result is sorted.
func FindFilesByExtension(fs afero.Fs, rootPath string, extensions ...string) ([]string, error) {
	if len(extensions) == 0 {
		panic("at least one extension is required")
	}

	var files []string
	err := afero.Walk(fs, rootPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(info.Name()))
		for _, want := range extensions {
			if ext == want {
				files = append(files, path)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// FindDocuments returns path itself when it is a file, or every description
// document below it when it is a directory.
func FindDocuments(fs afero.Fs, path string) ([]string, error) {
	info, err := fs.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	return FindFilesByExtension(fs, path, DocumentExtensions...)
}
