package index

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
)

// FindVideos walks every root and returns the video files below them,
// sorted. Hidden files and directories are skipped, as are files with
// "sample" in the name. exts are lower-case extensions with a leading dot.
func FindVideos(ctx context.Context, roots, exts []string) ([]string, error) {
	seen := make(map[string]bool)
	var videos []string

	for _, root := range roots {
		root = filepath.Clean(root)
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if path != root && strings.HasPrefix(d.Name(), ".") {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() || !IsVideoFile(path, exts) {
				return nil
			}
			if strings.Contains(strings.ToLower(d.Name()), "sample") {
				return nil
			}
			if !seen[path] {
				seen[path] = true
				videos = append(videos, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", root, err)
		}
	}

	slices.Sort(videos)
	return videos, nil
}

// IsVideoFile reports whether path has one of the given extensions.
func IsVideoFile(path string, exts []string) bool {
	return slices.Contains(exts, strings.ToLower(filepath.Ext(path)))
}
