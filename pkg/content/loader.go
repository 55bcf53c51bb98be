package content

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

//go:embed data/*.json
var bundled embed.FS

// formatFor picks the decoder from a file extension.
func formatFor(name string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return FormatJSON, true
	case ".yaml", ".yml":
		return FormatYAML, true
	}
	return 0, false
}

// LoadFile reads and parses a single course file (.json, .yaml or .yml).
func LoadFile(filename string) (Course, error) {
	format, ok := formatFor(filename)
	if !ok {
		return Course{}, fmt.Errorf("load %s: unsupported extension", filename)
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return Course{}, err
	}
	c, err := Parse(data, format)
	if err != nil {
		return Course{}, fmt.Errorf("load %s: %w", filename, err)
	}
	return c, nil
}

// LoadFS parses every course file in dir of fsys, sorted by course id.
func LoadFS(fsys fs.FS, dir string) (*Catalog, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read course dir %s: %w", dir, err)
	}
	var courses []Course
	for _, e := range entries {
		format, ok := formatFor(e.Name())
		if e.IsDir() || !ok {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		c, err := Parse(data, format)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", e.Name(), err)
		}
		courses = append(courses, c)
	}
	sortCourses(courses)
	return NewCatalog(courses)
}

// LoadDir parses every course file in dir using a pool of workers.
// All parse errors are reported together.
func LoadDir(ctx context.Context, dir string, workers int) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read course dir %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if _, ok := formatFor(e.Name()); ok && !e.IsDir() {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no course files in %s", dir)
	}

	courses := make([]Course, len(files))
	errs := make([]error, len(files))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	pool := NewWorkerPool(workers, len(files))
	pool.Start(ctx)
	for i, f := range files {
		err := pool.SubmitCtx(ctx, func(ctx context.Context) error {
			courses[i], errs[i] = LoadFile(f)
			return errs[i]
		})
		if err != nil {
			pool.Close()
			return nil, err
		}
	}
	pool.Close()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	sortCourses(courses)
	return NewCatalog(courses)
}

// Default returns the bundled sample courses.
func Default() (*Catalog, error) {
	return LoadFS(bundled, "data")
}

func sortCourses(courses []Course) {
	sort.SliceStable(courses, func(i, j int) bool { return courses[i].ID < courses[j].ID })
}
