package export

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/hupe1980/opinionsim/artifact"
	"github.com/hupe1980/opinionsim/logging"
	"github.com/klauspost/compress/zip"
)

// ErrEmptyBundle is returned when none of the requested files exist.
var ErrEmptyBundle = errors.New("no files found to bundle")

// ReadmeName is the name of the generated readme inside every bundle.
const ReadmeName = "README.txt"

// DefaultReadme describes how to use a deliverable bundle.
const DefaultReadme = `opinionsim deliverable

1. Build:   go install ./cmd/opinionsim
2. Run:     opinionsim run --config config.yaml
3. Results: simulation_result.json (raw_logs feed the heatmap and sankey
            views, trajectories feed the line chart)
`

// DefaultFiles is the whitelist packed when no files are given.
var DefaultFiles = []string{
	"config.yaml",
	"comments.csv",
	"simulation_result.json",
}

// Manifest records which requested files made it into a bundle.
type Manifest struct {
	Added   []string `json:"added"`
	Missing []string `json:"missing"`
}

// Bundle is a built deliverable archive.
type Bundle struct {
	Name     string
	Data     []byte
	Manifest Manifest
}

// BundleOptions configures NewBundle.
type BundleOptions struct {
	// BaseDir resolves relative file paths. Defaults to the working directory.
	BaseDir string
	// Readme replaces DefaultReadme.
	Readme string
	// Now stamps the bundle name.
	Now func() time.Time
	// Logger reports added and missing files.
	Logger logging.Logger
}

// BundleName returns the archive name for the given time.
func BundleName(t time.Time) string {
	return fmt.Sprintf("deliverable_%s.zip", t.Format("20060102_1504"))
}

// NewBundle zips the whitelisted files that exist plus a generated readme.
// Missing files are skipped and listed in the manifest. If no file exists
// ErrEmptyBundle is returned along with the bundle holding only the readme.
func NewBundle(files []string, optFns ...func(o *BundleOptions)) (*Bundle, error) {
	opts := BundleOptions{
		Readme: DefaultReadme,
		Now:    time.Now,
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	b := &Bundle{
		Name:     BundleName(opts.Now()),
		Manifest: Manifest{Added: []string{}, Missing: []string{}},
	}
	modified := opts.Now()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, file := range files {
		path := file
		if opts.BaseDir != "" && !filepath.IsAbs(file) {
			path = filepath.Join(opts.BaseDir, file)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				opts.Logger.Warn("bundle.missing", "file", file)
				b.Manifest.Missing = append(b.Manifest.Missing, file)
				continue
			}
			return nil, fmt.Errorf("reading %s: %w", file, err)
		}

		if err := addFile(zw, filepath.ToSlash(file), data, modified); err != nil {
			return nil, err
		}
		opts.Logger.Info("bundle.added", "file", file, "bytes", len(data))
		b.Manifest.Added = append(b.Manifest.Added, file)
	}

	if err := addFile(zw, ReadmeName, []byte(opts.Readme), modified); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalizing zip: %w", err)
	}
	b.Data = buf.Bytes()

	if len(b.Manifest.Added) == 0 {
		return b, ErrEmptyBundle
	}
	return b, nil
}

func addFile(zw *zip.Writer, name string, data []byte, modified time.Time) error {
	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: modified,
	})
	if err != nil {
		return fmt.Errorf("adding %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}

// SaveTo stores the archive in s under scope.
func (b *Bundle) SaveTo(s artifact.Store, scope string) error {
	if err := s.Save(scope, b.Name, b.Data); err != nil {
		return fmt.Errorf("saving bundle: %w", err)
	}
	return nil
}
