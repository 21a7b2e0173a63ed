package config

import (
	"bytes"
	"fmt"
	"io"
	"maps"
	"os"
	"path"
	"path/filepath"
	"slices"
	"sort"
	"time"

	"github.com/google/uuid"
	fixzip "github.com/hidez8891/zip"
	"github.com/maruel/natural"
	"go.uber.org/multierr"
	yaml "gopkg.in/yaml.v3"

	"slate/misc"
)

type ReporterConfig struct {
	Destination string `yaml:"destination" sanitize:"path_clean,assure_dir_exists_for_file" validate:"required,filepath"`
}

// Prepare creates initialized empty reporter.
func (conf *ReporterConfig) Prepare() (*Report, error) {

	r := &Report{entries: make(map[string]entry)}

	if f, err := os.Create(conf.Destination); err == nil {
		r.file = f
	} else if f, err = os.CreateTemp("", misc.GetAppName()+"-report.*.zip"); err == nil {
		r.file = f
	} else {
		return nil, fmt.Errorf("unable to create report: %w", err)
	}
	return r, nil
}

type entry struct {
	// file to read when report is finalized, empty for in-memory data
	path  string
	data  []byte
	stamp time.Time
	// where entry came from and what happened to it, for manifest only
	origin  string
	failure string
}

// ManifestEntry describes single report item in MANIFEST.yaml.
type ManifestEntry struct {
	Name    string    `yaml:"name"`
	Stamp   time.Time `yaml:"stamp"`
	Origin  string    `yaml:"origin,omitempty"`
	Size    int       `yaml:"size,omitempty"`
	Missing bool      `yaml:"missing,omitempty"`
	Failure string    `yaml:"failure,omitempty"`
}

// ManifestName is the name of the report table of contents.
const ManifestName = "MANIFEST.yaml"

// Report accumulates configuration, logs and compiled sources necessary to
// prepare full debug report.
// NOTE: presently not to be used concurrently!
type Report struct {
	entries map[string]entry
	file    *os.File
}

// Close finalizes debug report.
func (r *Report) Close() error {
	if r == nil {
		// Ignore uninitialized cases to avoid checking in many places. This means no report has been requested.
		return nil
	}
	if r.file == nil {
		return nil
	}
	err := r.finalize()
	return multierr.Append(err, r.file.Close())
}

// Name returns name of underlying file.
func (r *Report) Name() string {
	if r == nil || r.file == nil {
		return ""
	}
	if n, err := filepath.Abs(r.file.Name()); err == nil {
		return n
	}
	return r.file.Name()
}

func (r *Report) add(name string, e entry) {
	if _, exists := r.entries[name]; exists {
		// Somewhere I do not know what I am doing.
		panic(fmt.Sprintf("Attempt to overwrite entry in the report for [%s]", name))
	}
	if e.stamp.IsZero() {
		e.stamp = time.Now()
	}
	r.entries[name] = e
}

// Store saves path to file to be put in the final archive later, file is
// read when report is closed.
func (r *Report) Store(name, file string) {
	if r == nil {
		return
	}
	if p, err := filepath.Abs(file); err == nil {
		file = p
	}
	r.add(name, entry{path: file, origin: file})
}

// StoreData saves data to be put in the final archive later as a file under
// requested name.
func (r *Report) StoreData(name string, data []byte) {
	if r == nil {
		return
	}
	r.add(name, entry{data: data})
}

// StoreCompilation saves source and produced result (nil when compilation
// failed) under "compilations/<id>/" and returns id. Ids are time ordered.
func (r *Report) StoreCompilation(from string, source, result []byte, failure error) string {
	if r == nil {
		return ""
	}

	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	ref := id.String()

	var msg string
	if failure != nil {
		msg = failure.Error()
	}
	dir := path.Join("compilations", ref)
	r.add(path.Join(dir, "source"+filepath.Ext(from)), entry{data: source, origin: from, failure: msg})
	if result != nil {
		r.add(path.Join(dir, "result.css"), entry{data: result, origin: from})
	}
	return ref
}

// finalize creates the final archive (report) with all previously stored
// items.
func (r *Report) finalize() error {

	arc := fixzip.NewWriter(r.file)
	defer arc.Close()

	names, manifest := r.manifest()
	data, err := yaml.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("unable to prepare manifest: %w", err)
	}
	if err := saveFile(arc, ManifestName, time.Now(), bytes.NewReader(data)); err != nil {
		return err
	}

	// in the same order as in manifest
	for _, name := range names {
		e := r.entries[name]
		if len(e.path) == 0 {
			if err := saveFile(arc, name, e.stamp, bytes.NewReader(e.data)); err != nil {
				return err
			}
			continue
		}
		if err := saveDiskFile(arc, name, e.path); err != nil {
			return err
		}
	}
	return nil
}

func saveDiskFile(dst *fixzip.Writer, name, file string) error {
	info, err := os.Stat(file)
	if err != nil || !info.Mode().IsRegular() {
		// absent files are only mentioned in manifest
		return nil
	}
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()
	return saveFile(dst, name, info.ModTime(), f)
}

// manifest lists entries in natural order, so compilations go in the order
// they were made.
func (r *Report) manifest() ([]string, []ManifestEntry) {
	names := slices.Collect(maps.Keys(r.entries))
	sort.Sort(natural.StringSlice(names))

	out := make([]ManifestEntry, 0, len(names))
	for _, name := range names {
		e := r.entries[name]
		me := ManifestEntry{
			Name:    name,
			Stamp:   e.stamp.UTC(),
			Origin:  e.origin,
			Size:    len(e.data),
			Failure: e.failure,
		}
		if len(e.path) > 0 {
			if info, err := os.Stat(e.path); err == nil {
				me.Size = int(info.Size())
			} else {
				me.Missing = true
			}
		}
		out = append(out, me)
	}
	return names, out
}

func saveFile(dst *fixzip.Writer, name string, t time.Time, src io.Reader) error {
	hdr := &fixzip.FileHeader{Name: name, Method: fixzip.Deflate}
	hdr.SetModTime(t)
	w, err := dst.CreateHeader(hdr)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, src); err != nil {
		return err
	}
	return nil
}
