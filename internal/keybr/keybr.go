// Package keybr reads keybr.com typing-data exports.
package keybr

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/verte-zerg/keystat/internal/model"
)

// ExportPattern matches the file names keybr.com uses for data exports.
const ExportPattern = "typing-data*.json"

// ErrNoExport is returned when no export file can be located.
var ErrNoExport = errors.New("no typing-data*.json export found")

type histogramEntry struct {
	CodePoint  int     `json:"codePoint"`
	HitCount   int     `json:"hitCount"`
	MissCount  int     `json:"missCount"`
	TimeToType float64 `json:"timeToType"`
}

type session struct {
	TimeStamp timestamp        `json:"timeStamp"`
	Speed     float64          `json:"speed"`
	Errors    int              `json:"errors"`
	Length    int              `json:"length"`
	Time      int64            `json:"time"`
	TextType  string           `json:"textType"`
	Histogram []histogramEntry `json:"histogram"`
}

// zonelessLayouts are accepted when a timestamp carries no offset; such
// values are read as UTC.
var zonelessLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

type timestamp struct {
	time.Time
}

func (t *timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	if parsed, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		t.Time = parsed
		return nil
	}
	for _, layout := range zonelessLayouts {
		if parsed, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("invalid timestamp %q", raw)
}

// Export describes an export file found on disk.
type Export struct {
	Path    string
	ModTime time.Time
	Size    int64
}

// Decode parses a keybr JSON export. A JSON null decodes to an empty,
// non-nil session list.
func Decode(r io.Reader) ([]model.Session, error) {
	var raw []session
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode export: %w", err)
	}
	out := make([]model.Session, 0, len(raw))
	for _, s := range raw {
		hist := make([]model.HistogramSample, len(s.Histogram))
		for i, h := range s.Histogram {
			hist[i] = model.HistogramSample{
				CodePoint:  h.CodePoint,
				HitCount:   h.HitCount,
				MissCount:  h.MissCount,
				TimeToType: h.TimeToType,
			}
		}
		out = append(out, model.Session{
			Timestamp:  s.TimeStamp.UTC(),
			Speed:      s.Speed,
			Errors:     s.Errors,
			Length:     s.Length,
			DurationMs: s.Time,
			TextType:   s.TextType,
			Histogram:  hist,
		})
	}
	return out, nil
}

// LoadFile reads and decodes the export at path.
func LoadFile(path string) ([]model.Session, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open export: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			// Best-effort close of a read-only file.
			_ = cerr
		}
	}()
	slog.Debug("keybr: loading export", "path", path)
	sessions, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	slog.Debug("keybr: export loaded", "path", path, "sessions", len(sessions))
	return sessions, nil
}

// FindLatest resolves the export to analyze. An existing dataFile wins;
// otherwise dataFile (when it names a directory) and dirs are searched in
// order and the newest export of the first directory holding one is returned.
func FindLatest(dataFile string, dirs ...string) (string, error) {
	var search []string
	if dataFile != "" {
		info, err := os.Stat(dataFile)
		if err == nil && !info.IsDir() {
			return dataFile, nil
		}
		search = append(search, dataFile)
	}
	search = append(search, dirs...)

	seen := map[string]struct{}{}
	for _, dir := range search {
		if dir == "" {
			continue
		}
		if _, ok := seen[dir]; ok {
			continue
		}
		seen[dir] = struct{}{}
		exports, err := ListExports(dir)
		if err != nil {
			slog.Debug("keybr: skipping search path", "dir", dir, "err", err)
			continue
		}
		if len(exports) > 0 {
			return exports[0].Path, nil
		}
	}
	return "", ErrNoExport
}

// ListExports returns the exports in dir, newest modification time first.
func ListExports(dir string) ([]Export, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to stat search path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}
	matches, err := filepath.Glob(filepath.Join(dir, ExportPattern))
	if err != nil {
		return nil, fmt.Errorf("failed to glob exports: %w", err)
	}
	exports := make([]Export, 0, len(matches))
	for _, path := range matches {
		fi, err := os.Stat(path)
		if err != nil || fi.IsDir() {
			continue
		}
		exports = append(exports, Export{Path: path, ModTime: fi.ModTime(), Size: fi.Size()})
	}
	sort.SliceStable(exports, func(i, j int) bool {
		return exports[i].ModTime.After(exports[j].ModTime)
	})
	return exports, nil
}
