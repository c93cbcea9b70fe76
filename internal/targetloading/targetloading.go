// Package targetloading loads benchmark targets from CSV and JSON
// files and from inline command line lists. File-level problems are
// returned as errors while row-level problems (an invalid address, a
// short record, a duplicate) are skipped and counted, so one bad row
// never discards a whole file.
package targetloading

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/SoroushMB/DNS-Master/internal/model"
	"github.com/SoroushMB/DNS-Master/internal/runtimex"
	"github.com/pkg/errors"
)

// ErrUnsupportedFormat means the file extension is not one we load.
var ErrUnsupportedFormat = errors.New("targetloading: unsupported file format")

// Loader loads benchmark targets.
type Loader struct {
	// Logger is the OPTIONAL logger for skipped-row diagnostics.
	Logger model.Logger
}

// NewLoader creates a [*Loader] using the given logger.
func NewLoader(logger model.Logger) *Loader {
	return &Loader{Logger: logger}
}

// logger returns the configured logger or the default.
func (ld *Loader) logger() model.Logger {
	return model.ValidLoggerOrDefault(ld.Logger)
}

// LoadFile loads targets of the given kind from the file at path,
// dispatching on the file extension. It returns the valid targets and
// the number of rows it skipped.
func (ld *Loader) LoadFile(kind model.TargetKind, path string) ([]model.Target, int, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ld.loadCSV(kind, path)
	case ".json":
		return ld.loadJSON(kind, path)
	default:
		return nil, 0, errors.Wrap(ErrUnsupportedFormat, path)
	}
}

// ParseList parses an inline comma separated list of targets, such as
// the value of a command line flag. Invalid entries are skipped and
// counted like file rows; empty entries are ignored entirely.
func (ld *Loader) ParseList(kind model.TargetKind, raw string) ([]model.Target, int) {
	coll := newCollector(kind, ld.logger())
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		coll.add(entry, "")
	}
	return coll.targets, coll.skipped
}

func (ld *Loader) loadCSV(kind model.TargetKind, path string) ([]model.Target, int, error) {
	filep, err := os.Open(path)
	if err != nil {
		return nil, 0, errors.Wrap(err, "targetloading: cannot open file")
	}
	defer filep.Close()
	return ld.decodeCSV(kind, filep)
}

// decodeCSV reads CSV records with the identifier in the first column
// and an optional label in the second. The header row is optional and
// recognized by its first field.
func (ld *Loader) decodeCSV(kind model.TargetKind, reader io.Reader) ([]model.Target, int, error) {
	csvr := csv.NewReader(reader)
	csvr.FieldsPerRecord = -1
	csvr.TrimLeadingSpace = true
	coll := newCollector(kind, ld.logger())
	for idx := 0; ; idx++ {
		record, err := csvr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			coll.skip(err.Error())
			continue
		}
		if err != nil {
			return nil, 0, errors.Wrap(err, "targetloading: cannot read file")
		}
		address, label := splitRecord(record)
		if idx == 0 && isHeader(address) {
			continue
		}
		coll.add(address, label)
	}
	return coll.targets, coll.skipped, nil
}

// targetRecord is a row of a JSON targets file.
type targetRecord struct {
	// IP is the resolver address of a dns row.
	IP string `json:"ip"`

	// URL is the mirror URL of a mirror row.
	URL string `json:"url"`

	// Name is the OPTIONAL human readable label.
	Name string `json:"name"`
}

func (ld *Loader) loadJSON(kind model.TargetKind, path string) ([]model.Target, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, errors.Wrap(err, "targetloading: cannot open file")
	}
	var records []targetRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, 0, errors.Wrap(err, "targetloading: cannot parse file")
	}
	coll := newCollector(kind, ld.logger())
	for _, record := range records {
		address := record.IP
		if kind == model.TargetKindMirror {
			address = record.URL
		}
		coll.add(address, record.Name)
	}
	return coll.targets, coll.skipped, nil
}

// splitRecord extracts the identifier and the optional label from a
// CSV record.
func splitRecord(record []string) (address, label string) {
	if len(record) > 0 {
		address = strings.TrimSpace(record[0])
	}
	if len(record) > 1 {
		label = strings.TrimSpace(record[1])
	}
	return
}

// isHeader recognizes the optional header row of a CSV file.
func isHeader(field string) bool {
	switch strings.ToLower(field) {
	case "ip", "url":
		return true
	default:
		return false
	}
}

// collector accumulates valid rows and counts the skipped ones.
type collector struct {
	kind    model.TargetKind
	logger  model.Logger
	seen    map[string]bool
	skipped int
	targets []model.Target
}

func newCollector(kind model.TargetKind, logger model.Logger) *collector {
	return &collector{kind: kind, logger: logger, seen: make(map[string]bool)}
}

// add validates a row and either appends it or counts it as skipped.
// Duplicates count as skipped with the first occurrence winning.
func (c *collector) add(address, label string) {
	target, err := model.NewTarget(c.kind, address, label)
	if err != nil {
		c.skip(err.Error())
		return
	}
	if c.seen[target.Address] {
		c.skip("duplicate target: " + target.Address)
		return
	}
	c.seen[target.Address] = true
	c.targets = append(c.targets, target)
}

// skip counts a row we could not use.
func (c *collector) skip(reason string) {
	c.logger.Warnf("targetloading: skipping row: %s", reason)
	c.skipped++
}

// WellKnownResolvers returns the curated set of public resolvers used
// when the user does not provide their own targets.
func WellKnownResolvers() []model.Target {
	return []model.Target{
		runtimex.Try1(model.NewDNSTarget("1.1.1.1", "Cloudflare")),
		runtimex.Try1(model.NewDNSTarget("1.0.0.1", "Cloudflare")),
		runtimex.Try1(model.NewDNSTarget("8.8.8.8", "Google")),
		runtimex.Try1(model.NewDNSTarget("8.8.4.4", "Google")),
		runtimex.Try1(model.NewDNSTarget("9.9.9.9", "Quad9")),
		runtimex.Try1(model.NewDNSTarget("208.67.222.222", "OpenDNS")),
	}
}
