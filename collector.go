package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ExportContext is what a collector sees of the running session. It is only
// valid for the duration of the collector call.
type ExportContext struct {
	GuildID        string
	Guild          *Guild
	ActionDelay    time.Duration
	FilenameFormat FilenameFormat
	MediaProxy     string

	Store      Store
	Client     APIClient
	Downloader *Downloader

	Logger *slog.Logger

	sink   Sink
	report func(status string)
	// nil means sleep
	sleeper func(ctx context.Context, d time.Duration)
}

// Persist hands a payload to the session's sink.
func (ec *ExportContext) Persist(ctx context.Context, path string, payload []byte) error {
	return ec.sink.Persist(ctx, path, payload)
}

// Report replaces the session's progress status.
func (ec *ExportContext) Report(status string) {
	if ec.report != nil {
		ec.report(status)
	}
}

// pause applies the inter-action delay.
func (ec *ExportContext) pause(ctx context.Context) {
	if ec.sleeper != nil {
		ec.sleeper(ctx, ec.ActionDelay)
		return
	}
	sleep(ctx, ec.ActionDelay)
}

// assetName builds the file name (without extension) of an asset. Ids come
// from stores and the API, so they are sanitized like names.
func (ec *ExportContext) assetName(name, id string) string {
	if ec.FilenameFormat == FilenameByName {
		return Sanitize(name) + "_" + Sanitize(id)
	}
	return Sanitize(id)
}

type CollectorFunc func(ctx context.Context, ec *ExportContext) error

// Collector is one category of the export.
type Collector struct {
	Name    string
	Status  string
	Enabled func(Categories) bool
	Run     CollectorFunc
}

// recordSource describes where a category's records come from.
type recordSource struct {
	category Category
	path     string

	// paginate with an "after" cursor taken from cursor(lastRecord)
	paginated bool
	cursor    cursorOf

	// decode the response body; defaults to a plain JSON array
	decode pageDecoder

	// cached results of at most this many records are treated as a miss
	minCached int
}

// fetchRecords returns the records of a category: the store's copy when it
// has a usable one, otherwise the API's. API failures are logged and yield
// whatever was fetched. When the API yields nothing, a cached copy too small
// to count as a hit is still returned.
func fetchRecords(ctx context.Context, ec *ExportContext, src recordSource) []Record {
	cached, ok := ec.Store.Records(src.category, ec.GuildID)
	if ok && len(cached) > src.minCached {
		ec.Logger.Info(fmt.Sprintf("Found %d %s in store", len(cached), src.category))
		return cached
	}

	records := fetchRemote(ctx, ec, src)
	if len(records) == 0 && len(cached) > 0 {
		ec.Logger.Warn(fmt.Sprintf("No %s from API, keeping %d from store", src.category, len(cached)))
		return cached
	}
	return records
}

// fetchRemote reads a category from the API, paginated or in one request.
func fetchRemote(ctx context.Context, ec *ExportContext, src recordSource) []Record {

	ec.Logger.Info(fmt.Sprintf("%s not found in store, fetching from API...", src.category), "path", src.path)
	decode := src.decode
	if decode == nil {
		decode = splitRecords
	}

	if src.paginated {
		return paginate(ctx, ec, src.path, decode, src.cursor)
	}

	resp, err := ec.Client.Get(ctx, src.path, nil)
	if err != nil {
		ec.Logger.Error(fmt.Sprintf("Failed to fetch %s from API", src.category), "error", err.Error())
		return nil
	}
	if !resp.OK {
		ec.Logger.Error(fmt.Sprintf("Failed to fetch %s from API: %s", src.category, resp.describe()))
		return nil
	}
	return decode(resp.Body)
}

// saveRecords normalizes, prunes and persists a record list under path.
func saveRecords(ctx context.Context, ec *ExportContext, path string, records []Record, normalize func(map[string]any)) error {
	payload, err := encodeRecords(ec.Logger, records, normalize)
	if err != nil {
		return err
	}
	if err := ec.Persist(ctx, path, payload); err != nil {
		return fmt.Errorf("failed to persist %s: %w", path, err)
	}
	return nil
}

// collectRecords is the whole cache-then-network collector for a category
// without binary assets.
func collectRecords(src recordSource, path string, normalize func(map[string]any)) CollectorFunc {
	return func(ctx context.Context, ec *ExportContext) error {
		records := fetchRecords(ctx, ec, src)
		ec.Logger.Info(fmt.Sprintf("Found %d %s", len(records), src.category))
		if err := saveRecords(ctx, ec, path, records, normalize); err != nil {
			return err
		}
		ec.pause(ctx)
		return nil
	}
}
