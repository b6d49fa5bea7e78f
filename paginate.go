package export

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

const pageLimit = 1000

// page decodes one response body into records.
type pageDecoder func(body []byte) []Record

// cursorOf returns the pagination cursor of a record.
type cursorOf func(r Record) string

// paginate walks an "after"-cursor collection. A page shorter than the limit
// ends the walk. A failed page, or a cursor that is empty or was already
// used, ends it too and the records gathered so far are returned.
func paginate(ctx context.Context, ec *ExportContext, path string, decode pageDecoder, cursor cursorOf) []Record {
	var all []Record
	seen := map[string]bool{}
	after := ""

	for {
		query := url.Values{}
		query.Set("limit", strconv.Itoa(pageLimit))
		if after != "" {
			query.Set("after", after)
		}

		resp, err := ec.Client.Get(ctx, path, query)
		if err != nil {
			ec.Logger.Error("Failed to fetch page", "path", path, "after", after, "error", err.Error())
			break
		}
		if !resp.OK {
			ec.Logger.Error(fmt.Sprintf("Failed to fetch page: %s", resp.describe()), "path", path, "after", after)
			break
		}

		records := decode(resp.Body)
		all = append(all, records...)
		ec.Logger.Info(fmt.Sprintf("Fetched %d records (Total: %d)", len(records), len(all)), "path", path)

		if len(records) < pageLimit {
			break
		}

		next := cursor(records[len(records)-1])
		if next == "" || seen[next] {
			ec.Logger.Warn("pagination cursor did not advance, stopping", "path", path, "cursor", next)
			break
		}
		seen[next] = true
		after = next

		ec.pause(ctx)
	}

	return all
}
