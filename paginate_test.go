package export

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pagedUsers serves total records with ids 1..total, paged by "after".
func pagedUsers(t *testing.T, total int) func(url.Values) (*APIResponse, error) {
	return func(query url.Values) (*APIResponse, error) {
		assert.Equal(t, "1000", query.Get("limit"))
		start := 0
		if after := query.Get("after"); after != "" {
			n, err := strconv.Atoi(after)
			require.NoError(t, err)
			start = n
		}
		end := min(start+pageLimit, total)
		return &APIResponse{OK: true, Status: 200, Body: []byte(userRecords(start+1, end+1))}, nil
	}
}

func TestPaginateCounts(t *testing.T) {
	for _, total := range []int{0, 1, 999, 1000, 1001, 2500} {
		api := newFakeAPI()
		api.handle("/bans", pagedUsers(t, total))
		ec, _ := testContext(NewMemoryStore(), api)

		records := paginate(context.Background(), ec, "/bans", splitRecords, userID)

		assert.Len(t, records, total, "total %d", total)
		assert.Equal(t, total/pageLimit+1, api.callCount("/bans"), "total %d", total)
		for i, r := range records {
			if !assert.Equal(t, strconv.Itoa(i+1), userID(r)) {
				break
			}
		}
	}
}

func TestPaginateFirstPageHasNoCursor(t *testing.T) {
	api := newFakeAPI()
	api.handle("/bans", pagedUsers(t, 1500))
	ec, _ := testContext(NewMemoryStore(), api)

	paginate(context.Background(), ec, "/bans", splitRecords, userID)

	require.Len(t, api.calls, 2)
	assert.False(t, api.calls[0].query.Has("after"))
	assert.Equal(t, "1000", api.calls[1].query.Get("after"))
}

func TestPaginateStopsOnRepeatedCursor(t *testing.T) {
	api := newFakeAPI()
	api.handle("/bans", func(url.Values) (*APIResponse, error) {
		return &APIResponse{OK: true, Status: 200, Body: []byte(userRecords(1, pageLimit+1))}, nil
	})
	ec, _ := testContext(NewMemoryStore(), api)

	records := paginate(context.Background(), ec, "/bans", splitRecords, userID)

	assert.Equal(t, 2, api.callCount("/bans"))
	assert.Len(t, records, 2*pageLimit)
}

func TestPaginateStopsOnMissingCursor(t *testing.T) {
	api := newFakeAPI()
	body := "["
	for i := 0; i < pageLimit; i++ {
		if i > 0 {
			body += ","
		}
		body += `{"reason": "spam"}`
	}
	api.respond("/bans", 200, body+"]")
	ec, _ := testContext(NewMemoryStore(), api)

	records := paginate(context.Background(), ec, "/bans", splitRecords, userID)

	assert.Equal(t, 1, api.callCount("/bans"))
	assert.Len(t, records, pageLimit)
}

func TestPaginateKeepsPartialResults(t *testing.T) {
	full := pagedUsers(t, 5000)

	t.Run("transport error", func(t *testing.T) {
		api := newFakeAPI()
		api.handle("/members", func(q url.Values) (*APIResponse, error) {
			if q.Get("after") == "2000" {
				return nil, errors.New("connection reset")
			}
			return full(q)
		})
		ec, _ := testContext(NewMemoryStore(), api)

		records := paginate(context.Background(), ec, "/members", splitRecords, userID)
		assert.Len(t, records, 2000)
		assert.Equal(t, 3, api.callCount("/members"))
	})

	t.Run("error status", func(t *testing.T) {
		api := newFakeAPI()
		api.handle("/members", func(q url.Values) (*APIResponse, error) {
			if q.Get("after") == "1000" {
				return &APIResponse{OK: false, Status: 429, Body: []byte(`{"message": "You are being rate limited."}`)}, nil
			}
			return full(q)
		})
		ec, _ := testContext(NewMemoryStore(), api)

		records := paginate(context.Background(), ec, "/members", splitRecords, userID)
		assert.Len(t, records, 1000)
	})
}
