// Package export renders records and reports for use outside poplog:
// CSV files, an HTML report and a weekly share card.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/poplog/store"
)

var csvHeader = []string{"date", "time", "type"}

// WriteCSV writes records as "date,time,type" rows in loc. Ephemeral records
// are skipped and uncategorized records leave type empty.
func WriteCSV(w io.Writer, records []*store.Record, loc *time.Location) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return errors.Wrap(err, "failed to write csv header")
	}
	for _, r := range records {
		if r.Ephemeral {
			continue
		}
		t := r.Time(loc)
		category := ""
		if r.Category != store.CategoryNone {
			category = strconv.Itoa(int(r.Category))
		}
		if err := cw.Write([]string{t.Format("2006-01-02"), t.Format("15:04"), category}); err != nil {
			return errors.Wrapf(err, "failed to write record %s", r.UID)
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "failed to flush csv")
}

// CSVFileName is the download name of a CSV export made at now.
func CSVFileName(now time.Time) string {
	return fmt.Sprintf("poop-records-%s.csv", now.Format("2006-01-02"))
}
