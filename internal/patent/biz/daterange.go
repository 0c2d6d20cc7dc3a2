package biz

import (
	"time"

	"go.uber.org/zap"

	"github.com/sadskatr/patent-database/internal/pkg/logger"
)

const dateLayout = "2006-01-02"

// maxDateSpan is the widest filing date window sent upstream
const maxDateSpan = 5 * 365

// ClampDateRange bounds a YYYY-MM-DD pair: future dates become today, a
// reversed pair is swapped and spans over five years keep the most recent
// five. Unparseable input is returned unchanged.
func ClampDateRange(from, to string, now time.Time, log *logger.Logger) (string, string) {
	if log == nil {
		log = logger.NewNop()
	}

	fromDate, errFrom := time.Parse(dateLayout, from)
	toDate, errTo := time.Parse(dateLayout, to)
	if errFrom != nil || errTo != nil {
		log.Warn("invalid date range, leaving unchanged",
			zap.String("from", from),
			zap.String("to", to),
		)
		return from, to
	}

	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	if fromDate.After(today) {
		log.Warn("start date is in the future, using today", zap.String("from", from))
		fromDate = today
	}
	if toDate.After(today) {
		log.Warn("end date is in the future, using today", zap.String("to", to))
		toDate = today
	}
	if fromDate.After(toDate) {
		log.Warn("start date after end date, swapping", zap.String("from", from), zap.String("to", to))
		fromDate, toDate = toDate, fromDate
	}
	if earliest := toDate.AddDate(0, 0, -maxDateSpan); fromDate.Before(earliest) {
		log.Warn("date range too large, limiting to 5 years", zap.String("from", from), zap.String("to", to))
		fromDate = earliest
	}

	return fromDate.Format(dateLayout), toDate.Format(dateLayout)
}
