package compose

import (
	"math"
	"strings"

	"github.com/aerissecure/reportassistant/dataset"
)

// imageMargin is added to the picture height, in points, to get the height
// of the block that holds it.
const imageMargin = 3.0

// ComposeDate fills a date template such as "xxxx年xx月x日". The tokens are
// replaced literally in the order xxxx, xx, x.
func ComposeDate(template string, p dataset.Period) string {
	s := strings.ReplaceAll(template, "xxxx", p.YearString())
	s = strings.ReplaceAll(s, "xx", p.MonthString())
	return strings.ReplaceAll(s, "x", p.LastDayString())
}

// PlanRows splits a block of the given height into row heights no taller
// than maxRow: full rows first, the remainder last.
func PlanRows(block, maxRow float64) []float64 {
	if block <= maxRow {
		return []float64{block}
	}
	n := int(math.Ceil(block / maxRow))
	rows := make([]float64, n)
	for i := 0; i < n-1; i++ {
		rows[i] = maxRow
	}
	rows[n-1] = block - float64(n-1)*maxRow
	return rows
}

// ScaleImage fits a picture of w x h pixels to width points and returns the
// resulting height in points.
func ScaleImage(w, h int, width float64) float64 {
	if w == 0 {
		return 0
	}
	return float64(h) * width / float64(w)
}
