package pdf

// Page geometry in millimetres, A4 portrait.
const (
	pageW    = 210.0
	pageH    = 297.0
	margin   = 15.0
	contentW = pageW - 2*margin

	bandH       = 8.0
	headerTop   = margin
	logoMaxH    = 18.0
	logoMaxW    = 40.0
	calloutTop  = 54.0
	calloutW    = 75.0
	calloutH    = 16.0
	panelTop    = 76.0
	panelH      = 32.0
	panelGap    = 6.0
	tableTop    = panelTop + panelH + 6
	contentTop  = bandH + 12
	footerH     = 14.0
	bottomLimit = pageH - margin - footerH

	headRowH = 8.0
	lineH    = 4.5
	rowPadY  = 1.5
	cellPadX = 1.5

	qrSize = 28.0
)

// Item table columns: description, quantity, unit price HT, VAT %, total TTC.
var (
	colWidths = [...]float64{86, 18, 28, 18, 30}
	colAligns = [...]string{"L", "R", "R", "R", "R"}
	colTitles = [...]string{"Description", "Qté", "P.U. HT", "TVA", "Total TTC"}
)

// firstPageRows and nextPageRows are the heights left for item rows below
// the table header, on the first page and on continuation pages.
const (
	firstPageRows = bottomLimit - tableTop - headRowH
	nextPageRows  = bottomLimit - contentTop - headRowH
)

// Paginate distributes rows of the given heights over pages holding first
// (then next) millimetres of rows each. Rows are never split: a row that does
// not fit in what is left of a page starts the next one. A row taller than a
// whole page is placed alone. The result lists row indexes per page and
// always has at least one page.
func Paginate(heights []float64, first, next float64) [][]int {
	pages := [][]int{{}}
	avail, used := first, 0.0
	for i, h := range heights {
		if used+h > avail && (used > 0 || avail < next) {
			pages = append(pages, []int{})
			avail, used = next, 0
		}
		pages[len(pages)-1] = append(pages[len(pages)-1], i)
		used += h
	}
	return pages
}

func rowHeight(lines int) float64 {
	if lines < 1 {
		lines = 1
	}
	return float64(lines)*lineH + 2*rowPadY
}
