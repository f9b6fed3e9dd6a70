package nav

// Wrap moves index i by delta inside [0, total) with wrap-around.
// total <= 0 returns 0.
func Wrap(i, delta, total int) int {
	if total <= 0 {
		return 0
	}
	return ((i+delta)%total + total) % total
}

// GridMove moves selection sel of a total-item grid laid out in cols columns.
//
// Horizontal steps walk the items linearly with wrap-around, so leaving a row
// on one side enters the neighbouring row. Vertical steps keep the column and
// wrap over the rows; landing past the last item of a partial final row is
// clamped to the last item.
func GridMove(sel, total, cols, dx, dy int) int {
	if total <= 0 {
		return 0
	}
	if cols <= 0 {
		cols = 1
	}
	if sel < 0 || sel >= total {
		sel = 0
	}
	if dx != 0 {
		sel = Wrap(sel, dx, total)
	}
	if dy != 0 {
		rows := (total + cols - 1) / cols
		row := Wrap(sel/cols, dy, rows)
		sel = row*cols + sel%cols
		if sel > total-1 {
			sel = total - 1
		}
	}
	return sel
}
