package formatter

import (
	"fmt"
	"strings"
)

const (
	filledBlock = "█"
	emptyBlock  = "░"
)

// RenderProgress renders a bar like [████░░░░] 3/8 for ok out of total.
// Green when everything succeeded, yellow for partial success, red when
// nothing did.
func RenderProgress(ok, total, width int) string {
	if width < 2 {
		width = 2
	}
	if total <= 0 {
		return fmt.Sprintf("[%s] 0/0", strings.Repeat(emptyBlock, width))
	}
	if ok < 0 {
		ok = 0
	}
	if ok > total {
		ok = total
	}

	filled := ok * width / total
	bar := strings.Repeat(filledBlock, filled) + strings.Repeat(emptyBlock, width-filled)

	style := StyleGreen
	switch {
	case ok == 0:
		style = StyleRed
	case ok < total:
		style = StyleYellow
	}
	return fmt.Sprintf("[%s] %d/%d", style.Render(bar), ok, total)
}
