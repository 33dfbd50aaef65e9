package render

import "github.com/coreman2200/lumibed/internal/pixel"

// DefaultChannelMA is the draw of one WS2812 color channel at full scale.
const DefaultChannelMA = 20

// Limiter keeps the estimated strip current of a packed frame under a
// budget. Byte order does not matter for the estimate, so it runs after
// packing. A zero BudgetMA disables it.
type Limiter struct {
	BudgetMA  int
	ChannelMA int
}

// EstimateMA returns the frame's current draw in milliamps.
func (l Limiter) EstimateMA(frame []byte) int {
	var sum int
	for _, b := range frame {
		sum += int(b)
	}
	ch := l.ChannelMA
	if ch <= 0 {
		ch = DefaultChannelMA
	}
	return sum * ch / 255
}

// Apply scales frame in place when it is over budget and returns the scale
// used (255 = untouched).
func (l Limiter) Apply(frame []byte) uint8 {
	if l.BudgetMA <= 0 {
		return 255
	}
	total := l.EstimateMA(frame)
	if total <= l.BudgetMA {
		return 255
	}
	// Scale8 multiplies by (s+1)/256.
	scale := uint8(max(256*l.BudgetMA/total-1, 0))
	for i, b := range frame {
		frame[i] = pixel.Scale8(b, scale)
	}
	return scale
}
