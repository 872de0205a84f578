package section

import "encoding/json"

// Carousel tracks the visible slide of the team and testimonial sections.
type Carousel struct {
	Index int
	Count int
}

func NewCarousel(count int) Carousel {
	return Carousel{Count: max(count, 0)}
}

func (c Carousel) CanScrollPrev() bool { return c.Index > 0 }
func (c Carousel) CanScrollNext() bool { return c.Index < c.Count-1 }

// Next advances one slide; it stops at the last one.
func (c Carousel) Next() Carousel {
	if c.CanScrollNext() {
		c.Index++
	}
	return c
}

// Prev goes back one slide; it stops at the first one.
func (c Carousel) Prev() Carousel {
	if c.CanScrollPrev() {
		c.Index--
	}
	return c
}

// ScrollTo jumps to i, clamped to the slide range.
func (c Carousel) ScrollTo(i int) Carousel {
	c.Index = max(0, min(i, c.Count-1))
	return c
}

func (c Carousel) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Index         int  `json:"index"`
		Count         int  `json:"count"`
		CanScrollPrev bool `json:"can_scroll_prev"`
		CanScrollNext bool `json:"can_scroll_next"`
	}{c.Index, c.Count, c.CanScrollPrev(), c.CanScrollNext()})
}
