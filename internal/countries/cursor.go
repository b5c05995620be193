package countries

import "sync"

// Cursor - индекс в списке стран для обхода по кругу.
type Cursor struct {
	mu   sync.Mutex
	pos  int
	size int
}

// NewCursor создает курсор на позиции 0 для списка длины size.
func NewCursor(size int) *Cursor {
	if size <= 0 {
		size = 1
	}
	return &Cursor{size: size}
}

// Next возвращает текущую позицию и сдвигает курсор ровно на одну позицию по модулю длины списка.
func (c *Cursor) Next() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	pos := c.pos
	c.pos = (c.pos + 1) % c.size
	return pos
}

// Position возвращает текущую позицию без сдвига.
func (c *Cursor) Position() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pos
}

func (c *Cursor) Size() int { return c.size }
