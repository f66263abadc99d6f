package internal

// callbackGuard counts nested delivery callbacks. While depth > 0, external
// sends are refused so that every write goes through the transaction queue.
type callbackGuard struct {
	depth int
}

func (g *callbackGuard) InCallback() bool {
	return g.depth > 0
}

func (g *callbackGuard) Run(fn func()) {
	g.depth++
	defer func() { g.depth-- }()

	fn()
}

func (g *callbackGuard) reset() {
	g.depth = 0
}
