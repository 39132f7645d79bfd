package extract

// DefaultMaxHops bounds how far NearestPriced climbs from a link.
const DefaultMaxHops = 6

// TextNode is the minimum a document tree must offer for NearestPriced.
type TextNode interface {
	Text() string
	Parent() (TextNode, bool)
}

// NearestPriced walks from node towards the root and returns the text of the
// first block (node itself included) that contains a currency amount. At
// most maxHops parents are visited.
func NearestPriced(node TextNode, maxHops int) (string, bool) {
	if node == nil {
		return "", false
	}
	if maxHops < 0 {
		maxHops = 0
	}

	cur := node
	for hop := 0; ; hop++ {
		if text := cur.Text(); ContainsPrice(text) {
			return text, true
		}
		if hop >= maxHops {
			return "", false
		}
		parent, ok := cur.Parent()
		if !ok || parent == nil {
			return "", false
		}
		cur = parent
	}
}
