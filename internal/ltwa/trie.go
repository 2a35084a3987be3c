package ltwa

// prefixTrie indexes prefix stems by rune. Each terminal node stores the
// position of its entry so lookups can pick the earliest matching stem.
type prefixTrie struct {
	root *trieNode
}

type trieNode struct {
	position int // -1 when no stem ends here
	children map[rune]*trieNode
}

func newTrieNode() *trieNode {
	return &trieNode{position: -1, children: map[rune]*trieNode{}}
}

func newPrefixTrie() *prefixTrie {
	return &prefixTrie{root: newTrieNode()}
}

func (t *prefixTrie) insert(stem string, position int) {
	cur := t.root
	for _, r := range stem {
		next, ok := cur.children[r]
		if !ok {
			next = newTrieNode()
			cur.children[r] = next
		}
		cur = next
	}
	if cur.position < 0 || position < cur.position {
		cur.position = position
	}
}

// firstPrefixOf returns the smallest position among stems that are
// prefixes of word, or -1.
func (t *prefixTrie) firstPrefixOf(word string) int {
	best := -1
	cur := t.root
	for _, r := range word {
		if cur.position >= 0 && (best < 0 || cur.position < best) {
			best = cur.position
		}
		next, ok := cur.children[r]
		if !ok {
			return best
		}
		cur = next
	}
	if cur.position >= 0 && (best < 0 || cur.position < best) {
		best = cur.position
	}
	return best
}
