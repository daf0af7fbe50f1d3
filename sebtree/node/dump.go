package node

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes a human-readable representation of the node's contents to
// w: leaf or internal, page pointer, keys/values or markers/pointers, and
// sibling links. It is a debug aid only; nothing else in this package or
// its callers may rely on its output.
func (n *Node[K, V]) Dump(w io.Writer, level int) {
	fmt.Fprint(w, strings.Repeat("\t", level))
	if n.isLeaf() {
		fmt.Fprint(w, "Leaf ")
	} else {
		fmt.Fprint(w, "Int. ")
	}
	fmt.Fprintf(w, "%d: ", n.PageIndex())

	if n.IsContinuedFrom() {
		fmt.Fprint(w, "... ")
	}

	if n.GetLeftSibling() != 0 {
		fmt.Fprintf(w, "<-%d ", n.GetLeftSibling())
	}

	for i := -1; i < n.GetSize(); i++ {
		if n.isLeaf() {
			if i > -1 {
				fmt.Fprintf(w, "%s %s, ", dumpPreview(n.KeyAt(i)), dumpPreview(n.ValueAt(i)))
			}
			continue
		}

		marker := n.MarkerAt(i)
		if marker.BlockIndex != 0 {
			fmt.Fprintf(w, "M(%d, %d), ", marker.BlockIndex, marker.PagesUsed)
		}

		pointer := n.PointerAt(i)
		if i == -1 {
			fmt.Fprintf(w, "P(%d), ", pointer)
		} else {
			fmt.Fprintf(w, "%s P(%d), ", dumpPreview(n.KeyAt(i)), pointer)
		}
	}

	if n.GetRightSibling() != 0 {
		fmt.Fprintf(w, "%d-> ", n.GetRightSibling())
	}

	if n.IsContinuedTo() {
		fmt.Fprint(w, "...")
	}

	fmt.Fprintln(w)
}

// dumpPreview renders v, truncating string values to their first 3 bytes
// the way the source's dump did for readability on wide pages.
func dumpPreview(v any) string {
	if s, ok := v.(string); ok && len(s) > 3 {
		return s[:3]
	}
	return fmt.Sprint(v)
}
