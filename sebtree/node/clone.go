package node

// CloneFrom overwrites this node's entire page with a raw byte copy of
// other's, copied in cloneBufferSize chunks. Used by splits that need to
// pre-stage a new root or sibling from an existing page's contents.
func (n *Node[K, V]) CloneFrom(other *Node[K, V]) {
	n.buf.SetPosition(0)
	other.buf.SetPosition(0)

	remaining := n.config.PageBytes
	for remaining > 0 {
		chunk := cloneBufferSize
		if chunk > remaining {
			chunk = remaining
		}
		n.buf.Write(other.buf.Read(chunk))
		remaining -= chunk
	}
}

// ConvertToNonLeaf turns an (empty or about-to-be-emptied) leaf into an
// internal node: resets the data region, clears size, and re-resolves the
// record-layout descriptor for the internal shape. Nothing of the leaf's
// prior contents is preserved.
func (n *Node[K, V]) ConvertToNonLeaf() error {
	n.setFreeDataPosition(n.config.PageBytes)
	n.setLeaf(false)
	n.SetContinuedFrom(false)
	n.SetContinuedTo(false)
	n.setEncodersVersion(n.config.EncodersVersion)
	n.setFlag(extensionFlagMask, false)
	n.setSize(0)

	return n.initializeForce()
}
