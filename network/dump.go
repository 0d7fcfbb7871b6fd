package network

import (
	"fmt"

	"github.com/xlab/treeprint"
)

// Dump renders the network's topology as a tree, one branch per node with a
// leaf per connection. Intended for debugging and golden-output tests.
func (net *Network) Dump() string {
	tree := treeprint.New()
	tree.SetValue("network")
	for _, node := range net.Nodes() {
		branch := tree.AddBranch(fmt.Sprintf(
			"[%d] %s", node.ID().Index(), node.DebugName()))
		for _, input := range node.Inputs() {
			for _, conn := range input.Connections() {
				branch.AddNode(fmt.Sprintf(
					"%s <- [%d] %s",
					input.Name(),
					conn.Source.Node().ID().Index(),
					conn.Source.Node().DebugName()))
			}
		}
	}
	return tree.String()
}
