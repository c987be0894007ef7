package stream

import "sort"

// Role flags of a network node; a node may carry several.
type Role uint8

const (
	Head        Role = 1 << iota // no upstream node
	Confluence                   // two or more upstream nodes
	BConfluence                  // drains directly into a confluence
	Outlet                       // no downstream node
)

// Is reports whether r carries flag f.
func (r Role) Is(f Role) bool { return r&f != 0 }

// Roles classifies every node from its local topology.
func (n *Network) Roles() []Role {
	r := make([]Role, n.Len())
	for k := range r {
		switch len(n.us[k]) {
		case 0:
			r[k] |= Head
		case 1:
		default:
			r[k] |= Confluence
		}
		if d := n.Ds[k]; d < 0 {
			r[k] |= Outlet
		} else if len(n.us[d]) > 1 {
			r[k] |= BConfluence
		}
	}
	return r
}

func (n *Network) withRole(f Role) []int {
	o := []int{}
	for k, r := range n.Roles() {
		if r.Is(f) {
			o = append(o, k)
		}
	}
	return o
}

// Heads returns the channel heads in network order.
func (n *Network) Heads() []int { return n.withRole(Head) }

// Confluences returns the nodes joined by two or more upstream nodes.
func (n *Network) Confluences() []int { return n.withRole(Confluence) }

// BConfluences returns the nodes draining directly into a confluence.
func (n *Network) BConfluences() []int { return n.withRole(BConfluence) }

// Outlets returns the nodes without a downstream node.
func (n *Network) Outlets() []int { return n.withRole(Outlet) }

// Chains decomposes the network into maximal linear paths, each ordered
// upstream to downstream. Heads are walked longest flow path first and a walk
// stops at the first node already claimed, so every node lies in exactly one
// chain and trunk streams stay unbroken.
func (n *Network) Chains() [][]int {
	heads := n.Heads()
	sort.SliceStable(heads, func(a, b int) bool {
		return n.Dist[heads[a]] > n.Dist[heads[b]]
	})
	claimed := make([]bool, n.Len())
	chains := make([][]int, 0, len(heads))
	for _, h := range heads {
		c := []int{}
		for k := h; k >= 0 && !claimed[k]; k = n.Ds[k] {
			claimed[k] = true
			c = append(c, k)
		}
		chains = append(chains, c)
	}
	return chains
}
