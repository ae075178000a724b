package query

import "sort"

// maxPropagationRounds caps label propagation; the graphs involved are
// small neighborhood subgraphs, which converge in a handful of rounds.
const maxPropagationRounds = 20

// communities partitions a subgraph into communities by synchronous label
// propagation. Iteration order and tie-breaking are deterministic: nodes
// are visited in sorted order and ties between equally frequent neighbor
// labels go to the lexicographically smallest. Isolated nodes form
// singleton communities.
func communities(nodeIDs []string, edges [][2]string) [][]string {
	if len(nodeIDs) == 0 {
		return nil
	}

	nodes := append([]string(nil), nodeIDs...)
	sort.Strings(nodes)

	adjacency := make(map[string][]string, len(nodes))
	for _, e := range edges {
		if e[0] == e[1] {
			continue
		}
		adjacency[e[0]] = append(adjacency[e[0]], e[1])
		adjacency[e[1]] = append(adjacency[e[1]], e[0])
	}

	labels := make(map[string]string, len(nodes))
	for _, id := range nodes {
		labels[id] = id
	}

	for round := 0; round < maxPropagationRounds; round++ {
		changed := false
		for _, id := range nodes {
			neighbors := adjacency[id]
			if len(neighbors) == 0 {
				continue
			}

			counts := make(map[string]int, len(neighbors))
			for _, n := range neighbors {
				counts[labels[n]]++
			}

			best := labels[id]
			bestCount := 0
			for label, count := range counts {
				if count > bestCount || (count == bestCount && label < best) {
					best = label
					bestCount = count
				}
			}

			if best != labels[id] {
				labels[id] = best
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	groups := make(map[string][]string)
	for _, id := range nodes {
		groups[labels[id]] = append(groups[labels[id]], id)
	}

	out := make([][]string, 0, len(groups))
	for _, members := range groups {
		sort.Strings(members)
		out = append(out, members)
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}

// seedCommunities returns the union of all community members whose
// community contains at least one seed. Breadth is deliberate: an entity
// sharing a community with a seed is treated as query-relevant even when
// it was not a direct vector hit.
func seedCommunities(parts [][]string, seedIDs []string) []string {
	seeds := make(map[string]bool, len(seedIDs))
	for _, id := range seedIDs {
		seeds[id] = true
	}

	var out []string
	for _, members := range parts {
		keep := false
		for _, id := range members {
			if seeds[id] {
				keep = true
				break
			}
		}
		if keep {
			out = append(out, members...)
		}
	}
	return out
}
