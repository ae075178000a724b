package query

import (
	"reflect"
	"testing"
)

func TestCommunities(t *testing.T) {
	tests := []struct {
		name    string
		nodeIDs []string
		edges   [][2]string
		want    [][]string
	}{
		{
			name:    "empty graph",
			nodeIDs: nil,
			want:    nil,
		},
		{
			name:    "isolated nodes are singletons",
			nodeIDs: []string{"B", "A"},
			want:    [][]string{{"A"}, {"B"}},
		},
		{
			name:    "single connected component",
			nodeIDs: []string{"A", "B", "C"},
			edges:   [][2]string{{"A", "B"}, {"B", "C"}},
			want:    [][]string{{"A", "B", "C"}},
		},
		{
			name:    "two components",
			nodeIDs: []string{"A", "B", "X", "Y"},
			edges:   [][2]string{{"A", "B"}, {"X", "Y"}},
			want:    [][]string{{"A", "B"}, {"X", "Y"}},
		},
		{
			name:    "self loops are ignored",
			nodeIDs: []string{"A", "B"},
			edges:   [][2]string{{"A", "A"}, {"A", "B"}},
			want:    [][]string{{"A", "B"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := communities(tt.nodeIDs, tt.edges)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("communities() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCommunitiesDeterministic(t *testing.T) {
	nodeIDs := []string{"E", "D", "C", "B", "A"}
	edges := [][2]string{{"A", "B"}, {"B", "C"}, {"C", "D"}, {"D", "E"}, {"E", "A"}}

	first := communities(nodeIDs, edges)
	for i := 0; i < 10; i++ {
		if got := communities(nodeIDs, edges); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d differed: %v vs %v", i, got, first)
		}
	}
}

func TestSeedCommunities(t *testing.T) {
	parts := [][]string{{"A", "B"}, {"C", "D"}, {"E"}}

	tests := []struct {
		name  string
		seeds []string
		want  []string
	}{
		{name: "seed widens to community", seeds: []string{"A"}, want: []string{"A", "B"}},
		{name: "seeds across communities", seeds: []string{"B", "E"}, want: []string{"A", "B", "E"}},
		{name: "no matching seed", seeds: []string{"Z"}, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := seedCommunities(parts, tt.seeds)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("seedCommunities() = %v, want %v", got, tt.want)
			}
		})
	}
}
