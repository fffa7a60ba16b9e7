package socialgraph

import "go.uber.org/zap"

// FindAllConnectedMatches walks the match relation depth-first from id. It
// returns the visited ids and the reachable vertices in visit order, id first.
func (g *Graph) FindAllConnectedMatches(id int) (map[int]struct{}, []*Vertex, error) {
	start, err := g.lookup(id)
	if err != nil {
		return nil, nil, err
	}
	visited, component := g.component(start, map[int]struct{}{})
	return visited, component, nil
}

// component collects everything reachable from start over matches, marking
// ids in visited as it goes
func (g *Graph) component(start *Vertex, visited map[int]struct{}) (map[int]struct{}, []*Vertex) {
	var reached []*Vertex
	stack := []*Vertex{start}
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, seen := visited[v.ID()]; seen {
			continue
		}
		visited[v.ID()] = struct{}{}
		reached = append(reached, v)

		ids := v.MatchIDs()
		for i := len(ids) - 1; i >= 0; i-- {
			if _, seen := visited[ids[i]]; !seen {
				stack = append(stack, v.matches[ids[i]])
			}
		}
	}
	return visited, reached
}

// FindConnectedCommunities partitions every vertex by the match relation.
// Components are seeded in ascending id order.
func (g *Graph) FindConnectedCommunities() [][]*Vertex {
	visited := make(map[int]struct{}, len(g.vertices))
	var communities [][]*Vertex
	for _, id := range g.ids() {
		if _, seen := visited[id]; seen {
			continue
		}
		_, reached := g.component(g.vertices[id], visited)
		communities = append(communities, reached)
	}
	return communities
}

// FindNewSuggestion suggests to id every user matched with at least two of
// id's own matches. It returns how many suggestion edges were added.
func (g *Graph) FindNewSuggestion(id int) (int, error) {
	v, err := g.lookup(id)
	if err != nil {
		return 0, err
	}
	matched := v.MatchIDs()
	if len(matched) < 2 {
		return 0, nil
	}

	common := make(map[int]*Vertex)
	for i, a := range matched {
		for _, b := range matched[i+1:] {
			ma, mb := v.matches[a], v.matches[b]
			for cid, c := range ma.matches {
				if cid != id && mb.HasMatch(cid) {
					common[cid] = c
				}
			}
		}
	}

	added := 0
	for _, cid := range sortedKeys(common) {
		c := common[cid]
		if v.HasSuggestion(cid) || g.related(v, c) {
			continue
		}
		v.suggestions[cid] = c
		c.suggestions[id] = v
		added++
	}
	if added > 0 {
		g.logger.Debug("Suggested friends of matches", zap.Int("user_id", id), zap.Int("added", added))
	}
	return added, nil
}

// FindAllNewSuggestions runs FindNewSuggestion for every vertex and returns
// the total number of edges added. It stops at the first failing vertex.
func (g *Graph) FindAllNewSuggestions() (int, error) {
	total := 0
	for _, id := range g.ids() {
		n, err := g.FindNewSuggestion(id)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}
