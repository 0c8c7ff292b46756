package tree

import (
	"sort"
	"strings"

	"procmon/internal/snapshot"
)

// Connector glyphs used to indent the process column.
const (
	Branch   = "├─ "
	Last     = "└─ "
	Vertical = "│  "
	Space    = "   "
)

// Node is a process annotated with its position in the emitted forest.
type Node struct {
	snapshot.Process
	Depth       int
	IsLastChild bool
}

// Build reconstructs the parent/child forest restricted to procs and
// returns it flattened in depth-first pre-order. A process is a root when
// it has no parent, names itself as parent, or its parent is not in procs.
// Siblings are ordered with snapshot.Less for key.
//
// Processes caught in a parent cycle (A→B→A) have no root to hang from;
// they are promoted to roots one at a time so each input is emitted exactly
// once and traversal always terminates.
func Build(procs []snapshot.Process, key snapshot.SortKey) []Node {
	if len(procs) == 0 {
		return nil
	}

	arena := make(map[int32]snapshot.Process, len(procs))
	order := make([]int32, 0, len(procs))
	for _, p := range procs {
		if _, dup := arena[p.PID]; !dup {
			order = append(order, p.PID)
		}
		arena[p.PID] = p
	}

	children := make(map[int32][]int32)
	var roots []int32
	for _, pid := range order {
		p := arena[pid]
		_, parentPresent := arena[p.ParentPID]
		switch {
		case !p.HasParent, p.ParentPID == pid, !parentPresent:
			roots = append(roots, pid)
		default:
			children[p.ParentPID] = append(children[p.ParentPID], pid)
		}
	}

	less := func(ids []int32) func(i, j int) bool {
		return func(i, j int) bool {
			return snapshot.Less(arena[ids[i]].Snapshot, arena[ids[j]].Snapshot, key)
		}
	}
	sort.SliceStable(roots, less(roots))
	for parent, ids := range children {
		sort.SliceStable(ids, less(ids))
		children[parent] = ids
	}

	w := walker{arena: arena, children: children, visited: make(map[int32]bool, len(arena))}
	w.emitAll(roots)

	if len(w.out) < len(arena) {
		// Whatever is left hangs off a cycle. Promote in sort order.
		stranded := make([]int32, 0, len(arena)-len(w.out))
		for _, pid := range order {
			if !w.visited[pid] {
				stranded = append(stranded, pid)
			}
		}
		sort.SliceStable(stranded, less(stranded))
		for _, pid := range stranded {
			if !w.visited[pid] {
				w.emit(pid, 0, true)
			}
		}
		w.fixLastRoot()
	}
	return w.out
}

type walker struct {
	arena    map[int32]snapshot.Process
	children map[int32][]int32
	visited  map[int32]bool
	out      []Node
}

func (w *walker) emitAll(roots []int32) {
	for i, pid := range roots {
		w.emit(pid, 0, i == len(roots)-1)
	}
}

func (w *walker) emit(pid int32, depth int, last bool) {
	if w.visited[pid] {
		return
	}
	w.visited[pid] = true
	w.out = append(w.out, Node{Process: w.arena[pid], Depth: depth, IsLastChild: last})

	kids := w.pending(w.children[pid])
	for i, child := range kids {
		w.emit(child, depth+1, i == len(kids)-1)
	}
}

// pending drops already-emitted ids so the last-child flag stays accurate
// when a cycle closes back on an ancestor.
func (w *walker) pending(ids []int32) []int32 {
	out := ids[:0:0]
	for _, id := range ids {
		if !w.visited[id] {
			out = append(out, id)
		}
	}
	return out
}

// fixLastRoot marks only the final depth-0 node as the last root after
// stranded cycle members were appended.
func (w *walker) fixLastRoot() {
	lastRoot := -1
	for i := range w.out {
		if w.out[i].Depth == 0 {
			w.out[i].IsLastChild = false
			lastRoot = i
		}
	}
	if lastRoot >= 0 {
		w.out[lastRoot].IsLastChild = true
	}
}

// Prefixes returns the connector prefix drawn before each node's name.
// Roots get no prefix; a node at depth d gets one column per ancestor at
// depths 1..d-1 (a vertical bar when that ancestor has later siblings)
// followed by its own branch glyph.
func Prefixes(nodes []Node) []string {
	out := make([]string, len(nodes))
	var open []bool
	for i, n := range nodes {
		if n.Depth == 0 {
			open = open[:0]
			continue
		}
		if len(open) > n.Depth-1 {
			open = open[:n.Depth-1]
		}
		var b strings.Builder
		for _, more := range open {
			if more {
				b.WriteString(Vertical)
			} else {
				b.WriteString(Space)
			}
		}
		if n.IsLastChild {
			b.WriteString(Last)
		} else {
			b.WriteString(Branch)
		}
		out[i] = b.String()
		open = append(open, !n.IsLastChild)
	}
	return out
}
