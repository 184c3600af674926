// Package tree implements recursive directory traversal from a given head
// cluster (0 for the root directory), for the engine's Tree command.
package tree

import (
	"github.com/dargueta/fat16vol/directory"
	"github.com/dargueta/fat16vol/layout"
)

// Node is one entry in the recursively-walked tree: its formatted name,
// whether it's a subdirectory, its size (meaningless for directories), and
// its children if it's a subdirectory.
type Node struct {
	Name     string
	IsDir    bool
	Size     uint32
	Children []Node
}

// Walk recursively walks the directory tree starting at head (0 for the
// root directory). Volume labels and "."/".." self-references are skipped.
// Subdirectories are only recursed into when their starting cluster differs
// from the directory currently being scanned, and a visited-cluster set
// guards against any remaining cycles in a malformed image.
func Walk(mgr *directory.Manager, head layout.Cluster) ([]Node, error) {
	return walk(mgr, directory.Location{Cluster: head}, map[layout.Cluster]bool{head: true})
}

func walk(mgr *directory.Manager, loc directory.Location, visited map[layout.Cluster]bool) ([]Node, error) {
	slots, err := mgr.List(loc)
	if err != nil {
		return nil, err
	}

	var nodes []Node
	for _, slot := range slots {
		e := slot.Entry
		if e.IsVolumeLabel() || e.IsSelfReference() {
			continue
		}

		node := Node{
			Name:  directory.Format(e),
			IsDir: e.IsDirectory(),
			Size:  e.FileSize,
		}

		if node.IsDir {
			childCluster := layout.Cluster(e.StartingCluster)
			if childCluster != loc.Cluster && !visited[childCluster] {
				visited[childCluster] = true
				children, err := walk(mgr, directory.Location{Cluster: childCluster}, visited)
				if err != nil {
					return nil, err
				}
				node.Children = children
			}
		}

		nodes = append(nodes, node)
	}
	return nodes, nil
}
