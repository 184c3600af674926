// Package session tracks the engine's navigation state: the current
// directory's cluster and the textual path stack, independent of the
// on-disk filesystem state (boot sector, FAT) since navigation changes
// without touching the disk.
package session

import (
	"strings"

	"github.com/dargueta/fat16vol/layout"
)

// RootToken is the default path component shown for the root directory,
// before any cd. It's configurable via New so a host can pick a volume
// label-derived token instead.
const RootToken = "Groot"

// frame records, for one level of descent, the cluster we were in before
// entering a subdirectory and the path component used to enter it. It lets
// cd .. restore the true parent cluster instead of resetting to the root.
type frame struct {
	parentCluster layout.Cluster
	name          string
}

// Session holds the current directory cluster and the stack of frames
// needed to support cd, cd .., and cd . .
type Session struct {
	rootToken string
	current   layout.Cluster
	stack     []frame
}

// New creates a Session positioned at the root directory.
func New(rootToken string) *Session {
	if rootToken == "" {
		rootToken = RootToken
	}
	return &Session{rootToken: rootToken}
}

// CurrentCluster returns the cluster of the directory the session is
// currently in. 0 means the root directory.
func (s *Session) CurrentCluster() layout.Cluster {
	return s.current
}

// CurrentPath returns the "/"-separated path from the root token to the
// current directory.
func (s *Session) CurrentPath() string {
	parts := make([]string, 0, len(s.stack)+1)
	parts = append(parts, s.rootToken)
	for _, f := range s.stack {
		parts = append(parts, f.name)
	}
	return strings.Join(parts, "/")
}

// Descend pushes a new frame for entering the subdirectory named name,
// starting at cluster. The current cluster becomes the parent recorded in
// the new frame.
func (s *Session) Descend(name string, cluster layout.Cluster) {
	s.stack = append(s.stack, frame{parentCluster: s.current, name: name})
	s.current = cluster
}

// Ascend pops the most recent frame, restoring both the parent cluster and
// the path. If already at the root, this is a no-op.
func (s *Session) Ascend() {
	if len(s.stack) == 0 {
		return
	}
	last := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	s.current = last.parentCluster
}
