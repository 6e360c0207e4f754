package racing

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"regexp"
	"sort"
	"strconv"
)

// TragnetMaterial marks scene nodes that are track anchors.
const TragnetMaterial = "tragnet"

// ErrNoAnchors is returned when a scene holds no tragnet nodes.
var ErrNoAnchors = errors.New("racing: scene has no tragnet anchors")

// SceneNode is one object of a loaded track scene.
type SceneNode struct {
	Name     string `json:"name"`
	Material string `json:"material"`
	Position Vec3   `json:"position"`
	Rotation Quat   `json:"rotation"`
}

var digits = regexp.MustCompile(`\d+`)

// anchorIndex reads the ring position from a node name: "tragnet.012" is 12.
// Names without digits are 0.
func anchorIndex(name string) int {
	m := digits.FindString(name)
	if m == "" {
		return 0
	}
	i, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return i
}

// CaptureAnchors picks the tragnet nodes out of a scene and orders them by the
// index in their names. When two nodes share an index the later one wins.
func CaptureAnchors(nodes []SceneNode) ([]Anchor, error) {
	byIndex := make(map[int]Anchor)
	for _, n := range nodes {
		if n.Material != TragnetMaterial {
			continue
		}
		byIndex[anchorIndex(n.Name)] = Anchor{Position: n.Position, Rotation: n.Rotation}
	}
	if len(byIndex) == 0 {
		return nil, ErrNoAnchors
	}
	idx := make([]int, 0, len(byIndex))
	for i := range byIndex {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	out := make([]Anchor, len(idx))
	for k, i := range idx {
		out[k] = byIndex[i]
	}
	return out, nil
}

// LoadTrackFile reads a JSON array of scene nodes.
func LoadTrackFile(path string) ([]SceneNode, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("racing: read track: %w", err)
	}
	var nodes []SceneNode
	if err := json.Unmarshal(data, &nodes); err != nil {
		return nil, fmt.Errorf("racing: parse track %s: %w", path, err)
	}
	return nodes, nil
}

// RingTrack lays n tragnet nodes on a circle of the given radius in the XZ
// plane, running counter-clockwise from +X.
func RingTrack(n int, radius float64) []SceneNode {
	nodes := make([]SceneNode, n)
	for i := range nodes {
		a := 2 * math.Pi * float64(i) / float64(n)
		nodes[i] = SceneNode{
			Name:     fmt.Sprintf("tragnet.%03d", i),
			Material: TragnetMaterial,
			Position: Vec3{X: radius * math.Cos(a), Z: -radius * math.Sin(a)},
			Rotation: Identity,
		}
	}
	return nodes
}
