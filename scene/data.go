// Package scene defines the immutable data the traversal kernels consume: the
// four-wide bounding-volume hierarchy (aligned and oriented node variants)
// and the primitive pools referenced by its leaves. Everything here is built
// once and treated as read-only for the lifetime of a scene; queries never
// mutate it, which is what makes concurrent traversal of independent rays
// safe without locking.
package scene

import (
	"bytes"
	"fmt"
	"reflect"
	"strings"

	"github.com/olekukonko/tablewriter"
)

type Scene struct {
	// Traversal entry point.
	Root NodeRef

	// Interior node pools.
	AlignedNodes   []AlignedNode
	UnalignedNodes []UnalignedNode

	// Primitive pools addressed by leaf references.
	Quads  []QuadBundle
	Curves []CurveSegment
}

// Number of quad slots including padding.
func (sc *Scene) QuadCount() int {
	return len(sc.Quads) * BundleSize
}

// Build a tabular representation of scene statistics.
func (sc *Scene) Stats() string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Pool", "Count", "Size"})
	table.Append([]string{"Aligned nodes", fmt.Sprintf("%d", len(sc.AlignedNodes)), fmtSize(sc.AlignedNodes)})
	table.Append([]string{"Oriented nodes", fmt.Sprintf("%d", len(sc.UnalignedNodes)), fmtSize(sc.UnalignedNodes)})
	table.Append([]string{"Quad bundles", fmt.Sprintf("%d", len(sc.Quads)), fmtSize(sc.Quads)})
	table.Append([]string{"Curve segments", fmt.Sprintf("%d", len(sc.Curves)), fmtSize(sc.Curves)})
	table.SetFooter([]string{"Total", " ", strings.TrimLeft(fmtSize(sc.AlignedNodes, sc.UnalignedNodes, sc.Quads, sc.Curves), " ")})

	table.Render()
	return buf.String()
}

// Sum the total space used by a set of slices and return back a formatted
// value with the appropriate byte/kb/mb unit.
func fmtSize(items ...interface{}) string {
	var totalBytes float32 = 0.0
	for _, item := range items {
		t := reflect.TypeOf(item)
		v := reflect.ValueOf(item)
		if v.Len() == 0 {
			continue
		}

		totalBytes += float32(int(t.Elem().Size()) * v.Len())
	}

	if totalBytes < 1e3 {
		return fmt.Sprintf("%3d bytes", int(totalBytes))
	} else if totalBytes < 1e6 {
		return fmt.Sprintf("%3.1f kb", totalBytes/1e3)
	}
	return fmt.Sprintf("%5.1f mb", totalBytes/1e6)
}
